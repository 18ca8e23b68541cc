package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jing2uo/b3hist/database"
	"github.com/jing2uo/b3hist/model"
	"github.com/jing2uo/b3hist/utils"
	"github.com/jing2uo/b3hist/workflow"
)

func openMirror(dsn string) (database.MirrorRepository, error) {
	if err := utils.CheckOutputFile(dsn); err != nil {
		return nil, err
	}
	repo, err := database.NewDatabase(model.DBConfig{Type: model.DBTypeDuckDB, DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	if err := repo.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repo, nil
}

// Mirror reloads a DuckDB file with the whole database.
func Mirror(ctx context.Context, cfg *Config, dsn string) error {
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	repo, err := openMirror(dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	fmt.Printf("🦆 Mirroring %s into %s\n", cfg.DBPath, dsn)
	res, err := workflow.Mirror(ctx, st, repo, cfg.Log)
	if err != nil {
		return err
	}
	fmt.Printf("🚀 %d quotes of %d stocks mirrored in %s\n", res.Quotes, res.Stocks, res.Duration.Round(time.Millisecond))
	return nil
}
