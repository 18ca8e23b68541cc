package cmd

import (
	"context"
	"fmt"

	"github.com/jing2uo/b3hist/workflow"
)

// Sync downloads the yearly archives of the exchange, imports them in
// order and reloads the DuckDB mirror when dsn is set.
func Sync(ctx context.Context, cfg *Config, years string, dsn string, keep bool) error {
	ys, err := workflow.ParseYears(years)
	if err != nil {
		return err
	}
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}

	env := &workflow.TaskEnv{
		Store:     st,
		Log:       cfg.Log,
		SourceURL: cfg.SourceURL,
		Keep:      keep,
	}
	if dsn != "" {
		repo, err := openMirror(dsn)
		if err != nil {
			return err
		}
		defer repo.Close()
		env.Mirror = repo
	}

	if _, err := workflow.Sync(ctx, env, ys); err != nil {
		return fmt.Errorf("workflow execution failed: %w", err)
	}
	fmt.Println("🚀 Sync finished")
	return nil
}
