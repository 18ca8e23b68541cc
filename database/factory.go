package database

import (
	"fmt"

	"github.com/jing2uo/b3hist/database/duckdb"
	"github.com/jing2uo/b3hist/model"
)

func NewDatabase(cfg model.DBConfig) (MirrorRepository, error) {
	switch cfg.Type {
	case model.DBTypeDuckDB:
		return duckdb.NewDriver(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}
