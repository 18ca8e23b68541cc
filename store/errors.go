package store

import "errors"

var (
	// ErrStaleDatabase means the revision marker is missing or was written
	// by another build. The database must be initialized again.
	ErrStaleDatabase = errors.New("stale database")
	// ErrCorrupt means a stock file does not hold a whole series.
	ErrCorrupt = errors.New("corrupt stock file")
	// ErrStockNotFound is returned by callers that require an existing series.
	ErrStockNotFound = errors.New("stock does not exist")
)
