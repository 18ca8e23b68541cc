package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init wipes dir and leaves an empty database owned by rev.
func Init(dir string, rev Revision) error {
	if dir == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read database: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to wipe database: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerName), rev.Content(), 0o644); err != nil {
		return fmt.Errorf("failed to write revision marker: %w", err)
	}
	return nil
}
