package utils

import (
	"os"
	"path/filepath"
)

// GetCacheDir returns the scratch directory for downloads and staging files.
func GetCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	appDir := filepath.Join(base, "b3hist")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return appDir, nil
}

// MakeStagingDir creates a fresh directory below the cache dir. The caller
// removes it when done.
func MakeStagingDir(prefix string) (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return os.MkdirTemp(cacheDir, prefix+"-*")
}
