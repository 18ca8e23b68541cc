package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

func CheckDirectory(path string) error {
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("the directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking %s: %w", path, err)
	}
	if !fileInfo.IsDir() {
		return fmt.Errorf("the specified path %s is not a directory", path)
	}
	return nil
}

func CheckFile(path string) error {
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("the file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking %s: %w", path, err)
	}
	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("the specified path %s is not a file", path)
	}
	return nil
}

// CheckOutputFile makes sure the parent directory of an output file exists
// and accepts new files.
func CheckOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("the output path %s is a directory", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// PathExists reports whether anything exists at path.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
