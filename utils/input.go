package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Input is an opened extract stream.
type Input struct {
	io.Reader
	Name   string
	closer func() error
}

func (in *Input) Close() error {
	if in.closer == nil {
		return nil
	}
	return in.closer()
}

// StdinInput wraps standard input.
func StdinInput() *Input {
	return &Input{Reader: os.Stdin, Name: "stdin"}
}

// OpenInput opens a plain extract, or the single extract inside a .zip archive
// as distributed by the exchange. Archives are streamed, never unpacked to disk.
func OpenInput(path string) (*Input, error) {
	if err := CheckFile(path); err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return &Input{Reader: f, Name: filepath.Base(path), closer: f.Close}, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(strings.ToLower(f.Name), ".zip") {
			continue
		}
		if entry != nil {
			zr.Close()
			return nil, fmt.Errorf("archive %s holds more than one file: %s, %s", path, entry.Name, f.Name)
		}
		entry = f
	}
	if entry == nil {
		zr.Close()
		return nil, fmt.Errorf("archive %s holds no file", path)
	}

	rc, err := entry.Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("failed to open %s in %s: %w", entry.Name, path, err)
	}
	return &Input{
		Reader: rc,
		Name:   filepath.Base(path) + ":" + entry.Name,
		closer: func() error {
			rc.Close()
			return zr.Close()
		},
	}, nil
}
