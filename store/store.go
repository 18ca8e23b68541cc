// Package store keeps one binary series file per stock inside a database
// directory. Series are read through memory maps and replaced atomically.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/model"
)

type Store struct {
	dir    string
	log    *zap.Logger
	rename func(oldpath, newpath string) error
}

// Open checks the revision marker of dir and returns a store over it.
func Open(dir string, rev Revision, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open database: %s is not a directory", dir)
	}
	if err := CheckRevision(dir, rev); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: log, rename: os.Rename}, nil
}

func (s *Store) Dir() string { return s.dir }

// Path is the official file of a stock.
func (s *Store) Path(id model.StockID) string {
	return filepath.Join(s.dir, string(id))
}

// BackupPath is the transient copy of a stock kept while its file is replaced.
func (s *Store) BackupPath(id model.StockID) string {
	return filepath.Join(s.dir, "."+string(id))
}

// Load maps the stored series of a stock. It returns nil, nil when the stock
// has no history yet. A backup left by an interrupted write is read when
// the official file is missing.
func (s *Store) Load(id model.StockID) (*History, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	path := s.Path(id)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		path = s.BackupPath(id)
		f, err = os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err == nil {
			s.log.Warn("reading stock from backup", zap.String("stock", id.String()), zap.String("path", path))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stock '%s': %w", id, err)
	}
	defer f.Close()

	data, release, err := mapFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock '%s': %w", id, err)
	}
	length, lastXplit, err := checkSeries(data)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to load stock '%s' from %s: %w", id, path, err)
	}

	return &History{
		stock:     id,
		path:      path,
		data:      data,
		length:    length,
		lastXplit: lastXplit,
		release:   release,
	}, nil
}

// Write replaces the series of a stock. The new series goes to a temporary
// file first; the old file is kept as backup until the new one is in place.
func (s *Store) Write(id model.StockID, quotes []model.DailyQuote, lastXplit int) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if lastXplit < 0 || lastXplit > len(quotes) {
		return fmt.Errorf("last xplit %d out of range for %d quotes of stock '%s'", lastXplit, len(quotes), id)
	}

	tmp, err := s.writeTemp(id, quotes, lastXplit)
	if err != nil {
		return err
	}

	official, backup := s.Path(id), s.BackupPath(id)
	// A backup without an official file is the only readable copy left by
	// an interrupted write; it stays until the new file is promoted.
	if _, err := os.Stat(official); err == nil {
		if err := removeIfExists(backup); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("failed to remove stale backup of stock '%s': %w", id, err)
		}
		if err := s.rename(official, backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			os.Remove(tmp)
			return fmt.Errorf("failed to back up stock '%s': %w", id, err)
		}
	}
	if err := s.rename(tmp, official); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace stock '%s': %w", id, err)
	}
	if err := removeIfExists(backup); err != nil {
		return fmt.Errorf("failed to remove backup of stock '%s': %w", id, err)
	}

	s.log.Debug("stock written",
		zap.String("stock", id.String()),
		zap.Int("quotes", len(quotes)),
		zap.Int("last_xplit", lastXplit))
	return nil
}

func (s *Store) writeTemp(id model.StockID, quotes []model.DailyQuote, lastXplit int) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+string(id)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for stock '%s': %w", id, err)
	}
	name := f.Name()

	w := bufio.NewWriter(f)
	err = writeSeries(w, quotes, lastXplit)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to write stock '%s': %w", id, err)
	}
	return name, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the stocks of the database in name order.
func (s *Store) List() ([]model.StockID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list database: %w", err)
	}

	var ids []model.StockID
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		ids = append(ids, model.StockID(e.Name()))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
