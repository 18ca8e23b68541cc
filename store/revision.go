package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// MarkerName is the revision marker file inside the database directory.
const MarkerName = ".revision_marker"

// Build identity, set with
//
//	-ldflags "-X github.com/jing2uo/b3hist/store.buildDate=2024-01-05 -X github.com/jing2uo/b3hist/store.buildTime=18:30:00"
var (
	buildDate string
	buildTime string
)

// Revision identifies the build that owns a database.
type Revision struct {
	Date      string
	Time      string
	Toolchain string
	// Build is the VCS revision, suffixed with +dirty for a modified tree.
	Build string
}

// CurrentRevision describes the running binary. Without link-time values
// the modification time of the executable is used, so every rebuild owns
// a new revision.
func CurrentRevision() Revision {
	info, _ := debug.ReadBuildInfo()
	return resolveRevision(buildDate, buildTime, info, executableTime)
}

func executableTime() (time.Time, error) {
	exe, err := os.Executable()
	if err != nil {
		return time.Time{}, err
	}
	fi, err := os.Stat(exe)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func resolveRevision(date, clock string, info *debug.BuildInfo, exeTime func() (time.Time, error)) Revision {
	rev := Revision{
		Date:      date,
		Time:      clock,
		Toolchain: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}

	var vcsTime string
	if info != nil {
		modified := false
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				rev.Build = s.Value
			case "vcs.modified":
				modified = s.Value == "true"
			case "vcs.time":
				vcsTime = s.Value
			}
		}
		if rev.Build != "" && modified {
			rev.Build += "+dirty"
		}
	}
	if rev.Date != "" && rev.Time != "" {
		return rev
	}

	if t, err := exeTime(); err == nil && !t.IsZero() {
		rev.Date = t.UTC().Format("2006-01-02")
		rev.Time = t.UTC().Format("15:04:05.000000000")
		return rev
	}
	rev.Date, rev.Time = "unknown", "unknown"
	if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
		rev.Date = t.UTC().Format("2006-01-02")
		rev.Time = t.UTC().Format("15:04:05")
	}
	return rev
}

// Content is the exact marker file content.
func (r Revision) Content() []byte {
	content := r.Date + "\n" + r.Time + "\n" + r.Toolchain + "\n"
	if r.Build != "" {
		content += r.Build + "\n"
	}
	return []byte(content)
}

func (r Revision) String() string {
	if r.Build != "" {
		return fmt.Sprintf("%s %s (%s, %s)", r.Date, r.Time, r.Toolchain, r.Build)
	}
	return fmt.Sprintf("%s %s (%s)", r.Date, r.Time, r.Toolchain)
}

// CheckRevision compares the marker of dir with rev byte for byte.
func CheckRevision(dir string, rev Revision) error {
	stored, err := os.ReadFile(filepath.Join(dir, MarkerName))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s has no revision marker", ErrStaleDatabase, dir)
	}
	if err != nil {
		return fmt.Errorf("failed to read revision marker: %w", err)
	}
	if !bytes.Equal(stored, rev.Content()) {
		return fmt.Errorf("%w: %s was initialized by build %q, running %s",
			ErrStaleDatabase, dir, string(bytes.TrimSpace(stored)), rev)
	}
	return nil
}

// ReadMarker returns the raw marker of dir.
func ReadMarker(dir string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, MarkerName))
}
