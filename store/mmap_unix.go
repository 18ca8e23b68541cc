//go:build unix

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps a whole file read-only. The returned release func unmaps it.
func mapFile(f *os.File) ([]byte, func() error, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size < headerSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, shorter than its header", ErrCorrupt, size)
	}
	if int64(int(size)) != size {
		return nil, nil, fmt.Errorf("%w: %d bytes do not fit in memory", ErrCorrupt, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to mmap %s: %w", f.Name(), err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
