//go:build !windows

package gamedata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// OpenSegment maps the named segment, backed by a file of that name in
// the temporary directory. The file is created when missing.
func OpenSegment(name string, size int) (WritableSegment, error) {
	path := filepath.Join(os.TempDir(), name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentOpen, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentOpen, err)
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSegmentOpen, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrSegmentOpen, path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSegment",
		"path":     path,
		"size":     size,
	}).Debug("Mapped game data segment")

	return &mappedSegment{
		data:  data,
		unmap: func() error { return unix.Munmap(data) },
	}, nil
}
