//go:build windows

package gamedata

import (
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// OpenSegment creates or opens the named file mapping backed by the
// paging file.
func OpenSegment(name string, size int) (WritableSegment, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentOpen, err)
	}

	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), namePtr)
	if handle == 0 {
		return nil, fmt.Errorf("%w: CreateFileMapping %s: %v", ErrSegmentOpen, name, err)
	}

	addr, err := windows.MapViewOfFile(handle, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: MapViewOfFile %s: %v", ErrSegmentOpen, name, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSegment",
		"name":     name,
		"size":     size,
	}).Debug("Mapped game data segment")

	return &mappedSegment{
		data: unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		unmap: func() error {
			err := windows.UnmapViewOfFile(addr)
			if cerr := windows.CloseHandle(handle); err == nil {
				err = cerr
			}
			return err
		},
	}, nil
}
