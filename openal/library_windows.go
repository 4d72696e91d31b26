//go:build windows

package openal

import (
	"runtime"

	"golang.org/x/sys/windows"
)

func defaultLibraryNames() []string {
	if runtime.GOARCH == "386" {
		return []string{"OpenAL32.dll", "soft_oal.dll"}
	}
	return []string{"OpenAL64.dll", "soft_oal.dll"}
}

func openLibrary(name string) (uintptr, error) {
	handle, err := windows.LoadLibraryEx(name, 0, windows.LOAD_LIBRARY_SEARCH_DEFAULT_DIRS)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func closeLibrary(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
