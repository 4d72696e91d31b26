//go:build !windows

package openal

import (
	"runtime"

	"github.com/ebitengine/purego"
)

func defaultLibraryNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"libopenal.1.dylib",
			"libopenal.dylib",
			"/opt/homebrew/opt/openal-soft/lib/libopenal.dylib",
			"/usr/local/opt/openal-soft/lib/libopenal.dylib",
		}
	}
	return []string{"libopenal.so.1", "libopenal.so"}
}

func openLibrary(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func closeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}
