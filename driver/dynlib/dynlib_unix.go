//go:build darwin || freebsd || linux || netbsd

package dynlib

import (
	"runtime"

	"github.com/ebitengine/purego"
)

type sharedLibrary struct {
	handle uintptr
}

func openSharedLibrary(path string) (sharedLibrary, error) {
	h, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return sharedLibrary{}, err
	}
	return sharedLibrary{handle: h}, nil
}

func (so sharedLibrary) lookup(name string) (uintptr, error) {
	return purego.Dlsym(so.handle, name)
}

func (so sharedLibrary) close() error {
	return purego.Dlclose(so.handle)
}

// DefaultPaths lists the conventional runtime library names for the current
// platform, most specific first.
func DefaultPaths() []string {
	if runtime.GOOS == "darwin" {
		return []string{"libvulkan.1.dylib", "libvulkan.dylib", "libMoltenVK.dylib"}
	}
	return []string{"libvulkan.so.1", "libvulkan.so"}
}
