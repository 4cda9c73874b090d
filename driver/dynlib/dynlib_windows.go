//go:build windows

package dynlib

import "golang.org/x/sys/windows"

type sharedLibrary struct {
	handle windows.Handle
}

func openSharedLibrary(path string) (sharedLibrary, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return sharedLibrary{}, err
	}
	return sharedLibrary{handle: h}, nil
}

func (so sharedLibrary) lookup(name string) (uintptr, error) {
	return windows.GetProcAddress(so.handle, name)
}

func (so sharedLibrary) close() error {
	return windows.FreeLibrary(so.handle)
}

// DefaultPaths lists the conventional runtime library names for the current
// platform.
func DefaultPaths() []string {
	return []string{"vulkan-1.dll"}
}
