// Package dynlib loads the native runtime from a platform shared library and
// resolves entry points through its exported proc-address functions.
package dynlib

import (
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"

	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

type procAddrFunc func(h driver.Handle, symbol string) uintptr

// Loader opens a shared library and bootstraps resolution from one exported
// root symbol.
type Loader struct {
	lib  sharedLibrary
	path string
}

// New opens the first library that loads from paths, or the platform default
// names when paths is empty.
func New(paths ...string) (*Loader, error) {
	if len(paths) == 0 {
		paths = DefaultPaths()
	}
	var firstErr error
	for _, path := range paths {
		lib, err := openSharedLibrary(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return &Loader{lib: lib, path: path}, nil
	}
	return nil, &fault.LoadError{Detail: fmt.Sprintf("no loadable library among %v: %v", paths, firstErr)}
}

// Path is the path the library was loaded from.
func (l *Loader) Path() string { return l.path }

// Open resolves rootSymbol from the library's export table and returns the
// root resolver backed by it.
func (l *Loader) Open(rootSymbol string) (driver.Resolver, error) {
	addr, err := l.lib.lookup(rootSymbol)
	if err != nil || addr == 0 {
		return nil, &fault.LoadError{Symbol: rootSymbol, Detail: "root entry point not exported"}
	}
	getProcAddr, err := bindProcAddr(addr)
	if err != nil {
		return nil, &fault.LoadError{Symbol: rootSymbol, Detail: err.Error()}
	}
	return &resolver{getProcAddr: getProcAddr}, nil
}

// Close unloads the shared library.
func (l *Loader) Close() error {
	return l.lib.close()
}

type resolver struct {
	getProcAddr procAddrFunc
}

func (r *resolver) Lookup(h driver.Handle, symbol string) (driver.Proc, bool) {
	addr := r.getProcAddr(h, symbol)
	if addr == 0 {
		return nil, false
	}
	return &proc{addr: addr, symbol: symbol}, true
}

func (r *resolver) Derive(getProcAddr driver.Proc) (driver.Resolver, error) {
	var fn procAddrFunc
	if err := getProcAddr.Bind(&fn); err != nil {
		return nil, err
	}
	return &resolver{getProcAddr: fn}, nil
}

type proc struct {
	addr   uintptr
	symbol string
}

// Bind registers the native address behind a typed Go function variable.
// Registration faults on unsupported signatures are recovered into errors.
func (p *proc) Bind(target any) (err error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("bind target for %s must be a non-nil pointer to a function variable", p.symbol)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registering %s: %v", p.symbol, r)
		}
	}()
	purego.RegisterFunc(target, p.addr)
	return nil
}

func bindProcAddr(addr uintptr) (fn procAddrFunc, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registering proc-address entry point: %v", r)
		}
	}()
	purego.RegisterFunc(&fn, addr)
	return fn, nil
}
