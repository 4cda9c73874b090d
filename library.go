// Package vkw wraps a runtime-loaded, versioned, capability-gated native API
// behind a strict ownership hierarchy: Library (the loaded runtime and its
// advertised capability sets), Instance (a negotiated top-level session),
// Device (a leaf session created from a physical device), and resources
// created from devices. Entry points are never statically linked; every
// context resolves its own dispatch table for its negotiated version through
// the level-appropriate proc-address resolver.
package vkw

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/owned"
)

// RootProcAddrSymbol is the entry point every conformant runtime exports; it
// bootstraps all other resolution.
const RootProcAddrSymbol = "vkGetInstanceProcAddr"

// Library owns the loaded native runtime and caches what it advertises:
// the highest supported API version, the layer list, and the extension list
// including extensions contributed transitively by layers. All queries are
// pure after construction.
type Library struct {
	loader   driver.Loader
	resolver driver.Resolver
	guard    owned.Guard
	closed   bool

	createInstance      CreateInstanceProc
	enumerateLayers     EnumerateInstanceLayerPropertiesProc
	enumerateExtensions EnumerateInstanceExtensionPropertiesProc
	enumerateVersion    EnumerateInstanceVersionProc // nil on pre-1.1 runtimes

	version    apiver.Version
	layers     []LayerProperties
	extensions []ExtensionProperties
}

// NewLibrary resolves the root proc-address entry point from loader and
// enumerates everything the runtime advertises. The loader's lifetime is
// taken over: Close releases it.
func NewLibrary(loader driver.Loader) (*Library, error) {
	resolver, err := loader.Open(RootProcAddrSymbol)
	if err != nil {
		return nil, fault.Post(err)
	}

	lib := &Library{
		loader:   loader,
		resolver: resolver,
		guard:    owned.NewGuard(),
	}

	err = dispatch.Bind(resolver, driver.NullHandle, []dispatch.Symbol{
		{Name: "vkCreateInstance", Target: &lib.createInstance},
		{Name: "vkEnumerateInstanceLayerProperties", Target: &lib.enumerateLayers},
		{Name: "vkEnumerateInstanceExtensionProperties", Target: &lib.enumerateExtensions},
	})
	if err != nil {
		return nil, fault.Post(err)
	}

	// Absent on 1.0 runtimes; absence pins the advertised version to 1.0.0.
	if proc, ok := resolver.Lookup(driver.NullHandle, "vkEnumerateInstanceVersion"); ok {
		if err := proc.Bind(&lib.enumerateVersion); err != nil {
			return nil, fault.Post(&fault.LoadError{Symbol: "vkEnumerateInstanceVersion", Detail: err.Error()})
		}
	}

	if err := lib.enumerate(); err != nil {
		return nil, fault.Post(err)
	}

	Logger().Debug("library loaded",
		zap.Stringer("version", lib.version),
		zap.Int("layers", len(lib.layers)),
		zap.Int("extensions", len(lib.extensions)))
	return lib, nil
}

func (l *Library) enumerate() error {
	if l.enumerateVersion == nil {
		l.version = apiver.New(1, 0, 0)
	} else {
		var encoded uint32
		if err := checkResult("vkEnumerateInstanceVersion", l.enumerateVersion(&encoded)); err != nil {
			return err
		}
		l.version = apiver.FromEncoded(encoded)
	}

	layers, err := l.layerSlice()
	if err != nil {
		return err
	}
	l.layers = layers

	exts, err := l.extensionSlice("")
	if err != nil {
		return err
	}
	// Layers may contribute extensions of their own; aggregate them so that
	// support checks see the full transitive set.
	for i := range layers {
		layerExts, err := l.extensionSlice(layers[i].Name())
		if err != nil {
			return err
		}
		exts = append(exts, layerExts...)
	}
	l.extensions = exts
	return nil
}

// layerSlice runs the two-call count-then-fill pattern for layers. A zero
// count is legal and must not dereference a nil buffer.
func (l *Library) layerSlice() ([]LayerProperties, error) {
	var count uint32
	if err := checkResult("vkEnumerateInstanceLayerProperties", l.enumerateLayers(&count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	buf := make([]LayerProperties, count)
	if err := checkResult("vkEnumerateInstanceLayerProperties", l.enumerateLayers(&count, &buf[0])); err != nil {
		return nil, err
	}
	return buf[:count], nil
}

func (l *Library) extensionSlice(layerName string) ([]ExtensionProperties, error) {
	var count uint32
	if err := checkResult("vkEnumerateInstanceExtensionProperties", l.enumerateExtensions(layerName, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	buf := make([]ExtensionProperties, count)
	if err := checkResult("vkEnumerateInstanceExtensionProperties", l.enumerateExtensions(layerName, &count, &buf[0])); err != nil {
		return nil, err
	}
	return buf[:count], nil
}

// Version is the highest API version the runtime advertises.
func (l *Library) Version() apiver.Version { return l.version }

// HasLayer reports whether the runtime advertises the layer.
func (l *Library) HasLayer(id capability.Layer) bool {
	name := id.String()
	for i := range l.layers {
		if l.layers[i].Name() == name {
			return true
		}
	}
	return false
}

// HasExtension reports whether the runtime advertises the extension,
// directly or through one of its layers.
func (l *Library) HasExtension(id capability.Ext) bool {
	name := id.String()
	for i := range l.extensions {
		if l.extensions[i].Name() == name {
			return true
		}
	}
	return false
}

// hasExtensionName is HasExtension over a raw advertised name; used by glob
// expansion where the advertised set, not the registry, is the source.
func (l *Library) hasExtensionName(name string) bool {
	for i := range l.extensions {
		if l.extensions[i].Name() == name {
			return true
		}
	}
	return false
}

// Layer returns the advertised properties of one layer, or a layer-missing
// error when the runtime does not advertise it.
func (l *Library) Layer(id capability.Layer) (LayerProperties, error) {
	name := id.String()
	for i := range l.layers {
		if l.layers[i].Name() == name {
			return l.layers[i], nil
		}
	}
	return LayerProperties{}, fault.Post(&fault.LayerMissingError{ID: int(id), Name: name})
}

// Extension returns the advertised properties of one extension, or an
// extension-missing error when the runtime does not advertise it.
func (l *Library) Extension(id capability.Ext) (ExtensionProperties, error) {
	name := id.String()
	for i := range l.extensions {
		if l.extensions[i].Name() == name {
			return l.extensions[i], nil
		}
	}
	return ExtensionProperties{}, fault.Post(&fault.ExtensionMissingError{ID: int(id), Name: name})
}

// Layers returns a copy of the advertised layer list.
func (l *Library) Layers() []LayerProperties {
	out := make([]LayerProperties, len(l.layers))
	copy(out, l.layers)
	return out
}

// Extensions returns a copy of the advertised extension list, including
// layer-contributed entries.
func (l *Library) Extensions() []ExtensionProperties {
	out := make([]ExtensionProperties, len(l.extensions))
	copy(out, l.extensions)
	return out
}

// Close invalidates all back references into the library and releases the
// native runtime. Idempotent.
func (l *Library) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.guard.Invalidate()
	if err := l.loader.Close(); err != nil {
		return fmt.Errorf("closing native loader: %w", err)
	}
	return nil
}
