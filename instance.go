package vkw

import (
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/owned"
)

// InstanceCreateInfo is the caller's capability request for a top-level
// session: the desired API version plus the layers and extensions to enable.
type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion apiver.Version
	EngineName         string
	EngineVersion      apiver.Version

	// APIVersion is the version to negotiate. The zero value means 1.0.0.
	APIVersion apiver.Version

	Layers     []capability.Layer
	Extensions []capability.Ext

	// OptionalExtensionPatterns are glob patterns matched against the
	// advertised extension names. Matches are enabled, non-matches are
	// skipped: unlike Extensions these never fail negotiation.
	OptionalExtensionPatterns []string

	// DisableAutoExtensions opts this request out of the additive
	// auto-enablement of extensions the wrapper itself benefits from.
	DisableAutoExtensions bool
}

// Instance is a negotiated top-level session. Its dispatch table and enabled
// capability sets are fixed at construction; queries on a constructed
// instance are safe from multiple goroutines.
type Instance struct {
	lib      owned.Ref[Library]
	handle   owned.Owned[driver.Handle]
	guard    owned.Guard
	resolver driver.Resolver

	version apiver.Version
	loaded  apiver.Version
	table   *instanceTable

	enabledExts   map[capability.Ext]struct{}
	enabledLayers map[capability.Layer]struct{}
}

// NewInstance validates info against what lib advertises, issues the native
// create call, and resolves the instance dispatch chain at the negotiated
// version.
func NewInstance(lib *Library, info InstanceCreateInfo) (*Instance, error) {
	version := info.APIVersion
	if (version == apiver.Version{}) {
		version = apiver.New(1, 0, 0)
	}
	if lib.Version().Less(version) {
		return nil, fault.Post(&fault.VersionUnsupportedError{
			Detail:    "cannot create instance with requested api version",
			Supported: lib.Version(),
			Requested: version,
		})
	}

	for _, id := range info.Layers {
		if !lib.HasLayer(id) {
			return nil, fault.Post(&fault.LayerUnsupportedError{ID: int(id), Name: id.String()})
		}
	}
	for _, id := range info.Extensions {
		if !lib.HasExtension(id) {
			return nil, fault.Post(&fault.ExtensionUnsupportedError{ID: int(id), Name: id.String()})
		}
	}

	extensions := dedupeExts(info.Extensions)

	// Additive auto-enablement: the wrapper leans on the extended property
	// queries whenever the runtime has them. Never removes a caller request.
	if !info.DisableAutoExtensions &&
		lib.HasExtension(capability.ExtKHRGetPhysicalDeviceProperties2) &&
		!containsExt(extensions, capability.ExtKHRGetPhysicalDeviceProperties2) {
		extensions = append(extensions, capability.ExtKHRGetPhysicalDeviceProperties2)
	}

	// Explicitly optional requests: enabled when advertised, skipped
	// otherwise. Only names the registry knows can become IDs.
	for _, pattern := range info.OptionalExtensionPatterns {
		for _, name := range capability.ExtNames() {
			ok, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, fault.Post(&fault.NameError{Kind: "extension", Name: pattern, Detail: err.Error()})
			}
			if !ok || !lib.hasExtensionName(name) {
				continue
			}
			id, err := capability.ExtByName(name)
			if err != nil {
				continue
			}
			if !containsExt(extensions, id) {
				extensions = append(extensions, id)
			}
		}
	}

	layers := dedupeLayers(info.Layers)

	data := InstanceCreateData{
		APIVersion:         version.Encoded(),
		ApplicationName:    info.ApplicationName,
		ApplicationVersion: info.ApplicationVersion.Encoded(),
		EngineName:         info.EngineName,
		EngineVersion:      info.EngineVersion.Encoded(),
		EnabledLayers:      layerNameList(layers),
		EnabledExtensions:  extNameList(extensions),
	}

	libRef := owned.NewRef(lib, lib.guard)
	handle, err := owned.Acquire(
		func() (driver.Handle, error) {
			var h driver.Handle
			return h, checkResult("vkCreateInstance", lib.createInstance(&data, &h))
		},
		func(h driver.Handle) error {
			// The destruction entry point is looked up through the back
			// reference at teardown time; a dead library here is a
			// use-after-scope bug surfaced by the ref itself.
			parent := libRef.Get()
			proc, ok := parent.resolver.Lookup(h, "vkDestroyInstance")
			if !ok {
				return &fault.LoadError{Symbol: "vkDestroyInstance", Detail: "destruction entry point unresolved at teardown"}
			}
			var destroy DestroyInstanceProc
			if err := proc.Bind(&destroy); err != nil {
				return &fault.LoadError{Symbol: "vkDestroyInstance", Detail: err.Error()}
			}
			destroy(h)
			return nil
		},
	)
	if err != nil {
		return nil, fault.Post(err)
	}

	table, loaded, err := instanceChain.Resolve(lib.resolver, handle.Handle(), version)
	if err != nil {
		handle.Close()
		return nil, fault.Post(err)
	}

	ins := &Instance{
		lib:           libRef,
		handle:        handle,
		guard:         owned.NewGuard(),
		resolver:      lib.resolver,
		version:       version,
		loaded:        loaded,
		table:         table,
		enabledExts:   make(map[capability.Ext]struct{}, len(extensions)),
		enabledLayers: make(map[capability.Layer]struct{}, len(layers)),
	}
	for _, id := range extensions {
		ins.enabledExts[id] = struct{}{}
	}
	for _, id := range layers {
		ins.enabledLayers[id] = struct{}{}
	}

	Logger().Debug("instance created",
		zap.Stringer("version", version),
		zap.Strings("layers", data.EnabledLayers),
		zap.Strings("extensions", data.EnabledExtensions))
	return ins, nil
}

// Handle exposes the raw native handle.
func (i *Instance) Handle() driver.Handle { return i.handle.Handle() }

// Version is the negotiated API version of this instance.
func (i *Instance) Version() apiver.Version { return i.version }

// ExtensionEnabled reports whether the extension was enabled at negotiation.
// This checks the enabled set, not the library's advertised set.
func (i *Instance) ExtensionEnabled(id capability.Ext) bool {
	_, ok := i.enabledExts[id]
	return ok
}

// LayerEnabled reports whether the layer was enabled at negotiation.
func (i *Instance) LayerEnabled(id capability.Layer) bool {
	_, ok := i.enabledLayers[id]
	return ok
}

// Core10 returns the 1.0 entry points.
func (i *Instance) Core10() (*InstanceCore10, error) {
	if err := dispatch.Gate(i.version, apiver.New(1, 0, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &i.table.InstanceCore10, nil
}

// Core11 returns the 1.1 entry points; fails with symbols missing when the
// instance was negotiated below 1.1.
func (i *Instance) Core11() (*InstanceCore11, error) {
	if err := dispatch.Gate(i.version, apiver.New(1, 1, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &i.table.InstanceCore11, nil
}

// Core13 returns the 1.3 entry points; fails with symbols missing when the
// instance was negotiated below 1.3. There is no Core12: 1.2 added no
// instance-level entry points.
func (i *Instance) Core13() (*InstanceCore13, error) {
	if err := dispatch.Gate(i.version, apiver.New(1, 3, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &i.table.InstanceCore13, nil
}

// PhysicalDevices enumerates the leaf-capable devices of this instance,
// including each one's advertised version and supported extension set.
func (i *Instance) PhysicalDevices() ([]PhysicalDevice, error) {
	core := &i.table.InstanceCore10

	var count uint32
	if err := checkResult("vkEnumeratePhysicalDevices", core.EnumeratePhysicalDevices(i.Handle(), &count, nil)); err != nil {
		return nil, fault.Post(err)
	}
	if count == 0 {
		return nil, nil
	}
	handles := make([]driver.Handle, count)
	if err := checkResult("vkEnumeratePhysicalDevices", core.EnumeratePhysicalDevices(i.Handle(), &count, &handles[0])); err != nil {
		return nil, fault.Post(err)
	}
	handles = handles[:count]

	devices := make([]PhysicalDevice, 0, len(handles))
	for _, h := range handles {
		pd, err := newPhysicalDevice(core, h)
		if err != nil {
			return nil, fault.Post(err)
		}
		devices = append(devices, pd)
	}
	return devices, nil
}

// Close destroys the native instance and invalidates back references held by
// its descendants. The caller must have destroyed those descendants first.
func (i *Instance) Close() {
	i.handle.Close()
	i.guard.Invalidate()
	Logger().Debug("instance destroyed", zap.Stringer("version", i.version))
}

func containsExt(list []capability.Ext, id capability.Ext) bool {
	for _, e := range list {
		if e == id {
			return true
		}
	}
	return false
}

func dedupeExts(list []capability.Ext) []capability.Ext {
	out := make([]capability.Ext, 0, len(list))
	for _, id := range list {
		if !containsExt(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func dedupeLayers(list []capability.Layer) []capability.Layer {
	out := make([]capability.Layer, 0, len(list))
	for _, id := range list {
		seen := false
		for _, have := range out {
			if have == id {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out
}

func extNameList(list []capability.Ext) []string {
	out := make([]string, len(list))
	for i, id := range list {
		out[i] = id.String()
	}
	return out
}

func layerNameList(list []capability.Layer) []string {
	out := make([]string, len(list))
	for i, id := range list {
		out[i] = id.String()
	}
	return out
}
