package vkw

import (
	"go.uber.org/zap"

	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/owned"
)

// DeviceCreateInfo refines a PhysicalDevice's accumulated requests at
// creation time. The zero value is usable: queues default to one queue from
// family zero and the version/extension requests come from the physical
// device itself.
type DeviceCreateInfo struct {
	Queues []DeviceQueueRequest

	// DisableAutoExtensions opts this request out of the additive
	// auto-enablement of extensions the wrapper itself benefits from.
	DisableAutoExtensions bool
}

// Device is a negotiated leaf session on one physical device. Its entry
// points resolve through the device-level proc-address resolver, skipping
// instance-level trampolines.
type Device struct {
	ins      owned.Ref[Instance]
	handle   owned.Owned[driver.Handle]
	guard    owned.Guard
	resolver driver.Resolver

	phys    PhysicalDevice
	version apiver.Version
	loaded  apiver.Version
	table   *deviceTable

	enabledExts map[capability.Ext]struct{}
}

// NewDevice creates a leaf session from phys at the version phys requested,
// issuing the native create call and resolving the device dispatch chain
// through a resolver derived from the device proc-address entry point.
func NewDevice(instance *Instance, phys PhysicalDevice, info DeviceCreateInfo) (*Device, error) {
	version := phys.RequestedVersion()
	if instance.Version().Less(version) {
		return nil, fault.Post(&fault.VersionUnsupportedError{
			Detail:    "cannot create device above the instance version",
			Supported: instance.Version(),
			Requested: version,
		})
	}

	extensions := dedupeExts(phys.EnabledExtensions())

	// Additive auto-enablement: the memory budget query rides on the extended
	// instance-level property queries, so both sides must be present.
	if !info.DisableAutoExtensions &&
		instance.ExtensionEnabled(capability.ExtKHRGetPhysicalDeviceProperties2) &&
		phys.ExtensionSupported(capability.ExtEXTMemoryBudget) &&
		!containsExt(extensions, capability.ExtEXTMemoryBudget) {
		extensions = append(extensions, capability.ExtEXTMemoryBudget)
	}

	queues := info.Queues
	if len(queues) == 0 {
		queues = []DeviceQueueRequest{{Family: 0, Count: 1}}
	}

	data := DeviceCreateData{
		APIVersion:        version.Encoded(),
		Queues:            queues,
		EnabledExtensions: extNameList(extensions),
	}

	insRef := owned.NewRef(instance, instance.guard)
	handle, err := owned.Acquire(
		func() (driver.Handle, error) {
			var h driver.Handle
			return h, checkResult("vkCreateDevice", instance.table.CreateDevice(phys.Handle(), &data, &h))
		},
		func(h driver.Handle) error {
			// The destruction entry point is instance-scope: a conformant
			// runtime resolves it against the owning instance handle, never
			// against the device handle itself.
			parent := insRef.Get()
			proc, ok := parent.resolver.Lookup(parent.Handle(), "vkDestroyDevice")
			if !ok {
				return &fault.LoadError{Symbol: "vkDestroyDevice", Detail: "destruction entry point unresolved at teardown"}
			}
			var destroy DestroyDeviceProc
			if err := proc.Bind(&destroy); err != nil {
				return &fault.LoadError{Symbol: "vkDestroyDevice", Detail: err.Error()}
			}
			destroy(h)
			return nil
		},
	)
	if err != nil {
		return nil, fault.Post(err)
	}

	// Device-level resolution goes through the dedicated entry point so calls
	// dispatch directly into the driver.
	resolver, err := instance.resolver.Derive(instance.table.GetDeviceProcAddr)
	if err != nil {
		handle.Close()
		return nil, fault.Post(&fault.LoadError{Symbol: "vkGetDeviceProcAddr", Detail: err.Error()})
	}

	table, loaded, err := deviceChain.Resolve(resolver, handle.Handle(), version)
	if err != nil {
		handle.Close()
		return nil, fault.Post(err)
	}

	dev := &Device{
		ins:         insRef,
		handle:      handle,
		guard:       owned.NewGuard(),
		resolver:    resolver,
		phys:        phys,
		version:     version,
		loaded:      loaded,
		table:       table,
		enabledExts: make(map[capability.Ext]struct{}, len(extensions)),
	}
	for _, id := range extensions {
		dev.enabledExts[id] = struct{}{}
	}

	Logger().Debug("device created",
		zap.String("name", phys.Name()),
		zap.Stringer("version", version),
		zap.Strings("extensions", data.EnabledExtensions))
	return dev, nil
}

// Handle exposes the raw native handle.
func (d *Device) Handle() driver.Handle { return d.handle.Handle() }

// Version is the negotiated API version of this device.
func (d *Device) Version() apiver.Version { return d.version }

// PhysicalDevice returns the physical device this device was created from.
func (d *Device) PhysicalDevice() PhysicalDevice { return d.phys }

// ExtensionEnabled reports whether the extension was enabled at creation.
func (d *Device) ExtensionEnabled(id capability.Ext) bool {
	_, ok := d.enabledExts[id]
	return ok
}

// Core10 returns the 1.0 entry points.
func (d *Device) Core10() (*DeviceCore10, error) {
	if err := dispatch.Gate(d.version, apiver.New(1, 0, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &d.table.DeviceCore10, nil
}

// Core11 returns the 1.1 entry points; fails with symbols missing when the
// device was negotiated below 1.1.
func (d *Device) Core11() (*DeviceCore11, error) {
	if err := dispatch.Gate(d.version, apiver.New(1, 1, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &d.table.DeviceCore11, nil
}

// Core12 returns the 1.2 entry points.
func (d *Device) Core12() (*DeviceCore12, error) {
	if err := dispatch.Gate(d.version, apiver.New(1, 2, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &d.table.DeviceCore12, nil
}

// Core13 returns the 1.3 entry points.
func (d *Device) Core13() (*DeviceCore13, error) {
	if err := dispatch.Gate(d.version, apiver.New(1, 3, 0)); err != nil {
		return nil, fault.Post(err)
	}
	return &d.table.DeviceCore13, nil
}

// Queue fetches a queue handle created with the device.
func (d *Device) Queue(family, index uint32) driver.Handle {
	var q driver.Handle
	d.table.GetDeviceQueue(d.Handle(), family, index, &q)
	return q
}

// WaitIdle blocks until all queues on the device are idle.
func (d *Device) WaitIdle() error {
	if err := checkResult("vkDeviceWaitIdle", d.table.DeviceWaitIdle(d.Handle())); err != nil {
		return fault.Post(err)
	}
	return nil
}

// Close destroys the native device and invalidates back references held by
// its resources. The caller must have destroyed those resources first.
func (d *Device) Close() {
	d.handle.Close()
	d.guard.Invalidate()
	Logger().Debug("device destroyed",
		zap.String("name", d.phys.Name()),
		zap.Stringer("version", d.version))
}
