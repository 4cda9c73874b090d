package vkw

import (
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

// PhysicalDevice describes one leaf-capable native device and accumulates
// the caller's pre-creation requests: the API version and the device-level
// extensions a Device built from it should enable. It is a value type; pass
// copies around freely until one is handed to NewDevice.
type PhysicalDevice struct {
	handle     driver.Handle
	properties PhysicalDeviceProperties

	supportedNames []string
	supported      map[capability.Ext]struct{}

	requested apiver.Version
	enabled   []capability.Ext
}

func newPhysicalDevice(core *InstanceCore10, h driver.Handle) (PhysicalDevice, error) {
	pd := PhysicalDevice{
		handle:    h,
		supported: make(map[capability.Ext]struct{}),
		requested: apiver.New(1, 0, 0),
	}
	core.GetPhysicalDeviceProperties(h, &pd.properties)

	var count uint32
	if err := checkResult("vkEnumerateDeviceExtensionProperties", core.EnumerateDeviceExtensionProperties(h, "", &count, nil)); err != nil {
		return PhysicalDevice{}, err
	}
	if count > 0 {
		buf := make([]ExtensionProperties, count)
		if err := checkResult("vkEnumerateDeviceExtensionProperties", core.EnumerateDeviceExtensionProperties(h, "", &count, &buf[0])); err != nil {
			return PhysicalDevice{}, err
		}
		for i := range buf[:count] {
			name := buf[i].Name()
			pd.supportedNames = append(pd.supportedNames, name)
			if id, err := capability.ExtByName(name); err == nil {
				pd.supported[id] = struct{}{}
			}
		}
	}
	return pd, nil
}

// Handle exposes the raw native handle.
func (p *PhysicalDevice) Handle() driver.Handle { return p.handle }

// Name is the driver-reported device name.
func (p *PhysicalDevice) Name() string { return p.properties.Name() }

// Properties returns the raw native properties.
func (p *PhysicalDevice) Properties() PhysicalDeviceProperties { return p.properties }

// AdvertisedVersion is the highest API version this device's driver
// supports.
func (p *PhysicalDevice) AdvertisedVersion() apiver.Version {
	return apiver.FromEncoded(p.properties.APIVersion)
}

// RequestedVersion is the version a Device built from p will negotiate.
func (p *PhysicalDevice) RequestedVersion() apiver.Version { return p.requested }

// RequestVersion sets the version to negotiate at device creation. Requests
// above what the device advertises are rejected with both versions attached.
func (p *PhysicalDevice) RequestVersion(v apiver.Version) error {
	if p.AdvertisedVersion().Less(v) {
		return fault.Post(&fault.VersionUnsupportedError{
			Detail:    "cannot request device api version",
			Supported: p.AdvertisedVersion(),
			Requested: v,
		})
	}
	p.requested = v
	return nil
}

// ExtensionSupported reports whether the device driver advertises the
// extension.
func (p *PhysicalDevice) ExtensionSupported(id capability.Ext) bool {
	_, ok := p.supported[id]
	return ok
}

// SupportedExtensionNames returns the raw advertised names, including ones
// the registry does not know.
func (p *PhysicalDevice) SupportedExtensionNames() []string {
	out := make([]string, len(p.supportedNames))
	copy(out, p.supportedNames)
	return out
}

// EnableExtension requests a device-level extension for the Device built
// from p. Unsupported extensions are rejected naming the offender.
// Idempotent.
func (p *PhysicalDevice) EnableExtension(id capability.Ext) error {
	if !p.ExtensionSupported(id) {
		return fault.Post(&fault.ExtensionUnsupportedError{ID: int(id), Name: id.String()})
	}
	for _, have := range p.enabled {
		if have == id {
			return nil
		}
	}
	p.enabled = append(p.enabled, id)
	return nil
}

// ExtensionEnabled reports whether the extension has been requested on p.
func (p *PhysicalDevice) ExtensionEnabled(id capability.Ext) bool {
	for _, have := range p.enabled {
		if have == id {
			return true
		}
	}
	return false
}

// EnabledExtensions returns the requested device-level extensions in
// request order.
func (p *PhysicalDevice) EnabledExtensions() []capability.Ext {
	out := make([]capability.Ext, len(p.enabled))
	copy(out, p.enabled)
	return out
}
