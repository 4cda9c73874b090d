package vkw

// MaxNameSize bounds the fixed-size name fields of native property structs.
const MaxNameSize = 256

// MaxDescriptionSize bounds the fixed-size description fields.
const MaxDescriptionSize = 256

// LayerProperties describes one advertised layer.
type LayerProperties struct {
	LayerName             [MaxNameSize]byte
	SpecVersion           uint32
	ImplementationVersion uint32
	Description           [MaxDescriptionSize]byte
}

// Name returns the layer name as a Go string.
func (p *LayerProperties) Name() string { return cstring(p.LayerName[:]) }

// ExtensionProperties describes one advertised extension.
type ExtensionProperties struct {
	ExtensionName [MaxNameSize]byte
	SpecVersion   uint32
}

// Name returns the extension name as a Go string.
func (p *ExtensionProperties) Name() string { return cstring(p.ExtensionName[:]) }

// PhysicalDeviceProperties carries the identity of one leaf-capable native
// device, including the highest API version its driver advertises.
type PhysicalDeviceProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	DeviceType    uint32
	DeviceName    [MaxNameSize]byte
}

// Name returns the device name as a Go string.
func (p *PhysicalDeviceProperties) Name() string { return cstring(p.DeviceName[:]) }

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
