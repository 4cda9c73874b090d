package vkw

import (
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
)

// Root-scope entry points, resolved against the null handle before any
// instance exists.
type (
	EnumerateInstanceVersionProc         func(out *uint32) Result
	EnumerateInstanceLayerPropertiesProc func(count *uint32, out *LayerProperties) Result
	// layerName "" enumerates the global extension set.
	EnumerateInstanceExtensionPropertiesProc func(layerName string, count *uint32, out *ExtensionProperties) Result
	CreateInstanceProc                       func(info *InstanceCreateData, out *driver.Handle) Result
	DestroyInstanceProc                      func(instance driver.Handle)
)

// InstanceCreateData is the validated, deduplicated form handed to the
// native create call.
type InstanceCreateData struct {
	APIVersion         uint32
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	EnabledLayers      []string
	EnabledExtensions  []string
}

// Instance-scope entry point signatures.
type (
	EnumeratePhysicalDevicesProc func(instance driver.Handle, count *uint32, out *driver.Handle) Result
	GetPhysicalDevicePropertiesProc func(phys driver.Handle, out *PhysicalDeviceProperties)
	EnumerateDeviceExtensionPropertiesProc func(phys driver.Handle, layerName string, count *uint32, out *ExtensionProperties) Result
	CreateDeviceProc  func(phys driver.Handle, info *DeviceCreateData, out *driver.Handle) Result
	DestroyDeviceProc func(device driver.Handle)

	EnumeratePhysicalDeviceGroupsProc func(instance driver.Handle, count *uint32, out *PhysicalDeviceGroupProperties) Result
	GetPhysicalDeviceProperties2Proc  func(phys driver.Handle, out *PhysicalDeviceProperties2)

	GetPhysicalDeviceToolPropertiesProc func(phys driver.Handle, count *uint32, out *ToolProperties) Result
)

// MaxDeviceGroupSize bounds the devices reported per group.
const MaxDeviceGroupSize = 32

// PhysicalDeviceGroupProperties describes one device group (1.1).
type PhysicalDeviceGroupProperties struct {
	PhysicalDeviceCount uint32
	PhysicalDevices     [MaxDeviceGroupSize]driver.Handle
	SubsetAllocation    uint32
}

// PhysicalDeviceProperties2 is the extensible properties query (1.1).
type PhysicalDeviceProperties2 struct {
	Properties PhysicalDeviceProperties
}

// ToolProperties describes one active tooling layer (1.3).
type ToolProperties struct {
	Name     [MaxNameSize]byte
	Version  [MaxNameSize]byte
	Purposes uint32
}

// InstanceCore10 holds the instance-level entry points defined by 1.0.
// GetDeviceProcAddr stays opaque: it seeds the leaf-level resolver rather
// than being called directly.
type InstanceCore10 struct {
	EnumeratePhysicalDevices           EnumeratePhysicalDevicesProc
	GetPhysicalDeviceProperties        GetPhysicalDevicePropertiesProc
	EnumerateDeviceExtensionProperties EnumerateDeviceExtensionPropertiesProc
	CreateDevice                       CreateDeviceProc
	GetDeviceProcAddr                  driver.Proc
}

// InstanceCore11 holds the entry points 1.1 adds.
type InstanceCore11 struct {
	EnumeratePhysicalDeviceGroups EnumeratePhysicalDeviceGroupsProc
	GetPhysicalDeviceProperties2  GetPhysicalDeviceProperties2Proc
}

// InstanceCore13 holds the entry points 1.3 adds. 1.2 defined no new
// instance-level entry points, so the chain has a gap there.
type InstanceCore13 struct {
	GetPhysicalDeviceToolProperties GetPhysicalDeviceToolPropertiesProc
}

type instanceTable struct {
	InstanceCore10
	InstanceCore11
	InstanceCore13
}

var instanceChain = dispatch.NewChain(
	dispatch.Step[instanceTable]{
		Version: apiver.New(1, 0, 0),
		Symbols: func(t *instanceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkEnumeratePhysicalDevices", Target: &t.EnumeratePhysicalDevices},
				{Name: "vkGetPhysicalDeviceProperties", Target: &t.GetPhysicalDeviceProperties},
				{Name: "vkEnumerateDeviceExtensionProperties", Target: &t.EnumerateDeviceExtensionProperties},
				{Name: "vkCreateDevice", Target: &t.CreateDevice},
				{Name: "vkGetDeviceProcAddr", Target: &t.GetDeviceProcAddr},
			}
		},
	},
	dispatch.Step[instanceTable]{
		Version: apiver.New(1, 1, 0),
		Symbols: func(t *instanceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkEnumeratePhysicalDeviceGroups", Target: &t.EnumeratePhysicalDeviceGroups},
				{Name: "vkGetPhysicalDeviceProperties2", Target: &t.GetPhysicalDeviceProperties2},
			}
		},
	},
	dispatch.Step[instanceTable]{
		Version: apiver.New(1, 3, 0),
		Symbols: func(t *instanceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkGetPhysicalDeviceToolProperties", Target: &t.GetPhysicalDeviceToolProperties},
			}
		},
	},
)
