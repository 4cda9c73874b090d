// Package vkwtest provides a simulated native runtime for exercising the
// wrapper without any driver installed. The simulator implements the driver
// ports directly, advertises a configurable version and capability surface,
// gates symbol resolution by version the way a real runtime does, and counts
// create and destroy calls so tests can assert lifecycle balance.
package vkwtest

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/vkw-go/vkw"
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

// symbolVersions maps every core entry point to the version that introduced
// it; the simulator only resolves symbols at or below its advertised version.
var symbolVersions = map[string]apiver.Version{
	"vkCreateInstance":                       apiver.New(1, 0, 0),
	"vkDestroyInstance":                      apiver.New(1, 0, 0),
	"vkEnumerateInstanceLayerProperties":     apiver.New(1, 0, 0),
	"vkEnumerateInstanceExtensionProperties": apiver.New(1, 0, 0),
	"vkEnumerateInstanceVersion":             apiver.New(1, 1, 0),

	"vkEnumeratePhysicalDevices":           apiver.New(1, 0, 0),
	"vkGetPhysicalDeviceProperties":        apiver.New(1, 0, 0),
	"vkEnumerateDeviceExtensionProperties": apiver.New(1, 0, 0),
	"vkCreateDevice":                       apiver.New(1, 0, 0),
	"vkDestroyDevice":                      apiver.New(1, 0, 0),
	"vkGetDeviceProcAddr":                  apiver.New(1, 0, 0),
	"vkEnumeratePhysicalDeviceGroups":      apiver.New(1, 1, 0),
	"vkGetPhysicalDeviceProperties2":       apiver.New(1, 1, 0),
	"vkGetPhysicalDeviceToolProperties":    apiver.New(1, 3, 0),

	"vkGetDeviceQueue":           apiver.New(1, 0, 0),
	"vkDeviceWaitIdle":           apiver.New(1, 0, 0),
	"vkCreateFence":              apiver.New(1, 0, 0),
	"vkDestroyFence":             apiver.New(1, 0, 0),
	"vkResetFences":              apiver.New(1, 0, 0),
	"vkWaitForFences":            apiver.New(1, 0, 0),
	"vkGetDeviceQueue2":          apiver.New(1, 1, 0),
	"vkGetSemaphoreCounterValue": apiver.New(1, 2, 0),
	"vkWaitSemaphores":           apiver.New(1, 2, 0),
	"vkSetPrivateData":           apiver.New(1, 3, 0),
	"vkGetPrivateData":           apiver.New(1, 3, 0),
}

// extSymbols maps extension entry points to the extension that contributes
// them; resolution requires the extension to be advertised somewhere.
var extSymbols = map[string]string{
	"vkCreateDebugUtilsMessengerEXT":  "VK_EXT_debug_utils",
	"vkDestroyDebugUtilsMessengerEXT": "VK_EXT_debug_utils",
	"vkSetDebugUtilsObjectNameEXT":    "VK_EXT_debug_utils",
	"vkCreateSwapchainKHR":            "VK_KHR_swapchain",
	"vkDestroySwapchainKHR":           "VK_KHR_swapchain",
	"vkGetSwapchainImagesKHR":         "VK_KHR_swapchain",
	"vkAcquireNextImageKHR":           "VK_KHR_swapchain",
}

// PhysicalDeviceSpec declares one simulated device.
type PhysicalDeviceSpec struct {
	Name       string
	APIVersion apiver.Version
	Extensions []string
}

// LayerSpec declares one advertised layer and the extensions it contributes.
type LayerSpec struct {
	Name                  string
	ContributedExtensions []string
}

// Counters tallies create/destroy pairs so tests can assert balance.
type Counters struct {
	InstanceCreates, InstanceDestroys   int
	DeviceCreates, DeviceDestroys       int
	FenceCreates, FenceDestroys         int
	MessengerCreates, MessengerDestroys int
	SwapchainCreates, SwapchainDestroys int
	LoaderCloses                        int
}

// Option configures a Sim.
type Option func(*Sim)

// WithVersion sets the advertised runtime version.
func WithVersion(v apiver.Version) Option {
	return func(s *Sim) { s.version = v }
}

// WithLayer advertises a layer, optionally contributing extensions.
func WithLayer(name string, contributed ...string) Option {
	return func(s *Sim) {
		s.layers = append(s.layers, LayerSpec{Name: name, ContributedExtensions: contributed})
	}
}

// WithExtensions advertises global instance-level extensions.
func WithExtensions(names ...string) Option {
	return func(s *Sim) { s.extensions = append(s.extensions, names...) }
}

// WithPhysicalDevice adds a simulated device. Specs without a version
// advertise the runtime version.
func WithPhysicalDevice(spec PhysicalDeviceSpec) Option {
	return func(s *Sim) { s.physical = append(s.physical, spec) }
}

// WithoutSymbol removes an entry point the version gate would otherwise
// resolve, simulating a broken or partial runtime.
func WithoutSymbol(name string) Option {
	return func(s *Sim) { s.removed[name] = struct{}{} }
}

// Sim is a simulated runtime. It implements driver.Loader and
// driver.Resolver.
type Sim struct {
	mu sync.Mutex

	version    apiver.Version
	layers     []LayerSpec
	extensions []string
	physical   []PhysicalDeviceSpec
	removed    map[string]struct{}

	nextHandle  driver.Handle
	physHandles []driver.Handle
	instances   map[driver.Handle]bool
	devices     map[driver.Handle]*simDevice
	fences      map[driver.Handle]*simFence
	objectNames map[uint64]string

	counters Counters
}

type simDevice struct {
	privateData map[privateKey]uint64
	nextImage   uint32
}

type privateKey struct {
	objectType uint32
	object     uint64
	slot       driver.Handle
}

type simFence struct {
	signaled bool
}

// NewSim builds a simulator. Defaults: version 1.3.0, no layers, no
// extensions, one device named "sim-gpu" advertising the runtime version.
func NewSim(opts ...Option) *Sim {
	s := &Sim{
		version:     apiver.New(1, 3, 0),
		removed:     make(map[string]struct{}),
		nextHandle:  0x100,
		instances:   make(map[driver.Handle]bool),
		devices:     make(map[driver.Handle]*simDevice),
		fences:      make(map[driver.Handle]*simFence),
		objectNames: make(map[uint64]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.physical) == 0 {
		s.physical = []PhysicalDeviceSpec{{Name: "sim-gpu", APIVersion: s.version}}
	}
	for i := range s.physical {
		if (s.physical[i].APIVersion == apiver.Version{}) {
			s.physical[i].APIVersion = s.version
		}
		s.physHandles = append(s.physHandles, driver.Handle(0x1000+i))
	}
	return s
}

// Counters returns a snapshot of the lifecycle tallies.
func (s *Sim) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// SignalFence flips a simulated fence to signaled, as a queue would.
func (s *Sim) SignalFence(h driver.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fences[h]; ok {
		f.signaled = true
	}
}

// Open implements driver.Loader.
func (s *Sim) Open(rootSymbol string) (driver.Resolver, error) {
	if _, gone := s.removed[rootSymbol]; gone || rootSymbol != "vkGetInstanceProcAddr" {
		return nil, &fault.LoadError{Symbol: rootSymbol, Detail: "root entry point not exported"}
	}
	return s, nil
}

// Close implements driver.Loader.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.LoaderCloses++
	return nil
}

// Lookup implements driver.Resolver with the same gating a real runtime
// applies: core symbols resolve only at or below the advertised version,
// extension symbols only when their extension is advertised.
func (s *Sim) Lookup(h driver.Handle, symbol string) (driver.Proc, bool) {
	if _, gone := s.removed[symbol]; gone {
		return nil, false
	}
	if min, ok := symbolVersions[symbol]; ok {
		if s.version.MajorMinor().Less(min.MajorMinor()) {
			return nil, false
		}
		return simProc{symbol: symbol, impl: s.implFor(symbol)}, true
	}
	if extName, ok := extSymbols[symbol]; ok {
		if !s.extensionAdvertised(extName) {
			return nil, false
		}
		return simProc{symbol: symbol, impl: s.implFor(symbol)}, true
	}
	return nil, false
}

// Derive implements driver.Resolver. The simulator has one flat symbol
// space, so derived resolution is the same table.
func (s *Sim) Derive(getProcAddr driver.Proc) (driver.Resolver, error) {
	if getProcAddr == nil {
		return nil, fmt.Errorf("derive needs a proc-address entry point")
	}
	return s, nil
}

func (s *Sim) extensionAdvertised(name string) bool {
	for _, have := range s.advertisedExtensions() {
		if have == name {
			return true
		}
	}
	for i := range s.physical {
		for _, have := range s.physical[i].Extensions {
			if have == name {
				return true
			}
		}
	}
	return false
}

func (s *Sim) advertisedExtensions() []string {
	out := append([]string(nil), s.extensions...)
	for _, layer := range s.layers {
		out = append(out, layer.ContributedExtensions...)
	}
	return out
}

func (s *Sim) alloc() driver.Handle {
	s.nextHandle++
	return s.nextHandle
}

func (s *Sim) physSpec(h driver.Handle) *PhysicalDeviceSpec {
	for i, ph := range s.physHandles {
		if ph == h {
			return &s.physical[i]
		}
	}
	return nil
}

type simProc struct {
	symbol string
	impl   any
}

// Bind assigns the simulator's typed closure into the target function
// variable; a signature mismatch surfaces as a bind error exactly like a
// backend that cannot service the signature.
func (p simProc) Bind(target any) error {
	tv := reflect.ValueOf(target)
	if !tv.IsValid() || tv.Kind() != reflect.Pointer || tv.IsNil() || tv.Elem().Kind() != reflect.Func {
		return fmt.Errorf("bind target for %s must be a non-nil pointer to a function variable", p.symbol)
	}
	iv := reflect.ValueOf(p.impl)
	if tv.Elem().Type() != iv.Type() {
		return fmt.Errorf("%s: signature mismatch: have %s, want %s", p.symbol, iv.Type(), tv.Elem().Type())
	}
	tv.Elem().Set(iv)
	return nil
}

// fill runs the provider side of the two-call pattern: a nil buffer reports
// the count, a short buffer is filled and reports Incomplete.
func fill[T any](src []T, count *uint32, out *T) vkw.Result {
	if out == nil {
		*count = uint32(len(src))
		return vkw.Success
	}
	n := len(src)
	if int(*count) < n {
		n = int(*count)
	}
	copy(unsafe.Slice(out, n), src[:n])
	*count = uint32(n)
	if n < len(src) {
		return vkw.Incomplete
	}
	return vkw.Success
}

func nameBytes(s string) (b [vkw.MaxNameSize]byte) {
	copy(b[:], s)
	return b
}

func (s *Sim) layerProps() []vkw.LayerProperties {
	out := make([]vkw.LayerProperties, len(s.layers))
	for i, layer := range s.layers {
		out[i] = vkw.LayerProperties{
			LayerName:   nameBytes(layer.Name),
			SpecVersion: s.version.Encoded(),
			Description: nameBytes("simulated layer"),
		}
	}
	return out
}

func extProps(names []string) []vkw.ExtensionProperties {
	out := make([]vkw.ExtensionProperties, len(names))
	for i, name := range names {
		out[i] = vkw.ExtensionProperties{ExtensionName: nameBytes(name), SpecVersion: 1}
	}
	return out
}

func contains(list []string, name string) bool {
	for _, have := range list {
		if have == name {
			return true
		}
	}
	return false
}

//nolint:gocyclo // one switch arm per simulated entry point
func (s *Sim) implFor(symbol string) any {
	switch symbol {
	case "vkEnumerateInstanceVersion":
		return vkw.EnumerateInstanceVersionProc(func(out *uint32) vkw.Result {
			*out = s.version.Encoded()
			return vkw.Success
		})
	case "vkEnumerateInstanceLayerProperties":
		return vkw.EnumerateInstanceLayerPropertiesProc(func(count *uint32, out *vkw.LayerProperties) vkw.Result {
			return fill(s.layerProps(), count, out)
		})
	case "vkEnumerateInstanceExtensionProperties":
		return vkw.EnumerateInstanceExtensionPropertiesProc(func(layerName string, count *uint32, out *vkw.ExtensionProperties) vkw.Result {
			if layerName == "" {
				return fill(extProps(s.extensions), count, out)
			}
			for _, layer := range s.layers {
				if layer.Name == layerName {
					return fill(extProps(layer.ContributedExtensions), count, out)
				}
			}
			return vkw.ErrorLayerNotPresent
		})
	case "vkCreateInstance":
		return vkw.CreateInstanceProc(func(info *vkw.InstanceCreateData, out *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, name := range info.EnabledLayers {
				found := false
				for _, layer := range s.layers {
					if layer.Name == name {
						found = true
						break
					}
				}
				if !found {
					return vkw.ErrorLayerNotPresent
				}
			}
			for _, name := range info.EnabledExtensions {
				if !contains(s.advertisedExtensions(), name) {
					return vkw.ErrorExtensionNotPresent
				}
			}
			h := s.alloc()
			s.instances[h] = true
			s.counters.InstanceCreates++
			*out = h
			return vkw.Success
		})
	case "vkDestroyInstance":
		return vkw.DestroyInstanceProc(func(instance driver.Handle) {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.instances, instance)
			s.counters.InstanceDestroys++
		})
	case "vkEnumeratePhysicalDevices":
		return vkw.EnumeratePhysicalDevicesProc(func(instance driver.Handle, count *uint32, out *driver.Handle) vkw.Result {
			return fill(s.physHandles, count, out)
		})
	case "vkGetPhysicalDeviceProperties":
		return vkw.GetPhysicalDevicePropertiesProc(func(phys driver.Handle, out *vkw.PhysicalDeviceProperties) {
			if spec := s.physSpec(phys); spec != nil {
				*out = vkw.PhysicalDeviceProperties{
					APIVersion: spec.APIVersion.Encoded(),
					DeviceName: nameBytes(spec.Name),
				}
			}
		})
	case "vkEnumerateDeviceExtensionProperties":
		return vkw.EnumerateDeviceExtensionPropertiesProc(func(phys driver.Handle, layerName string, count *uint32, out *vkw.ExtensionProperties) vkw.Result {
			spec := s.physSpec(phys)
			if spec == nil {
				return vkw.ErrorUnknown
			}
			if layerName != "" {
				return fill([]vkw.ExtensionProperties(nil), count, out)
			}
			return fill(extProps(spec.Extensions), count, out)
		})
	case "vkCreateDevice":
		return vkw.CreateDeviceProc(func(phys driver.Handle, info *vkw.DeviceCreateData, out *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			spec := s.physSpec(phys)
			if spec == nil {
				return vkw.ErrorUnknown
			}
			for _, name := range info.EnabledExtensions {
				if !contains(spec.Extensions, name) {
					return vkw.ErrorExtensionNotPresent
				}
			}
			h := s.alloc()
			s.devices[h] = &simDevice{privateData: make(map[privateKey]uint64)}
			s.counters.DeviceCreates++
			*out = h
			return vkw.Success
		})
	case "vkDestroyDevice":
		return vkw.DestroyDeviceProc(func(device driver.Handle) {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.devices, device)
			s.counters.DeviceDestroys++
		})
	case "vkGetDeviceProcAddr":
		// Kept opaque by the dispatch layer; resolving it only needs to
		// succeed. Binding it would be a wrapper bug.
		return vkw.EnumerateInstanceVersionProc(func(out *uint32) vkw.Result { return vkw.ErrorUnknown })
	case "vkEnumeratePhysicalDeviceGroups":
		return vkw.EnumeratePhysicalDeviceGroupsProc(func(instance driver.Handle, count *uint32, out *vkw.PhysicalDeviceGroupProperties) vkw.Result {
			group := vkw.PhysicalDeviceGroupProperties{PhysicalDeviceCount: uint32(len(s.physHandles))}
			copy(group.PhysicalDevices[:], s.physHandles)
			return fill([]vkw.PhysicalDeviceGroupProperties{group}, count, out)
		})
	case "vkGetPhysicalDeviceProperties2":
		return vkw.GetPhysicalDeviceProperties2Proc(func(phys driver.Handle, out *vkw.PhysicalDeviceProperties2) {
			if spec := s.physSpec(phys); spec != nil {
				out.Properties = vkw.PhysicalDeviceProperties{
					APIVersion: spec.APIVersion.Encoded(),
					DeviceName: nameBytes(spec.Name),
				}
			}
		})
	case "vkGetPhysicalDeviceToolProperties":
		return vkw.GetPhysicalDeviceToolPropertiesProc(func(phys driver.Handle, count *uint32, out *vkw.ToolProperties) vkw.Result {
			return fill([]vkw.ToolProperties(nil), count, out)
		})

	case "vkGetDeviceQueue":
		return vkw.GetDeviceQueueProc(func(device driver.Handle, family, index uint32, out *driver.Handle) {
			*out = device + driver.Handle(family)*16 + driver.Handle(index) + 1
		})
	case "vkDeviceWaitIdle":
		return vkw.DeviceWaitIdleProc(func(device driver.Handle) vkw.Result {
			return vkw.Success
		})
	case "vkCreateFence":
		return vkw.CreateFenceProc(func(device driver.Handle, info *vkw.FenceCreateData, out *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			h := s.alloc()
			s.fences[h] = &simFence{signaled: info.Flags&vkw.FenceCreateSignaled != 0}
			s.counters.FenceCreates++
			*out = h
			return vkw.Success
		})
	case "vkDestroyFence":
		return vkw.DestroyFenceProc(func(device, fence driver.Handle) {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.fences, fence)
			s.counters.FenceDestroys++
		})
	case "vkResetFences":
		return vkw.ResetFencesProc(func(device driver.Handle, count uint32, fences *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, h := range unsafe.Slice(fences, count) {
				if f, ok := s.fences[h]; ok {
					f.signaled = false
				}
			}
			return vkw.Success
		})
	case "vkWaitForFences":
		return vkw.WaitForFencesProc(func(device driver.Handle, count uint32, fences *driver.Handle, waitAll uint32, timeoutNs uint64) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			signaled := 0
			for _, h := range unsafe.Slice(fences, count) {
				if f, ok := s.fences[h]; ok && f.signaled {
					signaled++
				}
			}
			if waitAll != 0 && signaled == int(count) || waitAll == 0 && signaled > 0 {
				return vkw.Success
			}
			return vkw.Timeout
		})
	case "vkGetDeviceQueue2":
		return vkw.GetDeviceQueue2Proc(func(device driver.Handle, info *vkw.DeviceQueueInfo2, out *driver.Handle) {
			*out = device + driver.Handle(info.Family)*16 + driver.Handle(info.Index) + 1
		})
	case "vkGetSemaphoreCounterValue":
		return vkw.GetSemaphoreCounterValueProc(func(device, semaphore driver.Handle, out *uint64) vkw.Result {
			*out = 0
			return vkw.Success
		})
	case "vkWaitSemaphores":
		return vkw.WaitSemaphoresProc(func(device driver.Handle, count uint32, semaphores *driver.Handle, values *uint64, timeoutNs uint64) vkw.Result {
			return vkw.Success
		})
	case "vkSetPrivateData":
		return vkw.SetPrivateDataProc(func(device driver.Handle, objectType uint32, object uint64, slot driver.Handle, data uint64) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			if dev, ok := s.devices[device]; ok {
				dev.privateData[privateKey{objectType, object, slot}] = data
				return vkw.Success
			}
			return vkw.ErrorUnknown
		})
	case "vkGetPrivateData":
		return vkw.GetPrivateDataProc(func(device driver.Handle, objectType uint32, object uint64, slot driver.Handle, out *uint64) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if dev, ok := s.devices[device]; ok {
				*out = dev.privateData[privateKey{objectType, object, slot}]
			}
		})

	case "vkCreateDebugUtilsMessengerEXT":
		return vkw.CreateDebugUtilsMessengerEXTProc(func(instance driver.Handle, info *vkw.DebugUtilsMessengerCreateData, out *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			*out = s.alloc()
			s.counters.MessengerCreates++
			return vkw.Success
		})
	case "vkDestroyDebugUtilsMessengerEXT":
		return vkw.DestroyDebugUtilsMessengerEXTProc(func(instance, messenger driver.Handle) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.counters.MessengerDestroys++
		})
	case "vkSetDebugUtilsObjectNameEXT":
		return vkw.SetDebugUtilsObjectNameEXTProc(func(device driver.Handle, info *vkw.DebugUtilsObjectNameData) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.objectNames[info.Object] = info.Name
			return vkw.Success
		})
	case "vkCreateSwapchainKHR":
		return vkw.CreateSwapchainKHRProc(func(device driver.Handle, info *vkw.SwapchainCreateData, out *driver.Handle) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			*out = s.alloc()
			s.counters.SwapchainCreates++
			return vkw.Success
		})
	case "vkDestroySwapchainKHR":
		return vkw.DestroySwapchainKHRProc(func(device, swapchain driver.Handle) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.counters.SwapchainDestroys++
		})
	case "vkGetSwapchainImagesKHR":
		return vkw.GetSwapchainImagesKHRProc(func(device, swapchain driver.Handle, count *uint32, out *driver.Handle) vkw.Result {
			images := []driver.Handle{swapchain + 1, swapchain + 2, swapchain + 3}
			return fill(images, count, out)
		})
	case "vkAcquireNextImageKHR":
		return vkw.AcquireNextImageKHRProc(func(device, swapchain driver.Handle, timeoutNs uint64, semaphore, fence driver.Handle, out *uint32) vkw.Result {
			s.mu.Lock()
			defer s.mu.Unlock()
			if dev, ok := s.devices[device]; ok {
				*out = dev.nextImage
				dev.nextImage = (dev.nextImage + 1) % 3
				return vkw.Success
			}
			return vkw.ErrorUnknown
		})
	}
	return nil
}

// ObjectName returns the debug name recorded for a native object, if any.
func (s *Sim) ObjectName(object uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.objectNames[object]
	return name, ok
}
