package vkw

import (
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

// DebugUtilsMessengerCreateData configures a debug messenger.
type DebugUtilsMessengerCreateData struct {
	Severity uint32
	Types    uint32
}

// DebugUtilsObjectNameData attaches a debug name to a native object.
type DebugUtilsObjectNameData struct {
	ObjectType uint32
	Object     uint64
	Name       string
}

// Debug-utils entry point signatures.
type (
	CreateDebugUtilsMessengerEXTProc  func(instance driver.Handle, info *DebugUtilsMessengerCreateData, out *driver.Handle) Result
	DestroyDebugUtilsMessengerEXTProc func(instance, messenger driver.Handle)
	SetDebugUtilsObjectNameEXTProc    func(device driver.Handle, info *DebugUtilsObjectNameData) Result
)

// DebugUtilsEXT holds the entry points contributed by the debug-utils
// extension.
type DebugUtilsEXT struct {
	CreateDebugUtilsMessengerEXT  CreateDebugUtilsMessengerEXTProc
	DestroyDebugUtilsMessengerEXT DestroyDebugUtilsMessengerEXTProc
	SetDebugUtilsObjectNameEXT    SetDebugUtilsObjectNameEXTProc
}

// DebugUtils resolves the debug-utils table. The extension must have been
// enabled at instance creation; an enabled extension whose symbols the
// runtime then fails to resolve is a load fault, not a capability miss.
func (i *Instance) DebugUtils() (*DebugUtilsEXT, error) {
	if !i.ExtensionEnabled(capability.ExtEXTDebugUtils) {
		return nil, fault.Post(&fault.ExtensionMissingError{
			ID:   int(capability.ExtEXTDebugUtils),
			Name: capability.ExtEXTDebugUtils.String(),
		})
	}
	var t DebugUtilsEXT
	err := dispatch.Bind(i.resolver, i.Handle(), []dispatch.Symbol{
		{Name: "vkCreateDebugUtilsMessengerEXT", Target: &t.CreateDebugUtilsMessengerEXT},
		{Name: "vkDestroyDebugUtilsMessengerEXT", Target: &t.DestroyDebugUtilsMessengerEXT},
		{Name: "vkSetDebugUtilsObjectNameEXT", Target: &t.SetDebugUtilsObjectNameEXT},
	})
	if err != nil {
		return nil, fault.Post(err)
	}
	return &t, nil
}

// SwapchainCreateData is the native swapchain create payload.
type SwapchainCreateData struct {
	Surface       driver.Handle
	MinImageCount uint32
	Width         uint32
	Height        uint32
}

// Swapchain entry point signatures.
type (
	CreateSwapchainKHRProc    func(device driver.Handle, info *SwapchainCreateData, out *driver.Handle) Result
	DestroySwapchainKHRProc   func(device, swapchain driver.Handle)
	GetSwapchainImagesKHRProc func(device, swapchain driver.Handle, count *uint32, out *driver.Handle) Result
	AcquireNextImageKHRProc   func(device, swapchain driver.Handle, timeoutNs uint64, semaphore, fence driver.Handle, out *uint32) Result
)

// SwapchainKHR holds the entry points contributed by the swapchain
// extension.
type SwapchainKHR struct {
	CreateSwapchainKHR    CreateSwapchainKHRProc
	DestroySwapchainKHR   DestroySwapchainKHRProc
	GetSwapchainImagesKHR GetSwapchainImagesKHRProc
	AcquireNextImageKHR   AcquireNextImageKHRProc
}

// Swapchain resolves the swapchain table. The extension must have been
// enabled at device creation.
func (d *Device) Swapchain() (*SwapchainKHR, error) {
	if !d.ExtensionEnabled(capability.ExtKHRSwapchain) {
		return nil, fault.Post(&fault.ExtensionMissingError{
			ID:   int(capability.ExtKHRSwapchain),
			Name: capability.ExtKHRSwapchain.String(),
		})
	}
	var t SwapchainKHR
	err := dispatch.Bind(d.resolver, d.Handle(), []dispatch.Symbol{
		{Name: "vkCreateSwapchainKHR", Target: &t.CreateSwapchainKHR},
		{Name: "vkDestroySwapchainKHR", Target: &t.DestroySwapchainKHR},
		{Name: "vkGetSwapchainImagesKHR", Target: &t.GetSwapchainImagesKHR},
		{Name: "vkAcquireNextImageKHR", Target: &t.AcquireNextImageKHR},
	})
	if err != nil {
		return nil, fault.Post(err)
	}
	return &t, nil
}
