// Package capability names the optional units of native functionality:
// extensions and layers. Both are dense enums with a bidirectional mapping
// to their canonical runtime names. Name lookups fail closed: an
// unregistered name is an error, never a silently minted ID.
package capability

import "github.com/vkw-go/vkw/fault"

// Ext identifies an extension known to this wrapper.
type Ext int

const (
	ExtKHRSurface Ext = iota
	ExtKHRSwapchain
	ExtKHRGetPhysicalDeviceProperties2
	ExtKHRDisplay
	ExtEXTDebugUtils
	ExtEXTMemoryBudget
	ExtEXTSwapchainColorspace
	extCount
)

var extNames = [extCount]string{
	ExtKHRSurface:                      "VK_KHR_surface",
	ExtKHRSwapchain:                    "VK_KHR_swapchain",
	ExtKHRGetPhysicalDeviceProperties2: "VK_KHR_get_physical_device_properties2",
	ExtKHRDisplay:                      "VK_KHR_display",
	ExtEXTDebugUtils:                   "VK_EXT_debug_utils",
	ExtEXTMemoryBudget:                 "VK_EXT_memory_budget",
	ExtEXTSwapchainColorspace:          "VK_EXT_swapchain_colorspace",
}

// String returns the canonical runtime name of the extension.
func (e Ext) String() string {
	if e < 0 || e >= extCount {
		return "VK_UNKNOWN_EXTENSION"
	}
	return extNames[e]
}

// Valid reports whether e names a registered extension.
func (e Ext) Valid() bool { return e >= 0 && e < extCount }

// ExtByName translates a canonical name back to its ID.
func ExtByName(name string) (Ext, error) {
	for id, n := range extNames {
		if n == name {
			return Ext(id), nil
		}
	}
	return 0, &fault.NameError{Kind: "extension", Name: name}
}

// ValidExtName reports whether name is registered, without the error.
func ValidExtName(name string) bool {
	_, err := ExtByName(name)
	return err == nil
}

// ExtNames returns the full registered name table, in ID order.
func ExtNames() []string {
	out := make([]string, len(extNames))
	copy(out, extNames[:])
	return out
}
