package vkw_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkw-go/vkw"
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/vkwtest"
)

func Test_NewInstance_NegotiatesRequestedVersion(t *testing.T) {
	// Runtime at 1.3 with validation, debug utils and surface; the caller
	// asks for 1.2 plus debug utils and gets exactly that, not 1.3.
	sim, lib := newLibrary(t,
		vkwtest.WithVersion(apiver.New(1, 3, 0)),
		vkwtest.WithLayer("VK_LAYER_KHRONOS_validation"),
		vkwtest.WithExtensions("VK_EXT_debug_utils", "VK_KHR_surface"),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		ApplicationName: "triangle",
		APIVersion:      apiver.New(1, 2, 0),
		Layers:          []capability.Layer{capability.LayerKhronosValidation},
		Extensions:      []capability.Ext{capability.ExtEXTDebugUtils},
	})
	require.NoError(t, err)
	defer ins.Close()

	assert.Equal(t, apiver.New(1, 2, 0), ins.Version())
	assert.True(t, ins.LayerEnabled(capability.LayerKhronosValidation))
	assert.True(t, ins.ExtensionEnabled(capability.ExtEXTDebugUtils))
	assert.False(t, ins.ExtensionEnabled(capability.ExtKHRSurface),
		"advertised but unrequested extensions stay disabled")
	assert.Equal(t, 1, sim.Counters().InstanceCreates)
}

func Test_NewInstance_ZeroVersionMeansBaseline(t *testing.T) {
	_, lib := newLibrary(t)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{})
	require.NoError(t, err)
	defer ins.Close()

	assert.Equal(t, apiver.New(1, 0, 0), ins.Version())
}

func Test_NewInstance_VersionAboveRuntimeFails(t *testing.T) {
	_, lib := newLibrary(t, vkwtest.WithVersion(apiver.New(1, 1, 0)))

	_, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrVersionUnsupported)

	var verr *fault.VersionUnsupportedError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, apiver.New(1, 1, 0), verr.Supported)
	assert.Equal(t, apiver.New(1, 3, 0), verr.Requested)
}

func Test_NewInstance_UnsupportedLayerNamesOffender(t *testing.T) {
	_, lib := newLibrary(t)

	_, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		Layers: []capability.Layer{capability.LayerLunargAPIDump},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrLayerUnsupported)

	var lerr *fault.LayerUnsupportedError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "VK_LAYER_LUNARG_api_dump", lerr.Name)
}

func Test_NewInstance_UnsupportedExtensionNamesOffender(t *testing.T) {
	_, lib := newLibrary(t)

	_, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		Extensions: []capability.Ext{capability.ExtKHRSwapchain},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrExtensionUnsupported)

	var eerr *fault.ExtensionUnsupportedError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "VK_KHR_swapchain", eerr.Name)
}

func Test_NewInstance_AutoEnablesExtendedPropertyQueries(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithExtensions("VK_KHR_get_physical_device_properties2"),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{})
	require.NoError(t, err)
	defer ins.Close()

	assert.True(t, ins.ExtensionEnabled(capability.ExtKHRGetPhysicalDeviceProperties2))
}

func Test_NewInstance_AutoEnableSkipsUnadvertised(t *testing.T) {
	_, lib := newLibrary(t)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{})
	require.NoError(t, err)
	defer ins.Close()

	assert.False(t, ins.ExtensionEnabled(capability.ExtKHRGetPhysicalDeviceProperties2))
}

func Test_NewInstance_AutoEnableOptOut(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithExtensions("VK_KHR_get_physical_device_properties2"),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{DisableAutoExtensions: true})
	require.NoError(t, err)
	defer ins.Close()

	assert.False(t, ins.ExtensionEnabled(capability.ExtKHRGetPhysicalDeviceProperties2))
}

func Test_NewInstance_OptionalPatternsEnableOnlyMatches(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithExtensions("VK_EXT_debug_utils", "VK_KHR_surface"),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		OptionalExtensionPatterns: []string{"VK_EXT_*"},
	})
	require.NoError(t, err)
	defer ins.Close()

	assert.True(t, ins.ExtensionEnabled(capability.ExtEXTDebugUtils))
	assert.False(t, ins.ExtensionEnabled(capability.ExtKHRSurface))
	// Patterns matching nothing advertised never fail negotiation.
	assert.False(t, ins.ExtensionEnabled(capability.ExtEXTMemoryBudget))
}

func Test_NewInstance_MalformedOptionalPatternFails(t *testing.T) {
	_, lib := newLibrary(t, vkwtest.WithExtensions("VK_KHR_surface"))

	_, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		OptionalExtensionPatterns: []string{"VK_[bad"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrName)

	// A broken pattern is reported as malformed, not as an unregistered name.
	var nameErr *fault.NameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "VK_[bad", nameErr.Name)
	assert.NotEmpty(t, nameErr.Detail)
	assert.NotContains(t, err.Error(), "unknown")
}

func Test_NewInstance_DuplicateRequestsCollapse(t *testing.T) {
	sim, lib := newLibrary(t, vkwtest.WithExtensions("VK_KHR_surface"))

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{
		Extensions: []capability.Ext{
			capability.ExtKHRSurface,
			capability.ExtKHRSurface,
			capability.ExtKHRSurface,
		},
	})
	require.NoError(t, err)
	defer ins.Close()

	assert.True(t, ins.ExtensionEnabled(capability.ExtKHRSurface))
	assert.Equal(t, 1, sim.Counters().InstanceCreates)
}

func Test_Instance_CoreTablesAreVersionGated(t *testing.T) {
	_, lib := newLibrary(t, vkwtest.WithVersion(apiver.New(1, 3, 0)))

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 1, 0)})
	require.NoError(t, err)
	defer ins.Close()

	core10, err := ins.Core10()
	require.NoError(t, err)
	assert.NotNil(t, core10.EnumeratePhysicalDevices)

	core11, err := ins.Core11()
	require.NoError(t, err)
	assert.NotNil(t, core11.GetPhysicalDeviceProperties2)

	_, err = ins.Core13()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrSymbolsMissing)

	var serr *fault.SymbolsMissingError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, apiver.New(1, 1, 0), serr.Loaded)
	assert.Equal(t, apiver.New(1, 3, 0), serr.Requested)
}

func Test_Instance_PhysicalDevices(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithVersion(apiver.New(1, 3, 0)),
		vkwtest.WithPhysicalDevice(vkwtest.PhysicalDeviceSpec{
			Name:       "discrete-gpu",
			APIVersion: apiver.New(1, 3, 0),
			Extensions: []string{"VK_KHR_swapchain"},
		}),
		vkwtest.WithPhysicalDevice(vkwtest.PhysicalDeviceSpec{
			Name:       "integrated-gpu",
			APIVersion: apiver.New(1, 1, 0),
		}),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)})
	require.NoError(t, err)
	defer ins.Close()

	devices, err := ins.PhysicalDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "discrete-gpu", devices[0].Name())
	assert.Equal(t, apiver.New(1, 3, 0), devices[0].AdvertisedVersion())
	assert.True(t, devices[0].ExtensionSupported(capability.ExtKHRSwapchain))

	assert.Equal(t, "integrated-gpu", devices[1].Name())
	assert.Equal(t, apiver.New(1, 1, 0), devices[1].AdvertisedVersion())
	assert.False(t, devices[1].ExtensionSupported(capability.ExtKHRSwapchain))
}

func Test_Instance_CloseBalancesNativeDestroy(t *testing.T) {
	sim, lib := newLibrary(t)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{})
	require.NoError(t, err)
	ins.Close()

	c := sim.Counters()
	assert.Equal(t, c.InstanceCreates, c.InstanceDestroys)
}

func Test_PhysicalDevice_RequestVersionAboveAdvertisedFails(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithVersion(apiver.New(1, 3, 0)),
		vkwtest.WithPhysicalDevice(vkwtest.PhysicalDeviceSpec{
			Name:       "old-gpu",
			APIVersion: apiver.New(1, 1, 0),
		}),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)})
	require.NoError(t, err)
	defer ins.Close()

	devices, err := ins.PhysicalDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)

	err = devices[0].RequestVersion(apiver.New(1, 3, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrVersionUnsupported)

	require.NoError(t, devices[0].RequestVersion(apiver.New(1, 1, 0)))
	assert.Equal(t, apiver.New(1, 1, 0), devices[0].RequestedVersion())
}

func Test_PhysicalDevice_EnableExtension(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithPhysicalDevice(vkwtest.PhysicalDeviceSpec{
			Name:       "gpu",
			Extensions: []string{"VK_KHR_swapchain"},
		}),
	)

	ins, err := vkw.NewInstance(lib, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)})
	require.NoError(t, err)
	defer ins.Close()

	devices, err := ins.PhysicalDevices()
	require.NoError(t, err)
	phys := devices[0]

	require.NoError(t, phys.EnableExtension(capability.ExtKHRSwapchain))
	require.NoError(t, phys.EnableExtension(capability.ExtKHRSwapchain), "idempotent")
	assert.Len(t, phys.EnabledExtensions(), 1)
	assert.True(t, phys.ExtensionEnabled(capability.ExtKHRSwapchain))

	err = phys.EnableExtension(capability.ExtEXTMemoryBudget)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrExtensionUnsupported)
}
