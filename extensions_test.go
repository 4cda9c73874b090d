package vkw_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkw-go/vkw"
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/vkwtest"
)

func Test_Instance_DebugUtilsRequiresEnabledExtension(t *testing.T) {
	_, ins := newInstance(t, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)},
		vkwtest.WithExtensions("VK_EXT_debug_utils"),
	)

	// Advertised but not enabled: the accessor gates on the enabled set.
	_, err := ins.DebugUtils()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrExtensionMissing)
}

func Test_Instance_DebugUtilsTable(t *testing.T) {
	sim, ins := newInstance(t, vkw.InstanceCreateInfo{
		APIVersion: apiver.New(1, 3, 0),
		Extensions: []capability.Ext{capability.ExtEXTDebugUtils},
	}, vkwtest.WithExtensions("VK_EXT_debug_utils"))

	du, err := ins.DebugUtils()
	require.NoError(t, err)

	var messenger driver.Handle
	r := du.CreateDebugUtilsMessengerEXT(ins.Handle(), &vkw.DebugUtilsMessengerCreateData{Severity: 0xf}, &messenger)
	require.Equal(t, vkw.Success, r)
	assert.NotZero(t, messenger)

	r = du.SetDebugUtilsObjectNameEXT(0, &vkw.DebugUtilsObjectNameData{Object: 77, Name: "staging buffer"})
	require.Equal(t, vkw.Success, r)
	name, ok := sim.ObjectName(77)
	require.True(t, ok)
	assert.Equal(t, "staging buffer", name)

	du.DestroyDebugUtilsMessengerEXT(ins.Handle(), messenger)
	c := sim.Counters()
	assert.Equal(t, c.MessengerCreates, c.MessengerDestroys)
}

func Test_Instance_DebugUtilsEnabledButUnresolvedIsLoadError(t *testing.T) {
	_, ins := newInstance(t, vkw.InstanceCreateInfo{
		APIVersion: apiver.New(1, 3, 0),
		Extensions: []capability.Ext{capability.ExtEXTDebugUtils},
	},
		vkwtest.WithExtensions("VK_EXT_debug_utils"),
		vkwtest.WithoutSymbol("vkCreateDebugUtilsMessengerEXT"),
	)

	_, err := ins.DebugUtils()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrLoad)
}

func Test_Device_SwapchainRequiresEnabledExtension(t *testing.T) {
	_, dev := newDevice(t)

	_, err := dev.Swapchain()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrExtensionMissing)
}

func Test_Device_SwapchainTable(t *testing.T) {
	sim, ins := newInstance(t, vkw.InstanceCreateInfo{APIVersion: apiver.New(1, 3, 0)},
		vkwtest.WithPhysicalDevice(vkwtest.PhysicalDeviceSpec{
			Name:       "gpu",
			Extensions: []string{"VK_KHR_swapchain"},
		}),
	)
	phys := firstPhysicalDevice(t, ins)
	require.NoError(t, phys.EnableExtension(capability.ExtKHRSwapchain))

	dev, err := vkw.NewDevice(ins, phys, vkw.DeviceCreateInfo{})
	require.NoError(t, err)
	defer dev.Close()

	sc, err := dev.Swapchain()
	require.NoError(t, err)

	var swapchain driver.Handle
	r := sc.CreateSwapchainKHR(dev.Handle(), &vkw.SwapchainCreateData{MinImageCount: 3, Width: 640, Height: 480}, &swapchain)
	require.Equal(t, vkw.Success, r)

	// Count-then-fill over the swapchain images.
	var count uint32
	require.Equal(t, vkw.Success, sc.GetSwapchainImagesKHR(dev.Handle(), swapchain, &count, nil))
	require.NotZero(t, count)
	images := make([]driver.Handle, count)
	require.Equal(t, vkw.Success, sc.GetSwapchainImagesKHR(dev.Handle(), swapchain, &count, &images[0]))

	var first, second uint32
	require.Equal(t, vkw.Success, sc.AcquireNextImageKHR(dev.Handle(), swapchain, 0, 0, 0, &first))
	require.Equal(t, vkw.Success, sc.AcquireNextImageKHR(dev.Handle(), swapchain, 0, 0, 0, &second))
	assert.NotEqual(t, first, second, "acquisition rotates through the images")

	sc.DestroySwapchainKHR(dev.Handle(), swapchain)
	c := sim.Counters()
	assert.Equal(t, c.SwapchainCreates, c.SwapchainDestroys)
}
