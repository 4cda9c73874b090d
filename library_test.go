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

func newLibrary(t *testing.T, opts ...vkwtest.Option) (*vkwtest.Sim, *vkw.Library) {
	t.Helper()
	sim := vkwtest.NewSim(opts...)
	lib, err := vkw.NewLibrary(sim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return sim, lib
}

func Test_NewLibrary_EnumeratesRuntime(t *testing.T) {
	_, lib := newLibrary(t,
		vkwtest.WithVersion(apiver.New(1, 3, 280)),
		vkwtest.WithLayer("VK_LAYER_KHRONOS_validation", "VK_EXT_debug_utils"),
		vkwtest.WithExtensions("VK_KHR_surface"),
	)

	assert.Equal(t, apiver.New(1, 3, 280), lib.Version())
	assert.True(t, lib.HasLayer(capability.LayerKhronosValidation))
	assert.False(t, lib.HasLayer(capability.LayerLunargMonitor))
	assert.True(t, lib.HasExtension(capability.ExtKHRSurface))
	assert.True(t, lib.HasExtension(capability.ExtEXTDebugUtils),
		"layer-contributed extensions count as advertised")
	assert.False(t, lib.HasExtension(capability.ExtKHRSwapchain))

	assert.Len(t, lib.Layers(), 1)
	assert.Len(t, lib.Extensions(), 2)
}

func Test_NewLibrary_BareRuntimeHasEmptySets(t *testing.T) {
	_, lib := newLibrary(t)

	assert.Empty(t, lib.Layers())
	assert.Empty(t, lib.Extensions())
}

func Test_NewLibrary_Pre11RuntimeAdvertisesBaseline(t *testing.T) {
	// A 1.0 runtime does not export the version query; its absence pins the
	// advertised version to 1.0.0.
	_, lib := newLibrary(t, vkwtest.WithVersion(apiver.New(1, 0, 0)))
	assert.Equal(t, apiver.New(1, 0, 0), lib.Version())
}

func Test_NewLibrary_MissingRootSymbol(t *testing.T) {
	sim := vkwtest.NewSim(vkwtest.WithoutSymbol("vkGetInstanceProcAddr"))

	_, err := vkw.NewLibrary(sim)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrLoad)
}

func Test_NewLibrary_MissingRequiredSymbol(t *testing.T) {
	sim := vkwtest.NewSim(vkwtest.WithoutSymbol("vkCreateInstance"))

	_, err := vkw.NewLibrary(sim)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrLoad)

	var loadErr *fault.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "vkCreateInstance", loadErr.Symbol)
}

func Test_Library_LayerQuery(t *testing.T) {
	_, lib := newLibrary(t, vkwtest.WithLayer("VK_LAYER_KHRONOS_validation"))

	props, err := lib.Layer(capability.LayerKhronosValidation)
	require.NoError(t, err)
	assert.Equal(t, "VK_LAYER_KHRONOS_validation", props.Name())

	_, err = lib.Layer(capability.LayerLunargAPIDump)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrLayerMissing)
}

func Test_Library_ExtensionQuery(t *testing.T) {
	_, lib := newLibrary(t, vkwtest.WithExtensions("VK_KHR_surface"))

	props, err := lib.Extension(capability.ExtKHRSurface)
	require.NoError(t, err)
	assert.Equal(t, "VK_KHR_surface", props.Name())

	_, err = lib.Extension(capability.ExtKHRDisplay)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrExtensionMissing)
}

func Test_Library_CloseIsIdempotent(t *testing.T) {
	sim := vkwtest.NewSim()
	lib, err := vkw.NewLibrary(sim)
	require.NoError(t, err)

	require.NoError(t, lib.Close())
	require.NoError(t, lib.Close())
	assert.Equal(t, 1, sim.Counters().LoaderCloses)
}
