package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
	"github.com/vkw-go/vkw/config"
	"github.com/vkw-go/vkw/fault"
)

const sampleConfig = `
application:
  name: triangle
  version: "0.1.0"
apiVersion: "1.2"
runtimeConstraint: ">=1.1 <1.4"
layers:
  - VK_LAYER_KHRONOS_validation
extensions:
  - VK_EXT_debug_utils
optionalExtensions:
  - "VK_EXT_*"
noAutoExtensions: true
`

func Test_Load_ParsesDocument(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "triangle", cfg.Application.Name)
	assert.Equal(t, "1.2", cfg.APIVersion)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation"}, cfg.Layers)
	assert.Equal(t, []string{"VK_EXT_debug_utils"}, cfg.Extensions)
	assert.True(t, cfg.NoAutoExtensions)
}

func Test_Load_RejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.Load(strings.NewReader("layers: [unterminated"))
	require.Error(t, err)
}

func Test_Load_RejectsWrongTypes(t *testing.T) {
	t.Parallel()

	_, err := config.Load(strings.NewReader("layers: \"not a list\""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func Test_LoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "triangle", cfg.Application.Name)

	_, err = config.LoadFile(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}

func Test_CreateInfo_ResolvesNames(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	info, err := cfg.CreateInfo()
	require.NoError(t, err)

	assert.Equal(t, "triangle", info.ApplicationName)
	assert.Equal(t, apiver.New(0, 1, 0), info.ApplicationVersion)
	assert.Equal(t, apiver.New(1, 2, 0), info.APIVersion)
	assert.Equal(t, []capability.Layer{capability.LayerKhronosValidation}, info.Layers)
	assert.Equal(t, []capability.Ext{capability.ExtEXTDebugUtils}, info.Extensions)
	assert.Equal(t, []string{"VK_EXT_*"}, info.OptionalExtensionPatterns)
	assert.True(t, info.DisableAutoExtensions)
}

func Test_CreateInfo_UnknownNameFailsClosed(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(strings.NewReader("extensions:\n  - VK_NV_made_up\n"))
	require.NoError(t, err)

	_, err = cfg.CreateInfo()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrName)
}

func Test_CreateInfo_BadVersionString(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(strings.NewReader("apiVersion: \"not.a.version\"\n"))
	require.NoError(t, err)

	_, err = cfg.CreateInfo()
	require.Error(t, err)
}

func Test_CheckRuntime(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.NoError(t, cfg.CheckRuntime(apiver.New(1, 2, 0)))
	assert.Error(t, cfg.CheckRuntime(apiver.New(1, 0, 0)))

	var unconstrained config.InstanceConfig
	assert.NoError(t, unconstrained.CheckRuntime(apiver.New(1, 0, 0)))
}

func Test_Schema_Generates(t *testing.T) {
	t.Parallel()

	raw, err := config.Schema()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "apiVersion")
	assert.Contains(t, string(raw), "optionalExtensions")
}
