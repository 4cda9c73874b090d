// Package config loads declarative instance requests from YAML files. A
// loaded document is validated against the generated JSON schema before any
// name is resolved, so malformed files fail as schema errors rather than as
// surprising capability faults at negotiation time.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	jsonschemav5 "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vkw-go/vkw"
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/capability"
)

// InstanceConfig is the declarative form of an instance request.
type InstanceConfig struct {
	Application struct {
		Name    string `json:"name,omitempty" yaml:"name,omitempty"`
		Version string `json:"version,omitempty" yaml:"version,omitempty"`
	} `json:"application,omitempty" yaml:"application,omitempty"`

	Engine struct {
		Name    string `json:"name,omitempty" yaml:"name,omitempty"`
		Version string `json:"version,omitempty" yaml:"version,omitempty"`
	} `json:"engine,omitempty" yaml:"engine,omitempty"`

	// APIVersion is the version to negotiate, e.g. "1.2". Empty means 1.0.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// RuntimeConstraint optionally pins acceptable runtime versions with a
	// semver range, e.g. ">=1.1 <1.4".
	RuntimeConstraint string `json:"runtimeConstraint,omitempty" yaml:"runtimeConstraint,omitempty"`

	Layers     []string `json:"layers,omitempty" yaml:"layers,omitempty"`
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// OptionalExtensions are glob patterns; matching advertised extensions
	// are enabled, the rest are skipped without error.
	OptionalExtensions []string `json:"optionalExtensions,omitempty" yaml:"optionalExtensions,omitempty"`

	NoAutoExtensions bool `json:"noAutoExtensions,omitempty" yaml:"noAutoExtensions,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschemav5.Schema
	schemaErr  error
)

// Schema returns the JSON schema generated from InstanceConfig.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	reflector.ExpandedStruct = true
	s := reflector.Reflect(&InstanceConfig{})
	return json.MarshalIndent(s, "", "  ")
}

func compiledSchema() (*jsonschemav5.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := Schema()
		if err != nil {
			schemaErr = fmt.Errorf("generating config schema: %w", err)
			return
		}
		compiler := jsonschemav5.NewCompiler()
		if err := compiler.AddResource("instance-config.schema.json", strings.NewReader(string(raw))); err != nil {
			schemaErr = fmt.Errorf("adding config schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("instance-config.schema.json")
	})
	return schema, schemaErr
}

// Load decodes and validates one YAML document.
func Load(r io.Reader) (*InstanceConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	jsonRaw, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding config YAML: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(jsonRaw, &doc); err != nil {
		return nil, fmt.Errorf("decoding config document: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cfg InstanceConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads path, confined to its directory.
func LoadFile(path string) (*InstanceConfig, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("opening config directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("opening config %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return Load(file)
}

// CreateInfo resolves the declarative request into a typed one. Unknown
// layer or extension names fail closed.
func (c *InstanceConfig) CreateInfo() (vkw.InstanceCreateInfo, error) {
	var info vkw.InstanceCreateInfo

	info.ApplicationName = c.Application.Name
	info.EngineName = c.Engine.Name

	var err error
	if c.Application.Version != "" {
		if info.ApplicationVersion, err = apiver.Parse(c.Application.Version); err != nil {
			return vkw.InstanceCreateInfo{}, err
		}
	}
	if c.Engine.Version != "" {
		if info.EngineVersion, err = apiver.Parse(c.Engine.Version); err != nil {
			return vkw.InstanceCreateInfo{}, err
		}
	}
	if c.APIVersion != "" {
		if info.APIVersion, err = apiver.Parse(c.APIVersion); err != nil {
			return vkw.InstanceCreateInfo{}, err
		}
	}

	for _, name := range c.Layers {
		id, err := capability.LayerByName(name)
		if err != nil {
			return vkw.InstanceCreateInfo{}, err
		}
		info.Layers = append(info.Layers, id)
	}
	for _, name := range c.Extensions {
		id, err := capability.ExtByName(name)
		if err != nil {
			return vkw.InstanceCreateInfo{}, err
		}
		info.Extensions = append(info.Extensions, id)
	}

	info.OptionalExtensionPatterns = append([]string(nil), c.OptionalExtensions...)
	info.DisableAutoExtensions = c.NoAutoExtensions
	return info, nil
}

// CheckRuntime applies the optional runtime constraint to an advertised
// version.
func (c *InstanceConfig) CheckRuntime(advertised apiver.Version) error {
	if c.RuntimeConstraint == "" {
		return nil
	}
	ok, err := advertised.Satisfies(c.RuntimeConstraint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("runtime version %s does not satisfy constraint %q", advertised, c.RuntimeConstraint)
	}
	return nil
}
