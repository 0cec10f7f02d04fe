package effect

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name looked up inside effect directories.
const ManifestFile = "effect.yaml"

// Manifest is a parsed effect definition.
type Manifest struct {
	Name    string                `yaml:"name"`
	Filters []FilterSpec          `yaml:"filters"`
	Audio   []string              `yaml:"audio,omitempty"`
	Methods map[string]MethodSpec `yaml:"methods,omitempty"`
}

// FilterSpec configures one filter.
type FilterSpec struct {
	Type   string  `yaml:"type"`
	Amount float64 `yaml:"amount,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`
}

// MethodSpec binds a scripting method to a filter parameter.
type MethodSpec struct {
	Filter int    `yaml:"filter"`
	Param  string `yaml:"param"`
}

// ParseManifest decodes and validates a manifest. Unknown keys are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks filter types, parameter ranges and method bindings.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	for i, spec := range m.Filters {
		if _, err := newFilter(spec); err != nil {
			return fmt.Errorf("%w: filter %d: %w", ErrInvalidManifest, i, err)
		}
	}
	for name, method := range m.Methods {
		if method.Filter < 0 || method.Filter >= len(m.Filters) {
			return fmt.Errorf("%w: method %s: filter index %d out of range",
				ErrInvalidManifest, name, method.Filter)
		}
		if method.Param != paramAmount && method.Param != paramRadius {
			return fmt.Errorf("%w: method %s: unknown parameter %q",
				ErrInvalidManifest, name, method.Param)
		}
	}
	for _, cue := range m.Audio {
		if strings.TrimSpace(cue) == "" {
			return fmt.Errorf("%w: empty audio cue", ErrInvalidManifest)
		}
	}
	return nil
}
