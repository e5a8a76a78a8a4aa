package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Step describes one module invocation in the playbook DAG. Keys other than
// the common ones below are kept raw and decoded by the module itself.
type Step struct {
	ID        string   `yaml:"id" validate:"required,step_id"`
	Label     string   `yaml:"label,omitempty"`
	Type      string   `yaml:"type" validate:"required,module_type"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Enabled   bool     `yaml:"enabled,omitempty"`

	raw map[string]any
}

var baseStepKeys = map[string]struct{}{
	"id":         {},
	"label":      {},
	"type":       {},
	"depends_on": {},
	"enabled":    {},
}

// UnmarshalYAML splits the common step fields from the module parameters.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID        string   `yaml:"id"`
		Label     string   `yaml:"label"`
		Type      string   `yaml:"type"`
		DependsOn []string `yaml:"depends_on"`
		Enabled   *bool    `yaml:"enabled"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	var all map[string]any
	if err := value.Decode(&all); err != nil {
		return err
	}

	s.ID = base.ID
	s.Label = base.Label
	s.Type = base.Type
	s.DependsOn = append([]string(nil), base.DependsOn...)
	s.Enabled = true
	if base.Enabled != nil {
		s.Enabled = *base.Enabled
	}

	s.raw = make(map[string]any, len(all))
	for key, val := range all {
		if _, common := baseStepKeys[key]; common {
			continue
		}
		s.raw[key] = val
	}

	return nil
}

// MarshalYAML writes the step back in its flat playbook form.
func (s Step) MarshalYAML() (any, error) {
	out := make(map[string]any, len(s.raw)+5)
	for key, val := range s.raw {
		out[key] = val
	}
	out["id"] = s.ID
	out["type"] = s.Type
	if s.Label != "" {
		out["label"] = s.Label
	}
	if len(s.DependsOn) > 0 {
		out["depends_on"] = s.DependsOn
	}
	if !s.Enabled {
		out["enabled"] = false
	}
	return out, nil
}

// RawConfig returns the module parameters as decoded from YAML.
func (s *Step) RawConfig() map[string]any {
	if s == nil || s.raw == nil {
		return map[string]any{}
	}
	return s.raw
}

// DecodeConfig decodes the module parameters into out. Unknown keys are rejected.
func (s *Step) DecodeConfig(out any) error {
	data, err := yaml.Marshal(s.RawConfig())
	if err != nil {
		return fmt.Errorf("encode parameters of step %s: %w", s.ID, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode parameters of step %s: %w", s.ID, err)
	}
	return nil
}

// SetConfig replaces the module parameters. cfg is either a map or a struct
// carrying yaml tags.
func (s *Step) SetConfig(cfg any) error {
	if m, ok := cfg.(map[string]any); ok {
		s.raw = m
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	s.raw = m
	return nil
}
