package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// groupConfig is one named group of rule records.
type groupConfig struct {
	Name         string
	Applications []string
	Records      []recordConfig
}

// groupBody is the object form of a group.
type groupBody struct {
	Applications []string       `json:"applications,omitempty" yaml:"applications,omitempty" toml:"applications,omitempty"`
	Rules        []recordConfig `json:"rules" yaml:"rules" toml:"rules"`
}

// recordConfig is a single rule record. A bare string in JSON or YAML is
// shorthand for a record with only Shortcut set.
type recordConfig struct {
	Name         string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Shortcut     string     `json:"shortcut,omitempty" yaml:"shortcut,omitempty" toml:"shortcut,omitempty"`
	Applications []string   `json:"applications,omitempty" yaml:"applications,omitempty" toml:"applications,omitempty"`
	FromKey      *keyConfig `json:"fromKey,omitempty" yaml:"fromKey,omitempty" toml:"fromKey,omitempty"`
	ToKey        *keyConfig `json:"toKey,omitempty" yaml:"toKey,omitempty" toml:"toKey,omitempty"`
}

// keyConfig is the explicit form of one side of a rule.
type keyConfig struct {
	KeyCode     string   `json:"keyCode" yaml:"keyCode" toml:"keyCode"`
	KeyPressed  *bool    `json:"keyPressed,omitempty" yaml:"keyPressed,omitempty" toml:"keyPressed,omitempty"`
	PressedKeys []string `json:"pressedKeys,omitempty" yaml:"pressedKeys,omitempty" toml:"pressedKeys,omitempty"`
}

// recordFields avoids recursion in the custom unmarshalers.
type recordFields recordConfig

// UnmarshalJSON accepts either a compact string or a record object.
func (rc *recordConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*rc = recordConfig{Shortcut: s}
		return nil
	}

	var f recordFields
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("decoding rule record: %w", err)
	}
	*rc = recordConfig(f)
	return nil
}

// UnmarshalYAML accepts either a compact string or a record mapping.
func (rc *recordConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*rc = recordConfig{Shortcut: node.Value}
		return nil
	}

	var f recordFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("decoding rule record at line %d: %w", node.Line, err)
	}
	*rc = recordConfig(f)
	return nil
}
