package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Field describes one configuration key.
type Field struct {
	Type        Type
	Default     any
	Description string
}

// Shape is the configuration shape of a factory: configuration keys mapped to fields.
type Shape map[string]Field

// Keys returns the configuration keys in lexical order.
func (s Shape) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the default configuration data of the shape.
// Fields without a default are omitted.
func (s Shape) Defaults() map[string]any {
	out := make(map[string]any, len(s))
	for k, f := range s {
		if f.Default != nil {
			out[k] = f.Default
		}
	}
	return out
}

// Complete returns a copy of data where missing keys hold their default value. Every value
// is normalized to the type of its field (see Normalize); keys outside the shape are
// normalized as untyped.
func (s Shape) Complete(data map[string]any) map[string]any {
	out := s.Defaults()
	maps.Copy(out, data)
	for k, v := range out {
		out[k] = Normalize(s[k].Type, v)
	}
	return out
}

// Validate checks data against the shape. Every key of the shape without a default must be
// present, every present key must conform to its type, and keys outside the shape are
// rejected. An empty shape accepts any data.
func Validate(shape Shape, data map[string]any) error {
	if len(shape) == 0 {
		return nil
	}

	var errs []error
	for _, key := range shape.Keys() {
		field := shape[key]
		value, exists := data[key]
		if !exists {
			if field.Default == nil {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		typ := field.Type
		if typ == nil {
			typ = Any()
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	unknown := make([]string, 0)
	for key := range data {
		if _, ok := shape[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, &ValidationError{Key: key, Reason: "not defined in configuration shape", Value: data[key]})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

type fieldJSON struct {
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MarshalJSON serializes the shape with type expressions in place of types.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw := make(map[string]fieldJSON, len(s))
	for key, f := range s {
		name := "any"
		if f.Type != nil {
			name = f.Type.Name()
		}
		raw[key] = fieldJSON{Type: name, Default: f.Default, Description: f.Description}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON parses a shape serialized by MarshalJSON.
func (s *Shape) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var raw map[string]fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Shape, len(raw))
	for key, f := range raw {
		typ, err := ParseType(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		out[key] = Field{Type: typ, Default: f.Default, Description: f.Description}
	}
	*s = out
	return nil
}
