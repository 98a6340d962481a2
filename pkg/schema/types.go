package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type validates a configuration value.
type Type interface {
	// Name returns the type expression of the type (e.g. "string", "list(number)").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type numberType struct{}

func (numberType) Name() string { return "number" }

func (numberType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON decoding produces float64 for every number.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got fractional number %v", v)
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string { return "any" }

func (anyType) Validate(any) error { return nil }

type listType struct {
	elem Type
}

func (t listType) Name() string { return "list(" + t.elem.Name() + ")" }

func (t listType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type mapType struct {
	elem Type
}

func (t mapType) Name() string { return "map(" + t.elem.Name() + ")" }

func (t mapType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("expected map with string keys, got %T", value)
	}
	iter := rv.MapRange()
	for iter.Next() {
		if err := t.elem.Validate(iter.Value().Interface()); err != nil {
			return fmt.Errorf("key %q: %w", iter.Key().String(), err)
		}
	}
	return nil
}

// String accepts strings.
func String() Type { return stringType{} }

// Number accepts any numeric value.
func Number() Type { return numberType{} }

// Int accepts integers, including whole float64 values produced by JSON decoding.
func Int() Type { return intType{} }

// Bool accepts booleans.
func Bool() Type { return boolType{} }

// Any accepts every value.
func Any() Type { return anyType{} }

// List accepts slices whose elements all conform to elem.
func List(elem Type) Type { return listType{elem: elem} }

// Map accepts string-keyed maps whose values all conform to elem.
func Map(elem Type) Type { return mapType{elem: elem} }

// ParseType parses a type expression such as "number" or "list(string)".
func ParseType(expr string) (Type, error) {
	expr = strings.TrimSpace(expr)
	if open := strings.IndexByte(expr, '('); open > 0 && strings.HasSuffix(expr, ")") {
		elem, err := ParseType(expr[open+1 : len(expr)-1])
		if err != nil {
			return nil, err
		}
		switch expr[:open] {
		case "list", "set", "tuple":
			return List(elem), nil
		case "map", "object":
			return Map(elem), nil
		default:
			return nil, fmt.Errorf("unsupported type constructor: %s", expr[:open])
		}
	}

	switch expr {
	case "string":
		return String(), nil
	case "number", "float":
		return Number(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	case "any", "":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", expr)
	}
}
