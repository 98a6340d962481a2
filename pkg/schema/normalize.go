package schema

import (
	"encoding/json"
	"math"
	"reflect"
)

// Normalize returns value in the canonical form of typ, so that equal configurations
// compare equal whatever decoder produced them: Int values become int, Number values become
// float64, lists become []any and maps become map[string]any. Untyped numbers become int
// when whole and float64 otherwise. Values that do not conform are returned as they are and
// left to Validate.
func Normalize(typ Type, value any) any {
	switch t := typ.(type) {
	case intType:
		if f, ok := toFloat(value); ok && isWhole(f) {
			return int(f)
		}
		if n, ok := value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
		return value
	case numberType:
		if f, ok := toFloat(value); ok {
			return f
		}
		return value
	case listType:
		return normalizeList(t.elem, value)
	case mapType:
		return normalizeMap(t.elem, value)
	case stringType, boolType:
		return value
	default:
		return normalizeAny(value)
	}
}

func normalizeAny(value any) any {
	switch v := value.(type) {
	case nil, string, bool:
		return v
	case map[string]any:
		return normalizeMap(nil, v)
	case []any:
		return normalizeList(nil, v)
	}
	if f, ok := toFloat(value); ok {
		if isWhole(f) {
			return int(f)
		}
		return f
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return normalizeList(nil, value)
	case reflect.Map:
		return normalizeMap(nil, value)
	}
	return value
}

func normalizeList(elem Type, value any) any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return value
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return value
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalizeElem(elem, rv.Index(i).Interface())
	}
	return out
}

func normalizeMap(elem Type, value any) any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return value
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = normalizeElem(elem, iter.Value().Interface())
	}
	return out
}

func normalizeElem(elem Type, value any) any {
	if elem == nil {
		return normalizeAny(value)
	}
	return Normalize(elem, value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func isWhole(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) <= 1<<53
}
