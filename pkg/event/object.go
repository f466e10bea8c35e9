package event

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// Object is a read-only view of the enumerable fields of a host object.
type Object interface {
	// Keys returns the enumerable field names in enumeration order.
	Keys() []string

	// Get returns the field value. Scalars are returned as Go strings, bools
	// and numbers; null and undefined as nil; anything else as an opaque
	// non-scalar value.
	Get(key string) any
}

// Extract copies the scalar fields of obj into a map keyed by the
// PascalCase field name. Nil values, nested objects, functions and
// non-finite numbers are dropped. A nil obj yields an empty map.
func Extract(obj Object) map[string]any {
	fields := make(map[string]any)
	if obj == nil {
		return fields
	}
	for _, key := range obj.Keys() {
		v, ok := scalar(obj.Get(key))
		if !ok {
			continue
		}
		fields[PascalCase(key)] = v
	}
	return fields
}

func scalar(v any) (any, bool) {
	switch v := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, true
	case float32:
		return v, !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return nil, false
	}
}

// PascalCase upper-cases the first rune of name.
func PascalCase(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
