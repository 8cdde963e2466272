// Package values implements the value domains used by the graph store.
//
// Two coercion policies classify and normalize arbitrary Go values:
//
//   - General values (Coerce): nil, bool, int64, float64, string,
//     heterogeneous lists and string-keyed maps. This is the domain of
//     query parameters and intermediate results.
//   - Property values (CoerceProperty): the restricted domain of what may
//     be stored on a node or relationship. Nil is rejected, lists must be
//     homogeneous in their primitive kind, and maps are never allowed.
//
// Both policies normalize every integer kind to int64 (with a signed 64-bit
// range check), every float kind to float64, and byte slices to strings via
// Latin-1 decoding. Coercion is pure: the same input always yields the same
// output and never mutates its argument.
//
// On top of coercion the package provides three containers:
//
//   - Record: an ordered, keyed, immutable tuple of general values.
//   - PropertyRecord: an immutable, key-sorted, structurally hashable
//     property container.
//   - PropertyDict: a mutable property container that treats a nil value
//     and an absent key as the same observable state.
//
// Example:
//
//	props, err := values.NewPropertyDict(map[string]any{
//		"name": "Alice",
//		"age":  30,
//	})
//	if err != nil {
//		return err
//	}
//	props.Set("age", nil) // same as props.Delete("age")
//	fmt.Println(props.Get("age")) // <nil>
package values

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Coercion failures fall into exactly two categories. ErrInvalidType marks a
// value whose Go type has no place in the domain at all (a struct, a channel,
// a map used as a property). ErrInvalidValue marks a value of an accepted
// type that falls outside the domain (an out-of-range integer, a nil
// property, a heterogeneous list). Callers distinguish them with errors.Is.
var (
	ErrInvalidType  = errors.New("invalid type")
	ErrInvalidValue = errors.New("invalid value")
)

// Coerce normalizes v into the general value domain.
//
// Accepted inputs and their normalized forms:
//
//	nil             -> nil
//	bool            -> bool
//	int kinds       -> int64 (range-checked)
//	float kinds     -> float64
//	string          -> string
//	[]byte          -> string (Latin-1 decoded)
//	slices          -> []any, elements coerced recursively
//	map[string]any  -> map[string]any, values coerced recursively
//
// Anything else fails with ErrInvalidType naming the offending Go type.
func Coerce(v any) (any, error) {
	return coerce(v, false)
}

// CoerceProperty normalizes v into the property value domain.
//
// The property domain is the general domain minus nil, maps and nested
// structures, and with the additional constraint that lists must be
// homogeneous: every element must coerce to the same primitive kind
// (bool, int64, float64 or string).
func CoerceProperty(v any) (any, error) {
	return coerce(v, true)
}

func coerce(v any, property bool) (any, error) {
	switch val := v.(type) {
	case nil:
		if property {
			return nil, fmt.Errorf("%w: null is not supported as a property value", ErrInvalidValue)
		}
		return nil, nil
	case bool:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		return coerceUint64(uint64(val))
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return coerceUint64(val)
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		return val, nil
	case []byte:
		return decodeLatin1(val), nil
	case []any:
		return coerceList(val, property)
	case map[string]any:
		if property {
			return nil, fmt.Errorf("%w: maps are not supported as property values", ErrInvalidType)
		}
		return coerceMap(val)
	default:
		// Typed slices ([]string, []int64, ...) arrive here; anything that
		// is not slice-shaped is out of the domain entirely.
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			items := make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			return coerceList(items, property)
		}
		return nil, fmt.Errorf("%w: values of type %T are not supported", ErrInvalidType, v)
	}
}

func coerceUint64(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%w: integer value out of range: %d", ErrInvalidValue, v)
	}
	return int64(v), nil
}

// decodeLatin1 interprets raw bytes as ISO-8859-1 text. Each byte maps
// directly onto the Unicode code point of the same value, so decoding can
// never fail.
func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func coerceList(items []any, property bool) (any, error) {
	out := make([]any, 0, len(items))
	kind := primitiveInvalid
	for _, item := range items {
		coerced, err := coerce(item, property)
		if err != nil {
			return nil, err
		}
		if property {
			k := primitiveKindOf(coerced)
			if k == primitiveInvalid {
				return nil, fmt.Errorf("%w: list properties can only contain primitive values, not %T", ErrInvalidValue, coerced)
			}
			if kind == primitiveInvalid {
				kind = k
			} else if k != kind {
				return nil, fmt.Errorf("%w: list properties must be homogeneous", ErrInvalidValue)
			}
		}
		out = append(out, coerced)
	}
	return out, nil
}

func coerceMap(m map[string]any) (any, error) {
	out := make(map[string]any, len(m))
	for key, value := range m {
		coerced, err := coerce(value, false)
		if err != nil {
			return nil, err
		}
		out[key] = coerced
	}
	return out, nil
}

// primitiveKind identifies the coerced kind of a primitive value, used to
// enforce list homogeneity in the property domain.
type primitiveKind int

const (
	primitiveInvalid primitiveKind = iota
	primitiveBool
	primitiveInt
	primitiveFloat
	primitiveString
)

func primitiveKindOf(v any) primitiveKind {
	switch v.(type) {
	case bool:
		return primitiveBool
	case int64:
		return primitiveInt
	case float64:
		return primitiveFloat
	case string:
		return primitiveString
	default:
		return primitiveInvalid
	}
}
