package persistence

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Value is the generic structured form of a decoded snapshot: a tagged
// scalar, sequence, or mapping. Field access never panics; missing or
// mistyped fields fall back to caller-supplied defaults, so the
// reconstructor states its defaults explicitly instead of scattering
// presence checks.
type Value struct {
	v any
}

// DecodeBody parses a snapshot body (header already stripped) into a Value.
// Malformed grammar and a non-mapping top level both report ErrCorruptSnapshot.
func DecodeBody(body []byte) (Value, error) {
	var raw any
	if err := yaml.Unmarshal(body, &raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	top := Value{v: raw}
	if !top.IsMapping() {
		return Value{}, fmt.Errorf("%w: top-level value is not a mapping", ErrCorruptSnapshot)
	}
	return top, nil
}

// IsMapping reports whether the value is a mapping.
func (val Value) IsMapping() bool {
	_, ok := val.v.(map[string]any)
	return ok
}

// IsNil reports whether the value is absent.
func (val Value) IsNil() bool {
	return val.v == nil
}

// Field returns the named entry of a mapping, or a nil Value.
func (val Value) Field(key string) Value {
	m, ok := val.v.(map[string]any)
	if !ok {
		return Value{}
	}
	return Value{v: m[key]}
}

// Seq returns the elements of a sequence, or nil for anything else.
func (val Value) Seq() []Value {
	s, ok := val.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Value, len(s))
	for i, e := range s {
		out[i] = Value{v: e}
	}
	return out
}

// Str returns the scalar as a string, or def.
func (val Value) Str(def string) string {
	if s, ok := val.v.(string); ok {
		return s
	}
	return def
}

// Float returns the scalar as a float64, or def.
func (val Value) Float(def float64) float64 {
	switch n := val.v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return def
}

// Int returns the scalar as an int64, or def. Fractional values truncate.
func (val Value) Int(def int64) int64 {
	switch n := val.v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return def
}

// Uint returns the scalar as a uint64, flooring negatives at zero, or def.
func (val Value) Uint(def uint64) uint64 {
	n, ok := val.intval()
	if !ok {
		return def
	}
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// OptUint returns the scalar as a uint64 and whether it was present.
func (val Value) OptUint() (uint64, bool) {
	n, ok := val.intval()
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

// Bool returns the scalar as a bool, or def.
func (val Value) Bool(def bool) bool {
	if b, ok := val.v.(bool); ok {
		return b
	}
	return def
}

func (val Value) intval() (int64, bool) {
	switch n := val.v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
