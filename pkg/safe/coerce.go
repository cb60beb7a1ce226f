// Package safe provides helpers for coercing loosely typed wire values.
package safe

import (
	"encoding/json"

	"github.com/spf13/cast"
)

// Float64 converts numbers, numeric strings and json.Number values to float64.
// It returns def for nil or unconvertible input and never fails.
func Float64(v any, def float64) float64 {
	if v == nil {
		return def
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// Int64 converts numbers, numeric strings and json.Number values to int64.
// Fractional input is truncated toward zero. It returns def for nil or
// unconvertible input and never fails.
func Int64(v any, def int64) int64 {
	if v == nil {
		return def
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
		return def
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return def
		}
		return int64(f)
	}
	return i
}

// String converts v to a string, returning def for nil or unconvertible input.
func String(v any, def string) string {
	if v == nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}
