package model

import (
	"encoding/json"
	"math"
)

// RawEvent is the untyped business document found under the envelope's "message" key.
//
// Every accessor resolves absent or mistyped values to the caller-supplied default,
// so reading a RawEvent can never fail.
type RawEvent map[string]any

// String returns the value under key when it is a JSON string, "" otherwise.
func (e RawEvent) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// OptionalString returns a pointer to the string under key, or nil when absent or not a string.
func (e RawEvent) OptionalString(key string) *string {
	s, ok := e[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Int returns the value under key when it is an integral number, def otherwise.
// Fractional numbers (1.5) are not integers and resolve to def.
func (e RawEvent) Int(key string, def int64) int64 {
	switch v := e[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v)
		}
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	}
	return def
}

// Float returns the value under key when it is any JSON number, def otherwise.
func (e RawEvent) Float(key string, def float64) float64 {
	switch v := e[key].(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	}
	return def
}

// Bool returns the value under key when it is a JSON boolean, def otherwise.
func (e RawEvent) Bool(key string, def bool) bool {
	if b, ok := e[key].(bool); ok {
		return b
	}
	return def
}
