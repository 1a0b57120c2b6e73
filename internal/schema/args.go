package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Args is the permissive per-call argument object handed to tool handlers.
// Accessors apply defaults and best-effort type coercion, mirroring the
// kwargs-with-defaults behavior tool schemas only hint at. Unknown keys are
// simply never read.
type Args map[string]interface{}

// ParseArgs decodes raw JSON arguments into an Args map. Nil or empty input
// yields an empty map, not an error.
func ParseArgs(raw json.RawMessage) (Args, error) {
	if len(raw) == 0 {
		return Args{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	return Args(m), nil
}

// Has reports whether the key was supplied at all.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the value under key as a string, or def when absent.
// Numbers and booleans are formatted rather than rejected.
func (a Args) String(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Int returns the value under key as an int, or def when absent or not
// coercible. JSON numbers arrive as float64 and are truncated; numeric
// strings are parsed.
func (a Args) Int(key string, def int) int {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// Float returns the value under key as a float64, or def.
func (a Args) Float(key string, def float64) float64 {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the value under key as a bool, or def. The strings
// "true"/"false" (and friends accepted by strconv.ParseBool) coerce.
func (a Args) Bool(key string, def bool) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// Map returns the value under key as a nested object, or nil.
func (a Args) Map(key string) map[string]interface{} {
	if m, ok := a[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// Strings returns the value under key as a string slice. A single string
// value becomes a one-element slice.
func (a Args) Strings(key string) []string {
	switch t := a[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	}
	return nil
}
