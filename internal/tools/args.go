package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Args are the decoded arguments of a tool call. Numbers arrive as float64
// from JSON.
type Args map[string]any

// Has reports whether key was supplied.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns a string argument, formatting non-string scalars.
func (a Args) String(key, defaultVal string) string {
	if v, ok := a[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

// RequireString returns a non-empty string argument or an error.
func (a Args) RequireString(key string) (string, error) {
	s := a.String(key, "")
	if s == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return s, nil
}

// Int returns an integer argument.
func (a Args) Int(key string, defaultVal int) int {
	if v, ok := a[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i
			}
		}
	}
	return defaultVal
}

// IntPtr returns an integer argument, or nil when it is absent.
func (a Args) IntPtr(key string) *int {
	if !a.Has(key) {
		return nil
	}
	n := a.Int(key, 0)
	return &n
}

// RequireInt returns an integer argument or an error.
func (a Args) RequireInt(key string) (int, error) {
	p := a.IntPtr(key)
	if p == nil {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	return *p, nil
}

// Float returns a numeric argument.
func (a Args) Float(key string, defaultVal float64) float64 {
	if v, ok := a[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return defaultVal
}

// Bool returns a boolean argument.
func (a Args) Bool(key string, defaultVal bool) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// Strings returns a string-list argument. A lone string is a one-element list.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
