// Package strings holds small string and slice helpers used during wiring
package strings

import std "strings"

// IfEmpty returns def when in is empty
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s if it has non whitespace content, otherwise panics naming what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a route prefix such as /resubmits to one leading slash and no trailing slash
// It panics on the root path
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Compact trims every element and drops the empty ones
func Compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = std.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
