// Package utils provides small, domain-free helpers shared across layers.
package utils

import "strconv"

// AtoiDefault converts a string to an int, returning def when the string is
// empty or not a valid integer. The HTTP layer uses it for the catalog's
// page/limit query parameters and for numeric path parameters, where a
// malformed value should degrade to the default rather than error.
//
// Values are not trimmed; callers pass raw query strings.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
