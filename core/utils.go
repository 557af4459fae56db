package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FirstNonEmpty returns the first non-blank string of `ss`.
func FirstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if CleanString(s) != "" {
			return s
		}
	}
	return ""
}
