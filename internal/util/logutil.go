// Package util holds small text helpers shared by the search components.
package util

import "strings"

// CollapseSpaces trims s and replaces every run of whitespace, newlines included, with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateForLog flattens s onto one line and shortens it to limit runes,
// appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = CollapseSpaces(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
