// Package strutil provides string helpers shared by the ai packages.
package strutil

import "strings"

// Truncate cuts s to at most maxLen runes and appends "..." when it cut.
// It returns "" for maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Preview collapses whitespace runs to single spaces and truncates, for log fields.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
