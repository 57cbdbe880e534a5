// Package normalize provides helper functions for consistent string
// normalization before storage or comparison.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims whitespace and lowercases. This is the canonical form used
// for storage and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace and collapses internal runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps digits and a leading '+'.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Category lowercases and trims a listing category.
func Category(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
