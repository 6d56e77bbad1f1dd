package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of value with surrounding whitespace removed.
func Fold(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Fold().String(value)
}

// EqualFold reports whether a and b are equal after trimming and case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
