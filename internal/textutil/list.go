package textutil

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+`)

// SplitList splits a comma separated option value, trimming each entry and
// dropping empty ones.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FoldSet builds a lookup set of the folded entries of a comma separated list.
func FoldSet(value string) map[string]struct{} {
	entries := SplitList(value)
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[Fold(entry)] = struct{}{}
	}
	return set
}

// ExtractIntegers returns every distinct run of decimal digits in value, in
// ascending order. Separators of any kind are ignored, so "1, 3,foo5" yields
// [1 3 5]. Runs too large for an int are skipped.
func ExtractIntegers(value string) []int {
	matches := numberPattern.FindAllString(value, -1)
	seen := make(map[int]struct{}, len(matches))
	out := make([]int, 0, len(matches))
	for _, match := range matches {
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
