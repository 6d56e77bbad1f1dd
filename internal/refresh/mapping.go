package refresh

import (
	"fmt"
	"strings"

	"notifyplex/internal/services"
	"notifyplex/internal/textutil"
)

// MappingEntry maps one NZBGet category to one section title.
type MappingEntry struct {
	Category string
	Title    string
}

// ParseMapping parses "category:Section Title" pairs separated by commas.
// Pairs split on the first colon so titles may contain colons. Blank pairs
// are skipped and a pair without a colon is a configuration error.
func ParseMapping(raw string) ([]MappingEntry, error) {
	var entries []MappingEntry
	for _, pair := range textutil.SplitList(raw) {
		category, title, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "refresh", "advanced",
				fmt.Sprintf("malformed mapping entry %q (expected category:Section Title)", pair), nil)
		}
		category = strings.TrimSpace(category)
		title = strings.TrimSpace(title)
		if category == "" && title == "" {
			continue
		}
		entries = append(entries, MappingEntry{Category: category, Title: title})
	}
	return entries, nil
}
