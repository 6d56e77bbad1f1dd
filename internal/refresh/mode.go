package refresh

import "strings"

// Mode selects the section resolution policy.
type Mode string

const (
	ModeAuto     Mode = "Auto"
	ModeCustom   Mode = "Custom"
	ModeBoth     Mode = "Both"
	ModeAdvanced Mode = "Advanced"
)

// ParseMode maps a configured mode name to a Mode, ignoring case. Unknown or
// empty values resolve to ModeBoth and report false.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "auto":
		return ModeAuto, true
	case "custom":
		return ModeCustom, true
	case "both":
		return ModeBoth, true
	case "advanced":
		return ModeAdvanced, true
	default:
		return ModeBoth, false
	}
}
