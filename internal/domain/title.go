package domain

import "strings"

// NormalizeTitle is the key used for duplicate-title detection.
// Examples: "Community Drive" -> "community drive", "  COMMUNITY drive " -> "community drive"
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
