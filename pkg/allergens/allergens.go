// Package allergens handles the comma separated allergen lists exchanged with
// the SafeServe backend and cross-references them against a user's
// dietary restrictions.
package allergens

import "strings"

// Known lists the allergens offered as presets when tagging menu items or
// recording dietary restrictions
var Known = []string{
	"Dairy",
	"Eggs",
	"Fish",
	"Shellfish",
	"Tree Nuts",
	"Peanuts",
	"Wheat",
	"Soy",
	"Gluten",
}

// IsKnown reports whether name is one of Known, matched exactly
func IsKnown(name string) bool {
	for _, k := range Known {
		if k == name {
			return true
		}
	}
	return false
}

// Parse splits a comma separated list, trimming entries and dropping empty ones
func Parse(list string) []string {
	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Join merges preset and custom entries into the wire form.
// Entries are trimmed, empties dropped and duplicates removed keeping the first occurrence.
func Join(known, custom []string) string {
	seen := make(map[string]bool, len(known)+len(custom))
	merged := make([]string, 0, len(known)+len(custom))
	for _, group := range [][]string{known, custom} {
		for _, entry := range group {
			entry = strings.TrimSpace(entry)
			if entry == "" || seen[entry] {
				continue
			}
			seen[entry] = true
			merged = append(merged, entry)
		}
	}
	return strings.Join(merged, ",")
}

// Split partitions entries into presets from Known and free-form custom ones
func Split(entries []string) (known, custom []string) {
	for _, e := range entries {
		if IsKnown(e) {
			known = append(known, e)
		} else {
			custom = append(custom, e)
		}
	}
	return known, custom
}

// Overlap returns the allergens of an item that appear in the user's
// restrictions, compared case-insensitively, in the item's order
func Overlap(item, restrictions []string) []string {
	if len(item) == 0 || len(restrictions) == 0 {
		return nil
	}
	avoid := make(map[string]bool, len(restrictions))
	for _, r := range restrictions {
		avoid[strings.ToLower(strings.TrimSpace(r))] = true
	}

	var warnings []string
	for _, a := range item {
		if avoid[strings.ToLower(strings.TrimSpace(a))] {
			warnings = append(warnings, a)
		}
	}
	return warnings
}
