package domain

import "strings"

// TargetTitle is a normalized title the run searches for.
type TargetTitle string

// NormalizeTitle lower-cases s, folds non-breaking spaces and collapses
// whitespace runs into single spaces.
func NormalizeTitle(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NewTargets normalizes titles and drops empties and duplicates. The first
// occurrence wins, so configured order is kept for tie-breaks.
func NewTargets(titles []string) []TargetTitle {
	seen := map[string]bool{}
	out := make([]TargetTitle, 0, len(titles))
	for _, t := range titles {
		n := NormalizeTitle(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, TargetTitle(n))
	}
	return out
}
