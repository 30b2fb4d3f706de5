// Package match decides whether a posting title contains one of the target
// titles of a run.
package match

import (
	"strings"

	"jobsearch-engine/internal/domain"
)

// Normalize applies the same folding used for target titles.
func Normalize(raw string) string {
	return domain.NormalizeTitle(raw)
}

// Title reports the first target, in configured order, that occurs as a
// contiguous substring of the normalized raw title.
func Title(raw string, targets []domain.TargetTitle) (domain.TargetTitle, bool) {
	if len(targets) == 0 {
		return "", false
	}
	n := Normalize(raw)
	if n == "" {
		return "", false
	}
	for _, t := range targets {
		if t == "" {
			continue
		}
		if strings.Contains(n, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Postings matches every posting in adapter order and keeps the hits.
func Postings(postings []domain.RawPosting, targets []domain.TargetTitle) []domain.MatchedPosting {
	var out []domain.MatchedPosting
	for _, p := range postings {
		if t, ok := Title(p.Title, targets); ok {
			out = append(out, domain.MatchedPosting{RawPosting: p, Target: t})
		}
	}
	return out
}
