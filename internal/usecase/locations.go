package usecase

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// similarityCutoff is the minimum sequence-matcher ratio for a fuzzy match:
// at least half the characters have to align.
const similarityCutoff = 0.5

// ResolveLocation matches free-text input against known group keys. Exact
// case-insensitive matches win; otherwise the best candidate at or above the
// similarity cutoff is returned, ties broken by first occurrence in the
// candidate slice. Returns false when nothing clears the cutoff.
func ResolveLocation(freeText string, candidates []string) (string, bool) {
	needle := strings.TrimSpace(freeText)
	if needle == "" || len(candidates) == 0 {
		return "", false
	}

	lower := strings.ToLower(needle)
	for _, c := range candidates {
		if strings.ToLower(c) == lower {
			return c, true
		}
	}

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := similarity(lower, strings.ToLower(c))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= similarityCutoff {
		return best, true
	}
	return "", false
}

// similarity is the character-level sequence-matcher ratio,
// 2*matches / (len(a)+len(b)).
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
