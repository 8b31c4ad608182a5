package utils

import (
	"strings"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// NormalizeAnswer lowercases, trims, and collapses internal whitespace so
// answer comparison is stable across submissions.
func NormalizeAnswer(answer string) string {
	fields := strings.Fields(strings.ToLower(answer))
	return strings.Join(fields, " ")
}

// KeywordOverlap reports the fraction of words in want that appear in got.
// Both inputs are expected to be normalized already. Returns 0 when want is
// empty.
func KeywordOverlap(want, got string) float64 {
	wantWords := strings.Fields(want)
	if len(wantWords) == 0 {
		return 0
	}

	gotWords := make(map[string]bool)
	for _, w := range strings.Fields(got) {
		gotWords[w] = true
	}

	matched := 0
	for _, w := range wantWords {
		if gotWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(wantWords))
}
