// Package match implements title normalization and approximate string
// matching for guess scoring: a canonicalizer, a Levenshtein distance with
// a length-scaled acceptance threshold, and a BK-tree index for
// nearest-title lookups over larger catalogs.
package match

import "strings"

// Normalize canonicalizes a title for comparison: uppercases the input and
// strips every character outside [A-Z0-9]. Deterministic and total; empty
// input yields the empty string. Both answers and guesses pass through here,
// so comparisons are case-, punctuation-, and spacing-insensitive.
func Normalize(title string) string {
	upper := strings.ToUpper(title)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
