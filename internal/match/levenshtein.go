package match

import "math"

// Distance computes the Levenshtein edit distance between two strings:
// single-character inserts, deletes and substitutes at unit cost. Runs in
// O(len(a)*len(b)) time and O(min(len(a),len(b))) space using two rolling rows.
func Distance(a, b string) int {
	// Keep the shorter string in the row dimension
	if len(b) > len(a) {
		a, b = b, a
	}
	la, lb := len(a), len(b)
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			d := del
			if ins < d {
				d = ins
			}
			if sub < d {
				d = sub
			}
			curr[j] = d
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// Threshold returns the acceptance bound for an answer of the given
// normalized length: max(minDistance, ceil(ratio * length)). Tolerance scales
// with title length while the floor keeps short titles forgiving.
func Threshold(length, minDistance int, ratio float64) int {
	scaled := int(math.Ceil(ratio * float64(length)))
	if scaled > minDistance {
		return scaled
	}
	return minDistance
}

// Matcher scores guesses against answers with a configured threshold policy.
type Matcher struct {
	minDistance int
	ratio       float64
}

// NewMatcher creates a Matcher with the given threshold floor and length ratio.
func NewMatcher(minDistance int, ratio float64) *Matcher {
	return &Matcher{minDistance: minDistance, ratio: ratio}
}

// Match normalizes both strings and reports whether the guess is close enough
// to the answer, along with the computed edit distance between the
// normalized forms. An empty normalized guess never matches a non-empty answer.
func (m *Matcher) Match(guess, answer string) (correct bool, distance int) {
	ng := Normalize(guess)
	na := Normalize(answer)
	distance = Distance(ng, na)
	if ng == "" && na != "" {
		return false, distance
	}
	return distance <= Threshold(len(na), m.minDistance, m.ratio), distance
}
