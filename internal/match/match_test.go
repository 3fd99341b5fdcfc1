package match

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain title", "Inception", "INCEPTION"},
		{"spaces and punctuation", "The Godfather: Part II", "THEGODFATHERPARTII"},
		{"digits kept", "2001: A Space Odyssey", "2001ASPACEODYSSEY"},
		{"only punctuation", "?!...--", ""},
		{"mixed case and symbols", "  wall·e  ", "WALLE"},
		{"already normalized", "PARASITE", "PARASITE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"The Matrix", "Amélie!", "  12 Angry Men  ", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize should be idempotent for %q", in)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"identical", "INCEPTION", "INCEPTION", 0},
		{"single deletion", "INCEPTION", "INCEPTON", 1},
		{"both empty", "", "", 0},
		{"one empty", "", "ABC", 3},
		{"other empty", "ABCD", "", 4},
		{"substitution", "CAT", "CUT", 1},
		{"classic kitten", "KITTEN", "SITTING", 3},
		{"disjoint", "ABC", "XYZ", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Distance(tt.a, tt.b))
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"INCEPTION", "INCEPTON"},
		{"PARASITE", "PARADISE"},
		{"", "MEMENTO"},
		{"A", "AB"},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]))
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	terms := []string{"INCEPTION", "INCEPTON", "PARASITE", "", "MEMENTO"}
	for _, a := range terms {
		for _, b := range terms {
			for _, c := range terms {
				assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c))
			}
		}
	}
}

func TestThreshold(t *testing.T) {
	// ceil(0.2 * 9) = 2 for INCEPTION, floor keeps it at 2
	assert.Equal(t, 2, Threshold(9, 2, 0.2))
	// Short answers keep the floor
	assert.Equal(t, 2, Threshold(3, 2, 0.2))
	assert.Equal(t, 2, Threshold(0, 2, 0.2))
	// Long answers scale: ceil(0.2 * 20) = 4
	assert.Equal(t, 4, Threshold(20, 2, 0.2))
	// ceil rounds up: ceil(0.2 * 11) = 3
	assert.Equal(t, 3, Threshold(11, 2, 0.2))
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(2, 0.2)

	tests := []struct {
		name     string
		guess    string
		answer   string
		correct  bool
		distance int
	}{
		{"exact", "Inception", "INCEPTION", true, 0},
		{"near miss accepted", "INCEPTON", "INCEPTION", true, 1},
		{"punctuation ignored", "the godfather: part ii", "The Godfather Part II", true, 0},
		{"two edits accepted", "INCEPTOIN", "INCEPTION", true, 2},
		{"different film rejected", "PARASITE", "INCEPTION", false, 8},
		{"empty guess rejected", "", "INCEPTION", false, 9},
		{"punctuation only rejected", "?!", "INCEPTION", false, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, distance := m.Match(tt.guess, tt.answer)
			assert.Equal(t, tt.correct, correct)
			assert.Equal(t, tt.distance, distance)
		})
	}
}

func TestMatcher_LongTitleScaling(t *testing.T) {
	m := NewMatcher(2, 0.2)

	// ETERNALSUNSHINEOFTHESPOTLESSMIND is 32 chars, threshold ceil(6.4) = 7
	answer := "Eternal Sunshine of the Spotless Mind"
	correct, distance := m.Match("eternal sunshine of the spotles mind", answer)
	assert.True(t, correct)
	assert.Equal(t, 1, distance)

	correct, _ = m.Match("eternal sunshine", answer)
	assert.False(t, correct)
}

func TestBKTree_InsertAndQuery(t *testing.T) {
	tree := NewBKTree("INCEPTION", "PARASITE", "MEMENTO", "PARADISE", "INTERSTELLAR")
	require.Equal(t, 5, tree.Size())

	// Duplicate insert is a no-op
	tree.Insert("INCEPTION")
	assert.Equal(t, 5, tree.Size())

	results := tree.Query("INCEPTON", 2)
	require.Len(t, results, 1)
	assert.Equal(t, "INCEPTION", results[0].Term)
	assert.Equal(t, 1, results[0].Distance)
}

func TestBKTree_QueryMultipleWithinBound(t *testing.T) {
	tree := NewBKTree("PARASITE", "PARADISE", "PARASITES")

	results := tree.Query("PARASITE", 2)
	terms := make([]string, 0, len(results))
	for _, r := range results {
		terms = append(terms, r.Term)
	}
	sort.Strings(terms)
	assert.Equal(t, []string{"PARADISE", "PARASITE", "PARASITES"}, terms)
}

func TestBKTree_QueryMatchesBruteForce(t *testing.T) {
	terms := []string{
		"INCEPTION", "INTERSTELLAR", "MEMENTO", "PARASITE", "PARADISE",
		"ALIEN", "ALIENS", "SEVEN", "HEAT", "CASABLANCA", "GOODFELLAS",
	}
	tree := NewBKTree(terms...)

	for _, query := range []string{"INCEPTON", "ALIEN", "PARADIS", "ZZZ"} {
		for maxDist := 0; maxDist <= 3; maxDist++ {
			var want []string
			for _, term := range terms {
				if Distance(query, term) <= maxDist {
					want = append(want, term)
				}
			}
			sort.Strings(want)

			var got []string
			for _, r := range tree.Query(query, maxDist) {
				got = append(got, r.Term)
			}
			sort.Strings(got)

			assert.Equal(t, want, got, "query %q maxDist %d", query, maxDist)
		}
	}
}

func TestBKTree_Empty(t *testing.T) {
	tree := &BKTree{}
	assert.Nil(t, tree.Query("ANYTHING", 5))
	assert.Equal(t, 0, tree.Size())
}
