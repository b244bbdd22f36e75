package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsSeparatorsAndCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"OnlyFans_Girl", "onlyfansgirl"},
		{"bella.rose-99", "bellarose99"},
		{"  Spaced Out  ", "spacedout"},
		{"émoji✨name", "mojiname"},
		{"___", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Normalize(tt.input), "input: %q", tt.input)
	}
}

func TestSimilarityIdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("alessia", "alessia"))
	assert.Equal(t, 1.0, Similarity("OnlyFans_Girl", "onlyfansgirl"))
}

func TestSimilarityBothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("...", "___"))
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alessia rose", "alessia ros"},
		{"bella", "stella"},
		{"short", "a much longer candidate name"},
	}

	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "pair: %v", p)
	}
}

func TestSimilarityEditDistanceOne(t *testing.T) {
	// "alessiarose" vs "alessiaros": distance 1 over 11 chars.
	score := Similarity("Alessia Rose", "Alessia Ros")
	assert.InDelta(t, 1.0-1.0/11.0, score, 1e-9)
	assert.GreaterOrEqual(t, score, 0.8)
}

func TestSimilarityDisjointStrings(t *testing.T) {
	score := Similarity("abc", "xyz")
	assert.InDelta(t, 0.0, score, 1e-9)
}

func TestSimilarityUnequalLengths(t *testing.T) {
	score := Similarity("ab", "abcdefgh")
	// 6 inserts over maxLen 8.
	assert.InDelta(t, 0.25, score, 1e-9)
}

func TestSimilarityBounds(t *testing.T) {
	inputs := []string{"", "a", "alessia", "完全に違う名前", "x_x_x_x", "CAPSLOCK"}
	for _, a := range inputs {
		for _, b := range inputs {
			score := Similarity(a, b)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}
