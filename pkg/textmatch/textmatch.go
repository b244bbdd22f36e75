package textmatch

import (
	"strings"
)

// Normalize lowercases the input and strips separators (dots, underscores,
// hyphens, whitespace) along with every other non-alphanumeric rune, so that
// "OnlyFans_Girl" and "onlyfansgirl" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Similarity returns a score in [0,1] comparing two identifiers after
// normalization. Identical normalized forms (including both empty) score 1.0;
// otherwise the score is 1 - levenshtein/maxLen over the normalized runes.
func Similarity(a, b string) float64 {
	normA := Normalize(a)
	normB := Normalize(b)

	if normA == normB {
		return 1.0
	}

	maxLen := len(normA)
	if len(normB) > maxLen {
		maxLen = len(normB)
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein(normA, normB)
	return 1 - float64(distance)/float64(maxLen)
}

// levenshtein computes the classic edit distance using a two-row DP over the
// normalized strings. Inputs are guaranteed ASCII by Normalize, so byte
// indexing is safe here.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j-1], curr[j-1], prev[j]) + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
