package fraud

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newVerdict() *FraudVerdict {
	return &FraudVerdict{Flags: []string{}}
}

func TestSpamFamilyMatchesRepeatedCharacters(t *testing.T) {
	review := &Review{Title: "great", Content: "soooooo good, really liked it a lot overall"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagSpamPattern)
	assert.Equal(t, pointsSpam, verdict.RiskScore)
}

func TestSpamFamilyMatchesURLInTitle(t *testing.T) {
	review := &Review{Title: "see https://example.com", Content: strings.Repeat("decent content here. ", 4)}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagSpamPattern)
}

func TestSpamFamilyScoresOncePerEvaluation(t *testing.T) {
	// Repeated run, URL and caps run all present: still one hit.
	review := &Review{
		Title:   "WOWWWWWOWWW AMAZINGCONTENT",
		Content: "visit https://spam.example xxxxxxx",
	}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	spamHits := 0
	for _, f := range verdict.Flags {
		if f == FlagSpamPattern {
			spamHits++
		}
	}
	assert.Equal(t, 1, spamHits)
}

func TestLowQualityFamilyMatchesShortContent(t *testing.T) {
	review := &Review{Content: "ok"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagLowQualityContent)
}

func TestLowQualityFamilyMatchesStockReply(t *testing.T) {
	review := &Review{Content: "ottimo!"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagLowQualityContent)
}

func TestLowQualityFamilyCountsRunesNotBytes(t *testing.T) {
	// 15 runes but 18 bytes: still under the minimum length.
	review := &Review{Content: "è già così bene"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagLowQualityContent)
}

func TestLowQualityFamilyMatchesShortTokenPadding(t *testing.T) {
	review := &Review{Content: "ok ok si si top wow ok"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagLowQualityContent)
}

func TestSolicitationFamilyMatchesMessagingApps(t *testing.T) {
	review := &Review{Content: "really nice videos, contact me on telegram for more of this stuff"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagSuspiciousContent)
}

func TestFakePositiveRequiresMaxRating(t *testing.T) {
	content := "questa creator e la migliore in assoluto, niente da aggiungere davvero"

	four := &Review{Content: content, Rating: 4}
	verdictFour := newVerdict()
	applyContentRules(four, verdictFour)
	assert.NotContains(t, verdictFour.Flags, FlagFakePositive)

	five := &Review{Content: content, Rating: MaxRating}
	verdictFive := newVerdict()
	applyContentRules(five, verdictFive)
	assert.Contains(t, verdictFive.Flags, FlagFakePositive)
}

func TestCopyPasteFamilyMatchesTemplateMarkers(t *testing.T) {
	review := &Review{Content: "Lorem ipsum dolor sit amet, consectetur adipiscing elit sed do eiusmod"}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Contains(t, verdict.Flags, FlagCopyPaste)
	assert.GreaterOrEqual(t, verdict.RiskScore, pointsCopyPaste)
}

func TestCleanContentRaisesNoFlags(t *testing.T) {
	review := &Review{
		Title:   "Valid experience overall",
		Content: "La frequenza di pubblicazione e costante e i contenuti sono curati nel dettaglio.",
		Rating:  4,
	}
	verdict := newVerdict()

	applyContentRules(review, verdict)

	assert.Empty(t, verdict.Flags)
	assert.Zero(t, verdict.RiskScore)
}

func TestSentimentMismatchHighRatingNegativeContent(t *testing.T) {
	review := &Review{
		Content: "honestly a scam, terrible uploads and awful interaction with subscribers",
		Rating:  5,
	}
	assert.True(t, sentimentMismatch(review))
}

func TestSentimentMismatchLowRatingPositiveContent(t *testing.T) {
	review := &Review{
		Content: "amazing content, excellent quality and perfect communication every time",
		Rating:  1,
	}
	assert.True(t, sentimentMismatch(review))
}

func TestSentimentMatchingDirectionDoesNotFlag(t *testing.T) {
	review := &Review{
		Content: "amazing content, excellent quality and great communication",
		Rating:  5,
	}
	assert.False(t, sentimentMismatch(review))

	review = &Review{
		Content: "terrible experience, total scam",
		Rating:  1,
	}
	assert.False(t, sentimentMismatch(review))
}

func TestHasRepeatedRun(t *testing.T) {
	assert.True(t, hasRepeatedRun("aaaaa", 5))
	assert.True(t, hasRepeatedRun("xxaaaaaxx", 5))
	assert.False(t, hasRepeatedRun("aaaa", 5))
	assert.False(t, hasRepeatedRun("abababab", 5))
	assert.False(t, hasRepeatedRun("", 5))
}
