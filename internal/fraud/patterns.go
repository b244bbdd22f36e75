package fraud

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Flag tags emitted by the pattern rule set
const (
	FlagSpamPattern       = "spam_pattern"
	FlagLowQualityContent = "low_quality_content"
	FlagSuspiciousContent = "suspicious_content"
	FlagFakePositive      = "fake_positive"
	FlagCopyPaste         = "copy_paste"
	FlagSentimentMismatch = "sentiment_mismatch"
)

// Points contributed by each rule family
const (
	pointsSpam              = 25
	pointsLowQuality        = 20
	pointsSolicitation      = 35
	pointsFakePositive      = 15
	pointsCopyPaste         = 40
	pointsSentimentMismatch = 15
)

// ruleFamily is one family of content detectors. Within a family the first
// predicate that matches wins: a family contributes its points and its flag
// at most once per evaluation no matter how many detectors fire.
type ruleFamily struct {
	name   string
	flag   string
	points int
	match  func(r *Review) bool
}

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)\b(spam|fake|test|asdf)\b`),
	regexp.MustCompile(`[A-Z]{10,}`),
	regexp.MustCompile(`(?i)\b(xxx|porno|hardcore gratis)\b`),
}

var lowQualityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(ok|wow|top|bella|buono|ottimo|good|nice|bad|meh)\s*[.!]*\s*$`),
}

var solicitationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(compra ora|buy now|click here|clicca qui)`),
	regexp.MustCompile(`(?i)(guadagna soldi|make money|easy money|soldi facili)`),
	regexp.MustCompile(`(?i)(contattami su|contact me on|scrivimi su|dm me)`),
	regexp.MustCompile(`(?i)\b(telegram|whatsapp|snapchat|kik)\b`),
	regexp.MustCompile(`(?i)(visita il mio profilo|check out my page|seguimi su|follow me on)`),
	regexp.MustCompile(`(?i)(codice sconto|promo code|discount code|sconto del)`),
}

var fakePositivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(migliore in assoluto|best ever|number one|la numero uno)`),
	regexp.MustCompile(`(?i)(perfett[ao] in tutto|absolutely perfect|senza difetti|flawless)`),
	regexp.MustCompile(`(?i)(consiglio a tutti|everyone should subscribe|10/10|cinque stelle garantite)`),
}

var copyPastePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(lorem ipsum|\[insert|\{\{|<insert)`),
	regexp.MustCompile(`(?i)(inserisci qui|esempio di recensione|sample review|copy this review)`),
	regexp.MustCompile(`(?i)(la tua recensione qui|your review here|template)`),
}

var positiveMarkers = []string{
	"ottimo", "fantastico", "stupendo", "bellissimo", "perfetto", "consigliato",
	"great", "amazing", "excellent", "perfect", "love", "wonderful", "best",
}

var negativeMarkers = []string{
	"pessimo", "terribile", "orribile", "truffa", "delusione", "sconsigliato",
	"bad", "awful", "terrible", "scam", "waste", "worst", "disappointing",
}

// contentRuleFamilies is evaluated in order; the order fixes the flag log and
// keeps the point totals auditable. Adding a heuristic is one entry here.
var contentRuleFamilies = []ruleFamily{
	{
		name:   "spam",
		flag:   FlagSpamPattern,
		points: pointsSpam,
		match: func(r *Review) bool {
			if hasRepeatedRun(r.Content, 5) || hasRepeatedRun(r.Title, 5) {
				return true
			}
			for _, p := range spamPatterns {
				if p.MatchString(r.Content) || p.MatchString(r.Title) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "low-quality",
		flag:   FlagLowQualityContent,
		points: pointsLowQuality,
		match: func(r *Review) bool {
			if utf8.RuneCountInString(r.Content) < 16 || isShortTokenPadding(r.Content) {
				return true
			}
			for _, p := range lowQualityPatterns {
				if p.MatchString(r.Content) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "suspicious-solicitation",
		flag:   FlagSuspiciousContent,
		points: pointsSolicitation,
		match: func(r *Review) bool {
			for _, p := range solicitationPatterns {
				if p.MatchString(r.Content) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "fake-positive",
		flag:   FlagFakePositive,
		points: pointsFakePositive,
		match: func(r *Review) bool {
			if r.Rating != MaxRating {
				return false
			}
			for _, p := range fakePositivePatterns {
				if p.MatchString(r.Content) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "copy-paste",
		flag:   FlagCopyPaste,
		points: pointsCopyPaste,
		match: func(r *Review) bool {
			for _, p := range copyPastePatterns {
				if p.MatchString(r.Content) {
					return true
				}
			}
			return false
		},
	},
}

// applyContentRules runs every content rule family against the review and
// accumulates points and flags on the verdict.
func applyContentRules(review *Review, verdict *FraudVerdict) {
	for _, family := range contentRuleFamilies {
		if family.match(review) {
			verdict.addRisk(family.points, family.flag)
		}
	}
}

// sentimentMismatch reports whether the lexical sentiment of the content
// points the opposite way from the numeric rating: a top rating dominated by
// negative markers, or a bottom rating dominated by positive ones.
func sentimentMismatch(review *Review) bool {
	content := strings.ToLower(review.Content)

	var positives, negatives int
	for _, marker := range positiveMarkers {
		positives += strings.Count(content, marker)
	}
	for _, marker := range negativeMarkers {
		negatives += strings.Count(content, marker)
	}

	if review.Rating >= MaxRating-1 && negatives > positives {
		return true
	}
	if review.Rating <= MinRating+1 && positives > negatives {
		return true
	}
	return false
}

// isShortTokenPadding reports whether the content is nothing but a run of
// tiny tokens ("ok ok si si top"), which is filler rather than a review.
func isShortTokenPadding(content string) bool {
	words := strings.Fields(content)
	if len(words) < 5 {
		return false
	}
	for _, w := range words {
		if utf8.RuneCountInString(strings.Trim(w, ".,!?")) > 3 {
			return false
		}
	}
	return true
}

// hasRepeatedRun reports whether the text contains the same rune repeated at
// least n times in a row. Go's RE2 engine has no backreferences, so the
// original (.)\1{4,} pattern is checked by hand.
func hasRepeatedRun(s string, n int) bool {
	var last rune
	run := 0
	for _, r := range s {
		if r == last {
			run++
			if run >= n {
				return true
			}
		} else {
			last = r
			run = 1
		}
	}
	return false
}
