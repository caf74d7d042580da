package generation

import (
	"regexp"
	"strings"
)

// Suggestion acceptance bounds. Shorter reads as throwaway, longer stops
// being a reply and starts being a post.
const (
	minSuggestionLen = 30
	maxSuggestionLen = 120
)

// A generic phrase is tolerated only inside a long suggestion where it is a
// small fraction of otherwise substantive text.
const (
	genericTolerableLen     = 90
	genericMaxShareQuotient = 4 // phrase must be < 1/4 of the suggestion
	maxEchoOverlap          = 0.5
)

var genericPhrases = []string{
	"great post",
	"thanks for sharing",
	"love this",
	"so true",
	"well said",
	"couldn't agree more",
	"this is the way",
	"nice post",
	"interesting take",
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"my": {}, "your": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"not": {}, "no": {}, "so": {}, "as": {}, "about": {}, "what": {}, "how": {},
}

var tokenRe = regexp.MustCompile(`[a-z0-9']+`)

// CheckQuality decides whether a single generated suggestion is acceptable
// as a reply to sourceText. Returns the rejection reason on failure.
func CheckQuality(suggestion, sourceText string) (bool, string) {
	trimmed := strings.TrimSpace(suggestion)
	if len(trimmed) < minSuggestionLen {
		return false, "too short"
	}
	if len(trimmed) > maxSuggestionLen {
		return false, "too long"
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range genericPhrases {
		if !strings.Contains(lower, phrase) {
			continue
		}
		if len(trimmed) >= genericTolerableLen && len(phrase)*genericMaxShareQuotient < len(trimmed) {
			continue
		}
		return false, "generic phrase: " + phrase
	}

	if echoOverlap(trimmed, sourceText) > maxEchoOverlap {
		return false, "echoes the source post"
	}

	return true, ""
}

// echoOverlap is the fraction of the suggestion's non-stopword tokens that
// also appear in the source post. High overlap means the reply just mirrors
// the post back.
func echoOverlap(suggestion, source string) float64 {
	suggestionTokens := contentTokens(suggestion)
	if len(suggestionTokens) == 0 {
		return 1.0
	}
	sourceSet := make(map[string]struct{})
	for _, token := range contentTokens(source) {
		sourceSet[token] = struct{}{}
	}
	var shared int
	for _, token := range suggestionTokens {
		if _, ok := sourceSet[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(suggestionTokens))
}

func contentTokens(text string) []string {
	var tokens []string
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := stopwords[token]; ok {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
