package scoring

import "strings"

// Lexical signals that a post is inviting replies. No ML here on purpose:
// openness is cheap to compute and easy to reason about.
const (
	opennessBaseline     = 0.05
	questionMarkBonus    = 0.25
	whQuestionBonus      = 0.25
	hedgeWordBonus       = 0.15
	authorReplyRateBonus = 0.10
)

var whWords = []string{"who", "what", "when", "where", "why", "how", "which"}

var hedgeWords = []string{
	"maybe",
	"perhaps",
	"might",
	"possibly",
	"not sure",
	"wondering",
	"curious",
	"anyone else",
	"any advice",
	"thoughts?",
}

// Openness estimates how much a post invites conversation, from lexical
// cues alone.
func Openness(text string) float64 {
	return opennessWithHistory(text, false)
}

// OpennessWithReplyHistory is Openness plus a small bonus when the author is
// known to reply to comments. Used only when that signal is available.
func OpennessWithReplyHistory(text string, authorReplies bool) float64 {
	return opennessWithHistory(text, authorReplies)
}

func opennessWithHistory(text string, authorReplies bool) float64 {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	score := opennessBaseline
	if strings.HasSuffix(trimmed, "?") {
		score += questionMarkBonus
	}
	for _, wh := range whWords {
		if strings.HasPrefix(lower, wh+" ") || lower == wh {
			score += whQuestionBonus
			break
		}
	}
	for _, hedge := range hedgeWords {
		if strings.Contains(lower, hedge) {
			score += hedgeWordBonus
			break
		}
	}
	if authorReplies {
		score += authorReplyRateBonus
	}
	return clamp01(score)
}
