// Package gate implements pre-scoring admission control: cheap deterministic
// checks that keep junk away from the embedding and LLM stages.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"prospector/internal/model"
)

// Rules configures the gate. All matching is case-insensitive.
type Rules struct {
	BlacklistKeywords []string
	BlacklistHandles  []string
	RequireEnglish    bool
}

// minSubstantiveChars is the alphanumeric floor for the link-spam check:
// a post that is essentially just a URL with no conversation around it.
const minSubstantiveChars = 50

var (
	urlRe     = regexp.MustCompile(`https?://\S+`)
	mentionRe = regexp.MustCompile(`@\w+`)
	hashtagRe = regexp.MustCompile(`#\w+`)
)

// Check runs the admission checks in order and short-circuits on the first
// failure. Pure, no I/O; identical inputs always yield identical output.
func Check(post model.Post, rules Rules) (bool, string) {
	if rules.RequireEnglish && !strings.EqualFold(post.Language, "en") {
		return false, "non-english language"
	}

	lowerText := strings.ToLower(post.Text)
	for _, keyword := range rules.BlacklistKeywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(keyword)) {
			return false, fmt.Sprintf("blacklist keyword: %s", keyword)
		}
	}

	handle := NormalizeHandle(post.AuthorHandle)
	for _, blocked := range rules.BlacklistHandles {
		if NormalizeHandle(blocked) == handle && handle != "" {
			return false, fmt.Sprintf("blacklisted author: %s", handle)
		}
	}

	if isLinkSpam(post) {
		return false, "link spam"
	}

	return true, ""
}

// NormalizeHandle lowercases a handle and strips a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// isLinkSpam flags posts that contain a URL but carry almost no content of
// their own and have attracted zero replies.
func isLinkSpam(post model.Post) bool {
	if !urlRe.MatchString(post.Text) {
		return false
	}
	if post.Replies > 0 {
		return false
	}
	stripped := urlRe.ReplaceAllString(post.Text, "")
	stripped = mentionRe.ReplaceAllString(stripped, "")
	stripped = hashtagRe.ReplaceAllString(stripped, "")

	var alnum int
	for _, r := range stripped {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			alnum++
		}
	}
	return alnum < minSubstantiveChars
}
