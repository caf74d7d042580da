package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"prospector/internal/model"
)

// Voice carries the configured persona constraints for generated replies.
type Voice struct {
	Persona    string
	Tone       string
	Avoid      []string
	BrandNotes string
}

const generationSystemPrompt = `You draft reply suggestions for social posts on behalf of a brand account.
Write like a person, not a marketing department. No emoji, no hashtags, no links.
Each reply must stand alone and add something: a sharp question, a concrete tip, or a short first-hand experience.
Respond with ONLY a JSON object with exactly these keys: "question", "value_add", "personal_experience". Each value is one reply of 30-120 characters.`

func buildPrompt(post model.Post, topic string, voice Voice) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Post by @%s:\n%s\n\n", post.AuthorHandle, post.Text)
	if topic != "" {
		fmt.Fprintf(&b, "Matched topic: %s\n", topic)
	}
	if voice.Persona != "" {
		fmt.Fprintf(&b, "Reply persona: %s\n", voice.Persona)
	}
	if voice.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", voice.Tone)
	}
	if len(voice.Avoid) > 0 {
		fmt.Fprintf(&b, "Never mention: %s\n", strings.Join(voice.Avoid, ", "))
	}
	if voice.BrandNotes != "" {
		fmt.Fprintf(&b, "Brand notes: %s\n", voice.BrandNotes)
	}
	return b.String()
}

// parseSuggestions validates the structured response: valid JSON containing
// all three suggestion types with non-empty text. Anything less is a
// terminal parse failure for the post.
func parseSuggestions(text string) (map[model.SuggestionType]string, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	parsed := make(map[model.SuggestionType]string, len(model.SuggestionTypes))
	for _, suggestionType := range model.SuggestionTypes {
		value, ok := raw[string(suggestionType)]
		if !ok || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("response missing required key %q", suggestionType)
		}
		parsed[suggestionType] = strings.TrimSpace(value)
	}
	return parsed, nil
}
