package scoring

import "prospector/internal/gate"

// Author quality tiers. Blacklist wins over whitelist.
const (
	authorBlacklisted = 0.0
	authorWhitelisted = 0.9
	authorUnknown     = 0.6
)

// AuthorQuality scores an author handle against the configured lists.
// Comparison is case-insensitive with a leading "@" stripped.
func AuthorQuality(handle string, whitelist, blacklist []string) float64 {
	normalized := gate.NormalizeHandle(handle)
	for _, blocked := range blacklist {
		if gate.NormalizeHandle(blocked) == normalized {
			return authorBlacklisted
		}
	}
	for _, trusted := range whitelist {
		if gate.NormalizeHandle(trusted) == normalized {
			return authorWhitelisted
		}
	}
	return authorUnknown
}
