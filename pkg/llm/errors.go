package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify provider failures at the adapter boundary.
// Callers branch on these with errors.Is instead of sniffing message text.
var (
	// ErrRateLimited marks 429/quota conditions. Safe to retry with backoff.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrSafetyBlocked marks content-policy refusals. Never retried.
	ErrSafetyBlocked = errors.New("provider safety blocked")
)

// EmbeddingError is returned when the embedding provider keeps failing after
// all retry attempts; it carries the last underlying error.
type EmbeddingError struct {
	Attempts int
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
