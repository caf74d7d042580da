package llm

import (
	"context"
	"net/http"
	"time"
)

const (
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
)

func shouldRetryStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// doWithRetry executes an HTTP request with exponential backoff. The request
// is rebuilt per attempt so the body is always readable. The returned count
// is how many attempts were actually made, including the final one.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, int, error) {
	var lastResp *http.Response
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, attempts, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build()
		if err != nil {
			return nil, attempts, err
		}
		attempts++
		resp, err := client.Do(req)
		lastResp = resp
		lastErr = err
		if err == nil && !shouldRetryStatus(resp.StatusCode) {
			return resp, attempts, nil
		}
		if resp != nil && attempt < maxRetries {
			_ = resp.Body.Close()
		}
	}

	return lastResp, attempts, lastErr
}
