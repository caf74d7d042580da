package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDoWithRetryRetryCount(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := &http.Client{}
	resp, attempts, err := doWithRetry(context.Background(), client, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	defer resp.Body.Close()

	got := atomic.LoadInt32(&count)
	if got != 4 {
		t.Fatalf("expected exactly 4 attempts (3 retries + 1 success), got %d", got)
	}
	if attempts != 4 {
		t.Fatalf("reported attempts = %d, want 4", attempts)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDoWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &http.Client{}
	resp, attempts, err := doWithRetry(context.Background(), client, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	defer resp.Body.Close()

	if attempts != maxRetries+1 {
		t.Fatalf("reported attempts = %d, want %d", attempts, maxRetries+1)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected final 503 to be surfaced, got %d", resp.StatusCode)
	}
	got := atomic.LoadInt32(&count)
	if got != int32(maxRetries)+1 {
		t.Fatalf("expected %d attempts, got %d", maxRetries+1, got)
	}
}

func TestDoWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := &http.Client{}
	resp, attempts, err := doWithRetry(context.Background(), client, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Fatalf("400 should not be retried, got %d attempts", got)
	}
	if attempts != 1 {
		t.Fatalf("reported attempts = %d, want 1", attempts)
	}
}
