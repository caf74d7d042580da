package generation

import (
	"context"
	"sync"
	"time"
)

// SlidingWindowLimiter admits at most maxCalls within any rolling window.
// It tracks the timestamp of each admitted call; when the window is full,
// Wait sleeps until the oldest call ages out. The timestamp list is the only
// shared state and is mutex-guarded.
type SlidingWindowLimiter struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls []time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSlidingWindowLimiter(maxCalls int, window time.Duration) *SlidingWindowLimiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until a call slot is available, then records the call.
// The sleep is cooperative; cancellation of ctx aborts the wait.
func (l *SlidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow reports how many recorded calls are inside the current window.
func (l *SlidingWindowLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := 0
	for _, ts := range l.calls {
		if ts.After(cutoff) {
			l.calls[keep] = ts
			keep++
		}
	}
	l.calls = l.calls[:keep]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
