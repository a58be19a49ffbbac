package poller

import (
	"context"
	"strings"
	"time"
)

const (
	maxAttempts  = 5
	initialDelay = 500 * time.Millisecond
	maxDelay     = 8 * time.Second
)

// isTransient reports whether err looks like a retryable RPC condition
// per spec.md §4.2: HTTP 429/503, connection reset, timeout, or a "too
// many requests" message.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "503", "reset", "timeout", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry retries fn up to maxAttempts times with exponential backoff
// (500ms → 8s) on transient errors; a non-transient error propagates
// immediately, per spec.md §4.2's backoff policy.
func withRetry(ctx context.Context, fn func() error) error {
	delay := initialDelay
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}
