package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn up to maxRetries+1 times with exponential backoff starting at
// base. fn receives the current attempt number (0-indexed) and should return
// nil on success. If the context is cancelled, Retry returns the context error
// without running further attempts.
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		backoff := base << attempt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
