package db

import (
	"context"
	"errors"
)

// ErrRetriesExhausted is returned by RetryOnDuplicate when every attempt
// collided with a unique constraint.
var ErrRetriesExhausted = errors.New("retries_exhausted")

// RetryOnDuplicate runs fn up to attempts times, re-running it only while it
// fails with a duplicate key error. fn must be safe to repeat, which in
// practice means it opens its own transaction.
func RetryOnDuplicate(ctx context.Context, attempts int, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !IsDuplicateKeyErr(lastErr) {
			return lastErr
		}
	}
	return errors.Join(ErrRetriesExhausted, lastErr)
}
