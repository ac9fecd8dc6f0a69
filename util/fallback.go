// util/fallback.go

package util

import (
	"context"
	"errors"
)

// Attempt is one endpoint strategy in an ordered fallback chain. A nil result
// with a nil error means "no data here, try the next one".
type Attempt[T any] func(ctx context.Context) (*T, error)

// WriteAttempt is one write-capable endpoint strategy.
type WriteAttempt func(ctx context.Context) error

// TryInOrder evaluates attempts in order and returns the first non-nil result.
// Failing attempts are skipped. When every attempt fails, the last error is
// returned; when every attempt comes back empty without an error, the result
// is (nil, nil).
func TryInOrder[T any](ctx context.Context, attempts []Attempt[T]) (*T, error) {
	var lastErr error
	for _, attempt := range attempts {
		value, err := attempt(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if value != nil {
			return value, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// TryWrites runs attempts in order and stops at the first success. Unlike
// reads, exhausting every candidate is terminal: the last failure is returned.
func TryWrites(ctx context.Context, attempts []WriteAttempt) error {
	if len(attempts) == 0 {
		return errors.New("no write endpoints to try")
	}

	var lastErr error
	for _, attempt := range attempts {
		if err := attempt(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
