package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned by Do when every attempt has failed. The
// last attempt's error is wrapped alongside it.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy defines a bounded retry schedule. The same policy is shared
// by the content fetcher, the embedding call site, and the narrative
// regeneration loop instead of each duplicating an ad hoc sleep loop.
type Policy struct {
	MaxAttempts  int           // Total attempts, including the first
	InitialDelay time.Duration // Wait before the second attempt
	Multiplier   float64       // Applied to the delay after each attempt
	MaxDelay     time.Duration // Cap on any single wait
}

// Default returns the schedule used across the pipeline: three
// attempts with a short, gently growing delay.
func Default() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   1.5,
		MaxDelay:     30 * time.Second,
	}
}

// Delay computes the wait after the given zero-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds or the policy is exhausted, sleeping
// between attempts. Context cancellation interrupts the wait and is
// returned as-is.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(p.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
