// Package retry runs an operation under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bingads-extractor/shared/config"
)

// Policy bounds the attempts and the wait between them.
type Policy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// FromConfig converts the environment retry settings into a Policy.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:       cfg.MaxAttempts,
		InitialBackoff:    cfg.InitialBackoff,
		MaxBackoff:        cfg.MaxBackoff,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max attempts (%d) exceeded: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds, returns an error that retryable rejects, or
// the attempts run out. Cancellation while waiting returns ctx.Err().
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// Backoff is InitialBackoff * BackoffMultiplier^attempt, capped at MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	backoff := float64(p.InitialBackoff) * math.Pow(mult, float64(attempt))
	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	return time.Duration(backoff)
}
