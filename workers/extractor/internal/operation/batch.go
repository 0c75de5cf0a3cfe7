package operation

import (
	"context"
	"time"
)

// DefaultInterval is the pause between passes over pending operations.
const DefaultInterval = time.Second

// RunBatch processes every pending operation once per pass and drops the
// finished ones, until none are left. The first error aborts the batch.
// The first pass starts immediately, so submissions happen in input order.
func RunBatch(ctx context.Context, ops []*Operation, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	pending := append([]*Operation(nil), ops...)
	for pass := 0; len(pending) > 0; pass++ {
		if pass > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		remaining := pending[:0]
		for _, op := range pending {
			if err := op.Process(ctx); err != nil {
				return err
			}
			if !op.Done() {
				remaining = append(remaining, op)
			}
		}
		pending = remaining
	}
	return nil
}
