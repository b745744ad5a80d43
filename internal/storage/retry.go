package storage

import (
	"context"
	"time"

	"ammcore/internal/model"
)

// Retrying wraps a Storage and retries failed saves with exponential backoff.
// Snapshots carry a ledger tail, so a save that ultimately fails must still be
// surfaced: the caller decides whether to re-snapshot or alert.
type Retrying struct {
	inner      Storage
	maxRetries int
	baseDelay  time.Duration
}

// WithRetry decorates inner with up to maxRetries additional attempts.
func WithRetry(inner Storage, maxRetries int, baseDelay time.Duration) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &Retrying{inner: inner, maxRetries: maxRetries, baseDelay: baseDelay}
}

// SaveSnapshot attempts the wrapped save, backing off between failures.
func (r *Retrying) SaveSnapshot(ctx context.Context, snap model.EngineSnapshot) error {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		err := r.inner.SaveSnapshot(ctx, snap)
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
