package resilience

import (
	"context"
	"time"
)

// WithRetry invokes op until it succeeds, fails with a non-retryable error,
// or the attempt budget of MaxRetries+1 is spent. Attempts are strictly
// sequential: the next one never starts before the previous outcome is
// resolved and the inter-attempt delay has elapsed. Cancelling ctx during
// the delay terminates the loop with the context's error.
func WithRetry(ctx context.Context, op Operation, cfg RetryConfig) (any, error) {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt > cfg.MaxRetries {
			break
		}
		if !cfg.IsRetryable(err) {
			// Surface the original failure unwrapped: retrying cannot
			// fix an application rejection.
			return nil, err
		}

		delay := Backoff(attempt, cfg.BaseDelay, cfg.MaxDelay, cfg.Multiplier)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &ExhaustedError{Attempts: cfg.MaxRetries + 1, Last: lastErr}
}
