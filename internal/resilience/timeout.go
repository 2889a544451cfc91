package resilience

import (
	"context"
	"time"
)

// WithTimeout races op against cfg.Timeout. Whichever settles first wins; a
// losing operation's late result is dropped, not cancelled. Undoing its
// side effects is the caller's responsibility.
func WithTimeout(ctx context.Context, op Operation, cfg TimeoutConfig) (any, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Message == "" {
		cfg.Message = defaultTimeoutMessage
	}

	type outcome struct {
		value any
		err   error
	}

	// Buffered so the goroutine never blocks on a result nobody reads.
	done := make(chan outcome, 1)
	go func() {
		v, err := op(ctx)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return nil, &TimeoutError{Message: cfg.Message, Timeout: cfg.Timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
