// Package resilience provides the timeout, retry and error-classification
// building blocks used when talking to the local signing agent. The agent
// may be absent, slow or restarting at any moment, so every exchange with it
// goes through this package.
package resilience

import (
	"context"
	"time"
)

// Operation is a single unit of work. The package never inspects what the
// operation does, only its outcome.
type Operation func(ctx context.Context) (any, error)

// Defaults applied when a config field is left zero.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
	DefaultMultiplier = 2.0

	defaultTimeoutMessage = "operation timed out"
)

// TimeoutConfig bounds a single operation attempt.
type TimeoutConfig struct {
	Timeout time.Duration
	Message string
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// IsRetryable overrides the default classifier-based predicate.
	IsRetryable func(error) bool
	// OnRetry is invoked before each inter-attempt delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.Multiplier <= 1 {
		c.Multiplier = DefaultMultiplier
	}
	if c.IsRetryable == nil {
		c.IsRetryable = IsRetryable
	}
	return c
}

// Config combines timeout and retry settings behind one entry point.
type Config struct {
	Timeout time.Duration
	Message string

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	IsRetryable func(error) bool
	OnRetry     func(attempt int, err error, delay time.Duration)

	EnableTimeout bool
	EnableRetry   bool
}

// DefaultConfig returns the settings used for agent exchanges. Callers adjust
// individual fields rather than building a Config from scratch, so both
// wrappers stay enabled unless switched off deliberately.
func DefaultConfig() Config {
	return Config{
		Timeout:       DefaultTimeout,
		Message:       defaultTimeoutMessage,
		MaxRetries:    DefaultMaxRetries,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		Multiplier:    DefaultMultiplier,
		EnableTimeout: true,
		EnableRetry:   true,
	}
}

func (c Config) timeoutConfig() TimeoutConfig {
	return TimeoutConfig{Timeout: c.Timeout, Message: c.Message}
}

func (c Config) retryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  c.MaxRetries,
		BaseDelay:   c.BaseDelay,
		MaxDelay:    c.MaxDelay,
		Multiplier:  c.Multiplier,
		IsRetryable: c.IsRetryable,
		OnRetry:     c.OnRetry,
	}
}

// WithResilience executes op through the configured wrappers. The timeout
// applies per attempt, not across all attempts: each retry gets a fresh
// timeout budget. With both wrappers disabled the raw operation runs once.
func WithResilience(ctx context.Context, op Operation, cfg Config) (any, error) {
	effective := op
	if cfg.EnableTimeout {
		inner := effective
		tcfg := cfg.timeoutConfig()
		effective = func(ctx context.Context) (any, error) {
			return WithTimeout(ctx, inner, tcfg)
		}
	}
	if cfg.EnableRetry {
		return WithRetry(ctx, effective, cfg.retryConfig())
	}
	return effective(ctx)
}
