package resilience

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the delay before the next retry. Attempt is 1-based.
// The exponential curve base*multiplier^(attempt-1) is clamped to max, then
// jittered by ±25% so co-resident clients don't retry in lockstep.
// The result is always within [0, max*1.25].
func Backoff(attempt int, base, max time.Duration, multiplier float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(base) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}

	jitter := delay * 0.25 * (rand.Float64()*2 - 1)
	delay += jitter

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
