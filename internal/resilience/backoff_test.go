package resilience

import (
	"testing"
	"time"
)

func TestBackoffBounds(t *testing.T) {
	base := 1 * time.Second
	max := 10 * time.Second

	for attempt := 1; attempt <= 10; attempt++ {
		for i := 0; i < 50; i++ {
			d := Backoff(attempt, base, max, 2.0)
			if d < 0 {
				t.Fatalf("attempt %d: negative delay %v", attempt, d)
			}
			if limit := time.Duration(float64(max) * 1.25); d > limit {
				t.Fatalf("attempt %d: delay %v exceeds %v", attempt, d, limit)
			}
		}
	}
}

func TestBackoffJitterWindow(t *testing.T) {
	base := 1 * time.Second
	max := 60 * time.Second

	// Midpoints before jitter: 1s, 2s, 4s, 8s...
	for attempt := 1; attempt <= 5; attempt++ {
		mid := base << (attempt - 1)
		lo := time.Duration(float64(mid) * 0.75)
		hi := time.Duration(float64(mid) * 1.25)

		for i := 0; i < 50; i++ {
			d := Backoff(attempt, base, max, 2.0)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside jitter window [%v, %v]",
					attempt, d, lo, hi)
			}
		}
	}
}

func TestBackoffMidpointNonDecreasing(t *testing.T) {
	base := 100 * time.Millisecond
	max := 5 * time.Second

	prev := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		// Average out the jitter to approximate the midpoint.
		var total time.Duration
		const samples = 200
		for i := 0; i < samples; i++ {
			total += Backoff(attempt, base, max, 2.0)
		}
		avg := total / samples

		// Allow slack for sampling noise.
		if avg < prev-prev/10 {
			t.Fatalf("attempt %d: average delay %v dropped below previous %v", attempt, avg, prev)
		}
		prev = avg
	}
}

func TestBackoffClampsAtMax(t *testing.T) {
	base := 1 * time.Second
	max := 2 * time.Second

	// Attempt 10 would be 512s unclamped; every sample must stay within
	// the jittered window around max.
	for i := 0; i < 50; i++ {
		d := Backoff(10, base, max, 2.0)
		lo := time.Duration(float64(max) * 0.75)
		hi := time.Duration(float64(max) * 1.25)
		if d < lo || d > hi {
			t.Fatalf("clamped delay %v outside [%v, %v]", d, lo, hi)
		}
	}
}

func TestBackoffAttemptFloor(t *testing.T) {
	// Attempt values below 1 behave like attempt 1.
	d := Backoff(0, time.Second, 10*time.Second, 2.0)
	if d > time.Duration(float64(time.Second)*1.25) {
		t.Errorf("attempt 0 delay %v larger than first-attempt window", d)
	}
}
