package feed

import (
	"math/rand/v2"
	"time"
)

// Backoff yields the delay before reconnect attempt n (1-based). Attempts
// are never capped; the policy only shapes the wait.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ConstantBackoff waits the same delay before every reconnect.
type ConstantBackoff struct {
	Delay time.Duration
}

// Next returns Delay regardless of attempt.
func (b ConstantBackoff) Next(int) time.Duration {
	return b.Delay
}

// ExponentialBackoff multiplies the delay by Factor per consecutive failure,
// up to Max, with optional ±Jitter (fraction of the delay).
type ExponentialBackoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// Next returns the delay for the given attempt.
func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	lo := b.Min
	if lo <= 0 {
		lo = 100 * time.Millisecond
	}
	hi := b.Max
	if hi < lo {
		hi = lo
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := lo
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(wait) * factor)
		if next >= hi {
			wait = hi
			break
		}
		wait = next
	}

	if b.Jitter <= 0 {
		return wait
	}
	jitter := min(b.Jitter, 1)
	delta := float64(wait) * jitter
	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}
