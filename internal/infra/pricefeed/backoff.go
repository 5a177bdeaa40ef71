package pricefeed

import (
	"math/rand"
	"time"
)

// Backoff drives the reconnect wait between feed connection attempts.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

func DefaultBackoff() Backoff {
	return Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Next returns the wait before the given 1-based attempt, growing
// geometrically from Min to Max with symmetric jitter applied last.
func (b Backoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	wait := b.Min
	for i := 1; i < attempt && wait < b.Max; i++ {
		wait = time.Duration(float64(wait) * b.Factor)
	}
	if wait > b.Max {
		wait = b.Max
	}

	if b.Jitter <= 0 {
		return wait
	}
	delta := float64(wait) * b.Jitter
	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}
