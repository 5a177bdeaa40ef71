package pricefeed

import (
	"testing"
	"time"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{Min: 100 * time.Millisecond, Max: 1 * time.Second, Factor: 2}

	if got := b.Next(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1: expected min, got %v", got)
	}
	if got := b.Next(3); got != 400*time.Millisecond {
		t.Fatalf("attempt 3: expected 400ms, got %v", got)
	}
	if got := b.Next(10); got != time.Second {
		t.Fatalf("attempt 10: expected cap, got %v", got)
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	b := DefaultBackoff()
	for attempt := 1; attempt <= 10; attempt++ {
		wait := b.Next(attempt)
		upper := time.Duration(float64(b.Max) * (1 + b.Jitter))
		if wait <= 0 || wait > upper {
			t.Fatalf("attempt %d: wait %v out of bounds", attempt, wait)
		}
	}
}
