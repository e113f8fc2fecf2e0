package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for backoff delay algorithms.
type Strategy interface {
	// Delay returns the wait before the next attempt. attempt is 1-based:
	// attempt 1 is the delay after the first failed attempt.
	Delay(attempt int, rng *rand.Rand) time.Duration
}

// Exponential implements the engine's delay rule: a 300ms base doubling per
// attempt, a small additive jitter, and two ceilings applied in order.
type Exponential struct {
	// DisableJitter removes the additive jitter entirely.
	DisableJitter bool

	// Deterministic collapses the jitter range to [0, min(5, max)]ms so
	// seeded runs are reproducible.
	Deterministic bool

	// MaxRetryAfter caps the jittered candidate first, when positive.
	MaxRetryAfter time.Duration

	// Limit caps the base and the jittered candidate, when positive.
	Limit time.Duration
}

const baseDelayMillis = 300

// Delay implements Strategy.
func (s Exponential) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Shift guard: beyond ~30 doublings the base overflows anything useful.
	if attempt > 30 {
		attempt = 30
	}

	baseMs := int64(baseDelayMillis) << uint(attempt-1)
	if s.Limit > 0 && baseMs > s.Limit.Milliseconds() {
		baseMs = s.Limit.Milliseconds()
	}

	var jitterMs int64
	if !s.DisableJitter {
		maxJitter := baseMs / 10
		if maxJitter < 1 {
			maxJitter = 1
		}
		if s.Deterministic && maxJitter > 5 {
			maxJitter = 5
		}
		jitterMs = rng.Int63n(maxJitter + 1)
	}

	candidateMs := baseMs + jitterMs
	if s.MaxRetryAfter > 0 && candidateMs > s.MaxRetryAfter.Milliseconds() {
		candidateMs = s.MaxRetryAfter.Milliseconds()
	}
	if s.Limit > 0 && candidateMs > s.Limit.Milliseconds() {
		candidateMs = s.Limit.Milliseconds()
	}

	return time.Duration(candidateMs) * time.Millisecond
}
