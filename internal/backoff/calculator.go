package backoff

import (
	"math/rand"
	"time"
)

// deterministicSeed fixes the RNG for reproducible test runs.
const deterministicSeed = 0xC0FFEE

// Calculator binds a Strategy to a random source. One Calculator serves one
// logical call, so the RNG needs no locking.
type Calculator struct {
	strategy Strategy
	rng      *rand.Rand
}

// NewCalculator creates a calculator for the given strategy. When
// deterministic is true the random source is seeded with a fixed value.
func NewCalculator(strategy Strategy, deterministic bool) *Calculator {
	seed := time.Now().UnixNano()
	if deterministic {
		seed = deterministicSeed
	}
	return &Calculator{
		strategy: strategy,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Delay computes the wait before the next attempt. attempt is 1-based.
func (c *Calculator) Delay(attempt int) time.Duration {
	return c.strategy.Delay(attempt, c.rng)
}
