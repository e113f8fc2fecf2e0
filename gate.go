package ng

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of logical requests in flight. A Gate may be
// private to one Client or shared across several via WithSharedGate, in
// which case the shared pool governs total admitted concurrency.
//
// Requests admitted while holding a permit through short waits keep their
// relative ordering; once a permit is released for a long wait, re-admission
// competes with newly arriving requests and no FIFO guarantee is made.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a gate admitting at most limit concurrent holders.
// Limits below one are coerced to one.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Acquire suspends the calling goroutine until a slot is free and returns
// the permit representing it. It never busy-polls.
func (g *Gate) Acquire(ctx context.Context) (*Permit, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, ErrGateClosed
	}
	return &Permit{gate: g}, nil
}

// TryReacquire makes a bounded attempt to obtain a fresh permit, used after
// a permit was voluntarily released ahead of a long wait. It returns nil if
// no slot frees up within the timeout.
func (g *Gate) TryReacquire(ctx context.Context, timeout time.Duration) *Permit {
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := g.sem.Acquire(acquireCtx, 1); err != nil {
		return nil
	}
	return &Permit{gate: g}
}

// Permit is a unit of admission from a Gate. Release is idempotent: a
// double release or a stale handle cannot corrupt the pool.
type Permit struct {
	gate *Gate
	once sync.Once
}

// Release returns the slot to the gate. Safe to call on a nil permit and
// safe to call more than once.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.gate.sem.Release(1)
	})
}
