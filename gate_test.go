package ng

import (
	"context"
	"testing"
	"time"
)

func TestGateLimitEnforced(t *testing.T) {
	gate := NewGate(2)
	ctx := context.Background()

	p1, err := gate.Acquire(ctx)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	p2, err := gate.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}

	if p := gate.TryReacquire(ctx, 20*time.Millisecond); p != nil {
		t.Error("Expected third acquisition to fail on a full gate")
	}

	p1.Release()
	p3 := gate.TryReacquire(ctx, 100*time.Millisecond)
	if p3 == nil {
		t.Fatal("Expected acquisition to succeed after a release")
	}
	p2.Release()
	p3.Release()
}

func TestGateCoercesLimitBelowOne(t *testing.T) {
	gate := NewGate(0)
	p, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected one slot to exist, got %v", err)
	}
	p.Release()
}

func TestPermitReleaseIdempotent(t *testing.T) {
	gate := NewGate(1)
	p, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	p.Release()
	p.Release() // must not panic or over-credit the pool

	p2, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	// The pool has one slot; the double release above must not have created
	// a second one.
	if extra := gate.TryReacquire(context.Background(), 20*time.Millisecond); extra != nil {
		t.Error("Double release corrupted the pool")
	}
	p2.Release()
}

func TestNilPermitReleaseIsSafe(t *testing.T) {
	var p *Permit
	p.Release()
}

func TestGateAcquireCancelled(t *testing.T) {
	gate := NewGate(1)
	held, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := gate.Acquire(ctx); err != ErrGateClosed {
		t.Errorf("Expected ErrGateClosed, got %v", err)
	}
}
