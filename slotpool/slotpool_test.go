package slotpool

import (
	"context"
	"testing"
	"time"
)

func TestAcquireBlocksUntilCapacity(t *testing.T) {
	p := New(2)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	s2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if p.Outstanding() != 2 {
		t.Fatalf("Outstanding() = %d, want 2", p.Outstanding())
	}

	blocked := make(chan struct{})
	go func() {
		if _, err := p.Acquire(ctx); err != nil {
			t.Errorf("third Acquire: %v", err)
		}
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatalf("third Acquire returned before a slot was released")
	case <-time.After(30 * time.Millisecond):
	}

	p.Release(s1)
	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatalf("third Acquire did not unblock after Release")
	}
	p.Release(s2)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	p := New(1)
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); err == nil {
		t.Fatalf("expected Acquire to report a context error")
	}
}

func TestTryAcquireNeverBlocks(t *testing.T) {
	p := New(1)

	s1, ok := p.TryAcquire()
	if !ok {
		t.Fatalf("expected the first TryAcquire to succeed")
	}
	if _, ok := p.TryAcquire(); ok {
		t.Fatalf("expected TryAcquire to fail with no slots free")
	}

	p.Release(s1)
	if _, ok := p.TryAcquire(); !ok {
		t.Fatalf("expected TryAcquire to succeed after Release")
	}
}

func TestTryAcquireFailsAfterShutdown(t *testing.T) {
	p := New(1)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, ok := p.TryAcquire(); ok {
		t.Fatalf("expected TryAcquire to fail once the pool is shutting down")
	}
}

func TestShutdownRejectsFurtherAcquire(t *testing.T) {
	p := New(1)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := p.Acquire(context.Background()); err != ErrPoolClosing {
		t.Fatalf("Acquire after Shutdown = %v, want ErrPoolClosing", err)
	}
}
