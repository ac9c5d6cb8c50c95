// Package slotpool bounds concurrent child-process runners to the
// parallelism cap J described by spec §4.F: a fixed-size pool of J
// job-record slots. Acquire blocks until a slot is free; TryAcquire,
// which the scheduler uses, returns at once when none is; Release
// returns a slot. Unlike a resource pool that hands
// out live connections, a Slot here carries no payload beyond its
// index — it exists purely to bound concurrency and to give each
// in-flight runner a stable small integer for logging/telemetry.
package slotpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Slot is a single admission ticket into the process manager's pool.
// Index is in [0, J) and is stable for the lifetime of one Acquire/Release
// pair; it is not reassigned while held.
type Slot struct {
	Index int
}

// Pool manages J outstanding slots.
type Pool struct {
	tokens  chan Slot
	j       int
	mu      sync.Mutex
	closing bool
	held    int
}

// ErrPoolClosing is returned by Acquire once Shutdown has been called.
var ErrPoolClosing = errors.New("slotpool: pool is shutting down")

// New creates a pool with j slots, all initially free.
func New(j int) *Pool {
	if j <= 0 {
		j = 1
	}
	tokens := make(chan Slot, j)
	for i := 0; i < j; i++ {
		tokens <- Slot{Index: i}
	}
	return &Pool{tokens: tokens, j: j}
}

// J reports the configured parallelism cap.
func (p *Pool) J() int {
	return p.j
}

// Acquire blocks until a slot is free, the context is cancelled, or the
// pool is shutting down.
func (p *Pool) Acquire(ctx context.Context) (Slot, error) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return Slot{}, ErrPoolClosing
	}
	p.mu.Unlock()

	select {
	case s := <-p.tokens:
		p.mu.Lock()
		p.held++
		p.mu.Unlock()
		slog.DebugContext(ctx, "slotpool: acquired", "slot", s.Index, "held", p.held)
		return s, nil
	case <-ctx.Done():
		return Slot{}, ctx.Err()
	}
}

// TryAcquire acquires a slot without blocking. It reports false if no
// slot is currently free or the pool is shutting down — the caller is
// expected to go do other work (e.g. service completions) and retry
// later, rather than park a goroutine that also needs to stay
// responsive to other events.
func (p *Pool) TryAcquire() (Slot, bool) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return Slot{}, false
	}
	p.mu.Unlock()

	select {
	case s := <-p.tokens:
		p.mu.Lock()
		p.held++
		p.mu.Unlock()
		slog.Debug("slotpool: acquired", "slot", s.Index, "held", p.held)
		return s, true
	default:
		return Slot{}, false
	}
}

// Release returns a slot to the pool.
func (p *Pool) Release(s Slot) {
	p.mu.Lock()
	p.held--
	p.mu.Unlock()
	p.tokens <- s
}

// Outstanding reports the number of slots currently held (spec's nrunning).
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

// Shutdown marks the pool closed (future Acquire calls fail) and blocks
// until every outstanding slot has been released, or ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()

	// Every one of the j tokens is back in the channel only once every
	// held slot has been released (Release itself decrements held).
	for i := 0; i < p.j; i++ {
		select {
		case s := <-p.tokens:
			slog.DebugContext(ctx, "slotpool: drained on shutdown", "slot", s.Index)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
