package engine

import (
	"context"
	"sync"
)

// Gate is a single-slot admission gate with FIFO ordering. Unlike a bare
// mutex it guarantees that concurrent callers are admitted in arrival
// order, which keeps cross-session scheduling deterministic.
type Gate struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Acquire blocks until the caller owns the slot or ctx is done. On
// success the caller must Release.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if !g.busy {
		g.busy = true
		g.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == ch {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		g.mu.Unlock()
		// The slot was handed over between Done and the lock; take it
		// and give it straight back so the queue keeps moving.
		<-ch
		g.Release()
		return ctx.Err()
	}
}

// Release passes the slot to the oldest waiter, or opens the gate when
// the queue is empty.
func (g *Gate) Release() {
	g.mu.Lock()
	if len(g.waiters) > 0 {
		ch := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.mu.Unlock()
		close(ch)
		return
	}
	g.busy = false
	g.mu.Unlock()
}
