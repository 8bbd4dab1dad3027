// Package gate serializes access to the inference runtime. The underlying
// model sessions share one execution context and are not safe for
// concurrent invocation, so at most one holder exists process-wide.
package gate

import "context"

// Gate is a single-slot semaphore. Acquire blocks until the slot is free or
// the context is done; Release frees the slot for the next waiter.
type Gate struct {
	slot chan struct{}
}

// New returns an unheld gate.
func New() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// Acquire takes the slot, blocking behind the current holder.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the slot. It must only be called by the current holder.
func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
		panic("gate: release without acquire")
	}
}

// TryAcquire takes the slot only if it is immediately free.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}
