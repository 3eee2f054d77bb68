package framesched

import (
	"context"
	"sync/atomic"
)

// WorkSignal is a level-triggered "pending work" flag, with any number of
// producers and a single consumer (the scheduler). It is intended to back
// [Engine.WaitForWork].
//
// If Notify is called while the consumer is not waiting, the next Wait
// returns immediately, i.e. wakeups are never missed. Multiple notifications
// before a Wait coalesce into one.
//
// The zero value is not usable, use [NewWorkSignal].
type WorkSignal struct {
	wake    chan struct{}
	pending atomic.Bool
}

// NewWorkSignal returns a new [WorkSignal], initially not pending.
func NewWorkSignal() *WorkSignal {
	return &WorkSignal{wake: make(chan struct{}, 1)}
}

// Notify marks work as pending, waking the consumer if it is waiting. It is
// safe to call from any goroutine, including host callbacks.
func (x *WorkSignal) Notify() {
	x.pending.Store(true)
	select {
	case x.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether work is pending, without consuming it.
func (x *WorkSignal) Pending() bool {
	return x.pending.Load()
}

// Wait blocks until work is pending, then consumes the flag. Only a single
// goroutine may call Wait at a time.
func (x *WorkSignal) Wait(ctx context.Context) error {
	for {
		if x.pending.Swap(false) {
			return nil
		}
		select {
		case <-x.wake:
			// may be stale (flag already consumed), re-check
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
