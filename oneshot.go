package framesched

import (
	"context"
	"sync/atomic"
)

const (
	oneshotPending uint32 = iota
	oneshotResolved
	oneshotAbandoned
)

// oneshot is a resolve-once completion signal, bridging a host callback (the
// single producer) to a waiting goroutine (the single consumer). Exactly one
// of resolve or abandon succeeds.
type oneshot[T any] struct {
	done  chan struct{}
	value T
	state atomic.Uint32
}

func newOneshot[T any]() *oneshot[T] {
	return &oneshot[T]{done: make(chan struct{})}
}

// resolve publishes v, returning false if the consumer already abandoned the
// signal, or it was already resolved.
func (x *oneshot[T]) resolve(v T) bool {
	if !x.state.CompareAndSwap(oneshotPending, oneshotResolved) {
		return false
	}
	x.value = v
	close(x.done)
	return true
}

// wait blocks until resolved or ctx is done. If ctx is done but the signal
// was resolved concurrently, the value is still returned (ok is true), along
// with the ctx error, so the caller may release whatever it represents.
func (x *oneshot[T]) wait(ctx context.Context) (value T, ok bool, err error) {
	select {
	case <-x.done:
		return x.value, true, nil
	case <-ctx.Done():
	}
	if x.state.CompareAndSwap(oneshotPending, oneshotAbandoned) {
		return value, false, ctx.Err()
	}
	// lost the race: resolve is mid-flight
	<-x.done
	return x.value, true, ctx.Err()
}
