package evhost

import (
	"context"
	"testing"

	"github.com/joeycumines/go-eventloop"
	"github.com/stretchr/testify/require"
)

// newTestLoop creates and starts an event loop, stopped on cleanup.
func newTestLoop(t testing.TB) *eventloop.Loop {
	t.Helper()
	loop, err := eventloop.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

func newTestHost(t testing.TB, opts ...Option) *Host {
	t.Helper()
	h, err := New(newTestLoop(t), opts...)
	require.NoError(t, err)
	return h
}
