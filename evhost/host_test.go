package evhost

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-framesched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_options(t *testing.T) {
	loop := newTestLoop(t)

	_, err := New(loop, WithFrameRate(0))
	require.Error(t, err)
	_, err = New(loop, WithMaxIdlePeriod(-1))
	require.Error(t, err)

	h, err := New(loop, nil)
	require.NoError(t, err)
	require.NotNil(t, h.Idle())
	require.NotNil(t, h.Frames())
	require.NotNil(t, h.Timers())
	require.NotNil(t, h.Doc())
	require.Equal(t, time.Second/DefaultFrameRate, h.opts.frameInterval)

	h, err = New(loop, WithoutIdle(), WithoutTimers())
	require.NoError(t, err)
	require.Nil(t, h.Idle())
	require.Nil(t, h.Timers())
}

func TestHost_RequestAnimationFrame(t *testing.T) {
	h := newTestHost(t, WithFrameRate(100))

	timestamps := make(chan time.Duration, 2)
	h.RequestAnimationFrame(func(ts time.Duration) { timestamps <- ts })
	h.RequestAnimationFrame(func(ts time.Duration) { timestamps <- ts })

	first := <-timestamps
	second := <-timestamps
	require.Positive(t, first)
	require.GreaterOrEqual(t, second, first)

	// registrations are one-shot
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, timestamps)
}

func TestHost_RequestAnimationFrame_cancel(t *testing.T) {
	h := newTestHost(t, WithFrameRate(50))

	fired := make(chan struct{}, 1)
	cancel := h.RequestAnimationFrame(func(time.Duration) { fired <- struct{}{} })
	cancel()
	cancel()

	// a later registration still fires, the cancelled one never does
	done := make(chan struct{})
	h.RequestAnimationFrame(func(time.Duration) { close(done) })
	<-done
	time.Sleep(30 * time.Millisecond)
	require.Empty(t, fired)
}

func TestHost_RequestIdleCallback(t *testing.T) {
	h := newTestHost(t, WithFrameRate(20), WithMaxIdlePeriod(0))

	var mu sync.Mutex
	var order []string
	done := make(chan framesched.IdleDeadline, 1)
	h.RequestAnimationFrame(func(time.Duration) {
		mu.Lock()
		order = append(order, "frame")
		mu.Unlock()
	})
	h.RequestIdleCallback(func(d framesched.IdleDeadline) {
		mu.Lock()
		order = append(order, "idle")
		mu.Unlock()
		done <- d
	})

	d := <-done
	require.False(t, d.DidTimeout())
	remaining := d.TimeRemaining()
	require.Positive(t, remaining)
	require.LessOrEqual(t, remaining, 50*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"frame", "idle"}, order)
	mu.Unlock()

	// runs until the next frame
	require.Eventually(t, func() bool { return d.TimeRemaining() == 0 }, time.Second, time.Millisecond)
}

func TestHost_RequestIdleCallback_maxIdlePeriod(t *testing.T) {
	h := newTestHost(t, WithFrameRate(1), WithMaxIdlePeriod(5*time.Millisecond))

	done := make(chan framesched.IdleDeadline, 1)
	h.RequestIdleCallback(func(d framesched.IdleDeadline) { done <- d })

	var d framesched.IdleDeadline
	select {
	case d = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("idle callback did not fire")
	}
	require.LessOrEqual(t, d.TimeRemaining(), 5*time.Millisecond)
}

func TestHost_RequestIdleCallback_cancel(t *testing.T) {
	h := newTestHost(t)

	fired := make(chan struct{}, 1)
	h.RequestIdleCallback(func(framesched.IdleDeadline) { fired <- struct{}{} })()

	done := make(chan struct{})
	h.RequestIdleCallback(func(framesched.IdleDeadline) { close(done) })
	<-done
	require.Empty(t, fired)
}

func TestHost_ticksOnlyWhilePending(t *testing.T) {
	h := newTestHost(t, WithFrameRate(200))

	done := make(chan struct{})
	h.RequestAnimationFrame(func(time.Duration) { close(done) })
	<-done
	time.Sleep(20 * time.Millisecond)
	ticks := h.Ticks()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ticks, h.Ticks())
}

func TestHost_SetTimeout(t *testing.T) {
	h := newTestHost(t)

	start := time.Now()
	fired := make(chan time.Duration, 1)
	h.SetTimeout(func() { fired <- time.Since(start) }, 10*time.Millisecond)
	select {
	case elapsed := <-fired:
		require.GreaterOrEqual(t, elapsed, 9*time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout did not fire")
	}

	cancelled := make(chan struct{}, 1)
	cancel := h.SetTimeout(func() { cancelled <- struct{}{} }, 20*time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, cancelled)
}

func TestHost_Document(t *testing.T) {
	doc := NewDocument("main")
	h := newTestHost(t, WithDocument(doc))
	el, ok := h.Document().GetElementByID("main")
	require.True(t, ok)
	require.Same(t, doc.Element("main"), el)
	_, ok = h.Document().GetElementByID("app")
	require.False(t, ok)
}

func TestHost_submitAfterShutdown(t *testing.T) {
	loop := newTestLoop(t)
	h, err := New(loop)
	require.NoError(t, err)
	_ = loop.Shutdown(context.Background())
	require.ErrorIs(t, loop.Submit(func() {}), eventloop.ErrLoopTerminated)

	// dropped, never fires
	fired := make(chan struct{}, 1)
	h.RequestAnimationFrame(func(time.Duration) { fired <- struct{}{} })()
	h.SetTimeout(func() { fired <- struct{}{} }, 0)()
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, fired)
}
