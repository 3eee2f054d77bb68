// Package evhost implements a native [framesched.Host], driven by a
// github.com/joeycumines/go-eventloop event loop.
//
// Frames tick at a fixed rate. Each tick invokes the pending frame
// callbacks, then the pending idle callbacks, which are granted the time
// until the next frame (capped by [WithMaxIdlePeriod]). Ticks only run while
// callbacks are pending. All host state is owned by the loop goroutine.
//
// Frame callbacks run on the loop goroutine, and the scheduler holds them
// open while it applies mutations, so the loop is blocked for the duration.
package evhost

import (
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-framesched"
	"github.com/joeycumines/logiface"
)

// Host implements [framesched.Host] on an [eventloop.Loop].
//
// Create instances with [New]. The loop must be running for callbacks to
// fire.
type Host struct {
	loop   *eventloop.Loop
	js     *eventloop.JS
	opts   *hostOptions
	logger *logiface.Logger[logiface.Event]
	origin time.Time

	// loop goroutine only
	idle      *redblacktree.Tree
	frames    *redblacktree.Tree
	lastFrame time.Time
	ticking   bool

	nextID atomic.Uint64
	ticks  atomic.Int64
}

// idleDeadline ends at a fixed point in time.
type idleDeadline struct {
	end time.Time
}

var (
	_ framesched.Host           = (*Host)(nil)
	_ framesched.IdleRequester  = (*Host)(nil)
	_ framesched.FrameRequester = (*Host)(nil)
	_ framesched.TimerHost      = (*Host)(nil)
)

// New returns a [Host] bound to loop.
func New(loop *eventloop.Loop, opts ...Option) (*Host, error) {
	options, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	js, err := eventloop.NewJS(loop)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Host{
		loop:      loop,
		js:        js,
		opts:      options,
		logger:    options.logger,
		origin:    now,
		idle:      redblacktree.NewWith(utils.UInt64Comparator),
		frames:    redblacktree.NewWith(utils.UInt64Comparator),
		lastFrame: now,
	}, nil
}

// Idle implements [framesched.Host].
func (x *Host) Idle() framesched.IdleRequester {
	if x.opts.noIdle {
		return nil
	}
	return x
}

// Frames implements [framesched.Host].
func (x *Host) Frames() framesched.FrameRequester {
	return x
}

// Timers implements [framesched.Host].
func (x *Host) Timers() framesched.TimerHost {
	if x.opts.noTimers {
		return nil
	}
	return x
}

// Document implements [framesched.Host].
func (x *Host) Document() framesched.Document {
	return x.opts.document
}

// Doc returns the concrete document.
func (x *Host) Doc() *Document {
	return x.opts.document
}

// Ticks returns the number of frame ticks that have run.
func (x *Host) Ticks() int64 {
	return x.ticks.Load()
}

// RequestIdleCallback implements [framesched.IdleRequester].
func (x *Host) RequestIdleCallback(fn func(deadline framesched.IdleDeadline)) (cancel func()) {
	return x.register(x.idle, fn)
}

// RequestAnimationFrame implements [framesched.FrameRequester].
func (x *Host) RequestAnimationFrame(fn func(timestamp time.Duration)) (cancel func()) {
	return x.register(x.frames, fn)
}

func (x *Host) register(tree *redblacktree.Tree, fn any) func() {
	id := x.nextID.Add(1)
	x.submit(func() {
		tree.Put(id, fn)
		x.schedule()
	})
	return func() {
		x.submit(func() { tree.Remove(id) })
	}
}

// SetTimeout implements [framesched.TimerHost]. The delay is rounded up to
// the next millisecond.
func (x *Host) SetTimeout(fn func(), delay time.Duration) (cancel func()) {
	delayMs := int((max(delay, 0) + time.Millisecond - 1) / time.Millisecond)

	// loop goroutine only
	var (
		id        uint64
		cancelled bool
	)
	x.submit(func() {
		if cancelled {
			return
		}
		var err error
		if id, err = x.js.SetTimeout(fn, delayMs); err != nil {
			x.logger.Warning().
				Err(err).
				Log("evhost: failed to set timeout")
		}
	})
	return func() {
		x.submit(func() {
			cancelled = true
			if id != 0 {
				// may have already fired
				_ = x.js.ClearTimeout(id)
			}
		})
	}
}

func (x *Host) submit(fn func()) {
	if err := x.loop.Submit(fn); err != nil {
		x.logger.Debug().
			Err(err).
			Log("evhost: dropped host task")
	}
}

// schedule arms the next tick, aligned to the frame interval, if callbacks
// are pending.
func (x *Host) schedule() {
	if x.ticking || (x.idle.Empty() && x.frames.Empty()) {
		return
	}
	delay := max(time.Until(x.lastFrame.Add(x.opts.frameInterval)), 0)
	delayMs := int((delay + time.Millisecond - 1) / time.Millisecond)
	if _, err := x.js.SetTimeout(x.tick, delayMs); err != nil {
		x.logger.Warning().
			Err(err).
			Log("evhost: failed to schedule frame")
		return
	}
	x.ticking = true
}

func (x *Host) tick() {
	x.ticking = false
	now := time.Now()
	x.lastFrame = now
	x.ticks.Add(1)

	// callbacks registered from within callbacks run next tick
	frames := x.frames.Values()
	x.frames.Clear()
	timestamp := now.Sub(x.origin)
	for _, fn := range frames {
		fn.(func(time.Duration))(timestamp)
	}

	if !x.idle.Empty() {
		// frame callbacks may have consumed the whole period
		end := now.Add(x.opts.frameInterval)
		if x.opts.maxIdlePeriod > 0 {
			if limit := time.Now().Add(x.opts.maxIdlePeriod); limit.Before(end) {
				end = limit
			}
		}
		deadline := &idleDeadline{end: end}
		idle := x.idle.Values()
		x.idle.Clear()
		for _, fn := range idle {
			fn.(func(framesched.IdleDeadline))(deadline)
		}
	}

	x.schedule()

	x.logger.Trace().
		Int("frames", len(frames)).
		Dur("timestamp", timestamp).
		Log("evhost: tick")
}

func (x *idleDeadline) TimeRemaining() time.Duration {
	return max(time.Until(x.end), 0)
}

func (x *idleDeadline) DidTimeout() bool {
	return false
}
