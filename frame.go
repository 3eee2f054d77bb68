package framesched

import (
	"context"
	"sync"
	"time"
)

// FrameSource bridges a host frame callback into an awaitable [Frame].
//
// Create instances with [NewFrameSource]. The zero value is not usable.
type FrameSource struct {
	frames FrameRequester
}

// Frame represents an open host frame callback. The callback is held open
// until [Frame.Release] is called, so work performed between [FrameSource.Wait]
// returning and Release happens within the frame.
type Frame struct {
	arrived   time.Time
	done      chan struct{}
	once      sync.Once
	timestamp time.Duration
}

// NewFrameSource returns a [FrameSource] for the given frame API.
//
// Returns [ErrUnsupportedEnvironment] if frames is nil.
func NewFrameSource(frames FrameRequester) (*FrameSource, error) {
	if frames == nil {
		return nil, ErrUnsupportedEnvironment
	}
	return &FrameSource{frames: frames}, nil
}

// Wait registers exactly one frame callback, then blocks until the next frame
// fires, or ctx is done. Registrations are never reused, the host is not
// assumed to repeat them. On cancellation, the registration is revoked.
//
// The caller must call [Frame.Release] on the returned frame.
func (x *FrameSource) Wait(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signal := newOneshot[*Frame]()
	cancel := x.frames.RequestAnimationFrame(func(timestamp time.Duration) {
		frame := &Frame{
			arrived:   time.Now(),
			done:      make(chan struct{}),
			timestamp: timestamp,
		}
		if signal.resolve(frame) {
			<-frame.done
		}
	})

	frame, ok, err := signal.wait(ctx)
	if err != nil {
		if ok {
			frame.Release()
		} else {
			cancel()
		}
		return nil, err
	}

	return frame, nil
}

// Timestamp returns the host timestamp passed to the frame callback.
func (x *Frame) Timestamp() time.Duration {
	return x.timestamp
}

// Arrived returns the time the frame callback fired.
func (x *Frame) Arrived() time.Time {
	return x.arrived
}

// Release ends the frame, allowing the host frame callback to return.
// Release is idempotent.
func (x *Frame) Release() {
	x.once.Do(func() { close(x.done) })
}
