package framesched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DeadlineSource bridges a host idle callback into an awaitable [Deadline].
//
// Create instances with [NewDeadlineSource]. The zero value is not usable.
type DeadlineSource struct {
	idle      IdleRequester
	timers    TimerHost
	maxBudget time.Duration
}

// Deadline represents the time remaining in a single idle period. It is
// produced once per idle callback, and is valid only for that period.
//
// Expiry is latched on the first of the following to be observed: the host
// estimate reaching zero, the host reporting a timeout, the maximum budget
// elapsing, or the fallback timer firing. Once expired, a Deadline never
// un-expires.
type Deadline struct {
	idle        IdleDeadline
	started     time.Time
	cancelTimer func()
	budget      time.Duration
	maxBudget   time.Duration
	releaseOnce sync.Once
	expired     atomic.Bool
}

type idleArrival struct {
	deadline IdleDeadline
	at       time.Time
}

// NewDeadlineSource returns a [DeadlineSource] for the given idle API. If
// timers is non-nil, each [Deadline] arms a fallback timer sized to the
// advertised idle time. If maxBudget is positive, it caps the budget of each
// idle period (host estimates are advisory).
//
// Returns [ErrUnsupportedEnvironment] if idle is nil.
func NewDeadlineSource(idle IdleRequester, timers TimerHost, maxBudget time.Duration) (*DeadlineSource, error) {
	if idle == nil {
		return nil, ErrUnsupportedEnvironment
	}
	if maxBudget < 0 {
		maxBudget = 0
	}
	return &DeadlineSource{
		idle:      idle,
		timers:    timers,
		maxBudget: maxBudget,
	}, nil
}

// Wait registers exactly one idle callback, then blocks until it fires, or
// ctx is done. On cancellation, the registration is revoked.
func (x *DeadlineSource) Wait(ctx context.Context) (*Deadline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signal := newOneshot[idleArrival]()
	cancel := x.idle.RequestIdleCallback(func(deadline IdleDeadline) {
		signal.resolve(idleArrival{deadline: deadline, at: time.Now()})
	})

	arrival, _, err := signal.wait(ctx)
	if err != nil {
		// idle callbacks hold nothing open, so a concurrent arrival is dropped
		cancel()
		return nil, err
	}

	return x.newDeadline(arrival), nil
}

func (x *DeadlineSource) newDeadline(arrival idleArrival) *Deadline {
	d := &Deadline{
		idle:      arrival.deadline,
		started:   arrival.at,
		maxBudget: x.maxBudget,
	}

	d.budget = arrival.deadline.TimeRemaining()
	if x.maxBudget > 0 && d.budget > x.maxBudget {
		d.budget = x.maxBudget
	}

	if d.budget <= 0 || arrival.deadline.DidTimeout() {
		d.expired.Store(true)
	} else if x.timers != nil {
		d.cancelTimer = x.timers.SetTimeout(d.expire, d.budget)
	}

	return d
}

func (x *Deadline) expire() {
	x.expired.Store(true)
}

// Expired reports whether the idle period has elapsed. It never suspends, and
// is cheap enough to call between every unit of diff work. It is safe to call
// concurrently with the fallback timer.
func (x *Deadline) Expired() bool {
	if x.expired.Load() {
		return true
	}
	if x.idle.DidTimeout() ||
		x.idle.TimeRemaining() <= 0 ||
		(x.maxBudget > 0 && time.Since(x.started) >= x.maxBudget) {
		x.expired.Store(true)
		return true
	}
	return false
}

// TimeRemaining returns the best estimate of the time left in the idle
// period, or zero once expired.
func (x *Deadline) TimeRemaining() time.Duration {
	if x.Expired() {
		return 0
	}
	remaining := x.idle.TimeRemaining()
	if x.maxBudget > 0 {
		if capped := x.maxBudget - time.Since(x.started); capped < remaining {
			remaining = capped
		}
	}
	return max(remaining, 0)
}

// Budget returns the duration granted for this idle period, as observed when
// the idle callback fired.
func (x *Deadline) Budget() time.Duration {
	return x.budget
}

// Started returns the time the idle callback fired.
func (x *Deadline) Started() time.Time {
	return x.started
}

// Release discards the deadline, revoking any fallback timer. A released
// deadline reports expired. Release is idempotent.
func (x *Deadline) Release() {
	x.releaseOnce.Do(func() {
		x.expired.Store(true)
		if x.cancelTimer != nil {
			x.cancelTimer()
		}
	})
}
