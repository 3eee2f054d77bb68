package framesched

import (
	"time"
)

type (
	// Host is the environment a [Scheduler] runs within. Capabilities are
	// optional at the type level, so that implementations may detect them at
	// runtime (e.g. feature detection in a browser).
	Host interface {
		// Idle returns the idle notification API, or nil if unsupported.
		Idle() IdleRequester

		// Frames returns the frame notification API, or nil if unsupported.
		Frames() FrameRequester

		// Timers returns the timer API, or nil. Without timers, deadlines
		// rely solely on [IdleDeadline.TimeRemaining].
		Timers() TimerHost

		// Document returns the host document, used to locate the root.
		Document() Document
	}

	// IdleRequester registers one-shot idle callbacks, in the manner of
	// requestIdleCallback. The returned cancel function revokes the
	// registration, and must be safe to call after the callback has fired.
	IdleRequester interface {
		RequestIdleCallback(fn func(deadline IdleDeadline)) (cancel func())
	}

	// FrameRequester registers one-shot frame callbacks, in the manner of
	// requestAnimationFrame. The timestamp is relative to the host's time
	// origin. The returned cancel function has the same semantics as
	// [IdleRequester].
	FrameRequester interface {
		RequestAnimationFrame(fn func(timestamp time.Duration)) (cancel func())
	}

	// TimerHost schedules one-shot timers, in the manner of setTimeout.
	TimerHost interface {
		SetTimeout(fn func(), delay time.Duration) (cancel func())
	}

	// IdleDeadline is the value passed to an idle callback. Host estimates are
	// advisory, and may be optimistic.
	IdleDeadline interface {
		// TimeRemaining returns the estimated time left in the idle period,
		// which is never negative.
		TimeRemaining() time.Duration

		// DidTimeout indicates the callback was invoked because a timeout
		// elapsed, rather than because the host was idle.
		DidTimeout() bool
	}

	// Document provides element lookup by identifier.
	Document interface {
		GetElementByID(id string) (Element, bool)
	}

	// Element is an opaque handle to a live host element. Only the [Patcher]
	// interprets it.
	Element any
)
