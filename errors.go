package framesched

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedEnvironment is returned when the host lacks a required
	// callback registration API (idle or frame notifications).
	ErrUnsupportedEnvironment = errors.New("framesched: unsupported host environment")

	// ErrMissingRoot is returned by [Scheduler.Run] when the configured root
	// element cannot be found in the host document.
	ErrMissingRoot = errors.New("framesched: root element not found")

	// ErrEventDispatch is the cause of the panic raised when an event cannot
	// be forwarded to the engine, see [NewDispatcher].
	ErrEventDispatch = errors.New("framesched: event dispatch failed")

	// ErrAlreadyRunning is returned by [Scheduler.Run] if it is already running.
	ErrAlreadyRunning = errors.New("framesched: scheduler is already running")

	// ErrReentrantRun is returned by [Scheduler.Run] when called from the
	// goroutine that is already running the scheduler.
	ErrReentrantRun = errors.New("framesched: cannot call Run from within the scheduler")

	// ErrTerminated is returned by [Scheduler.Run] once the scheduler has
	// already run to completion. Schedulers are single-use.
	ErrTerminated = errors.New("framesched: scheduler has been terminated")
)

// PhaseError wraps an error returned by a collaborator, recording the
// [Phase] the scheduler was in.
type PhaseError struct {
	Cause error
	Phase Phase
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("framesched: %s: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *PhaseError) Unwrap() error {
	return e.Cause
}

// DispatchError is the panic value raised by a dispatch function (see
// [NewDispatcher]) when the engine rejects an event. Dropping input events
// silently would cause invisible application malfunction, so this is treated
// as a programming error.
type DispatchError struct {
	Cause error
	Event Event
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("framesched: event dispatch failed: %s: %v", e.Event.Name, e.Cause)
}

// Unwrap returns both [ErrEventDispatch] and the underlying cause.
func (e *DispatchError) Unwrap() []error {
	return []error{ErrEventDispatch, e.Cause}
}
