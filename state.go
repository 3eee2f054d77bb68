package framesched

import (
	"sync/atomic"
)

// Phase is the position of a [Scheduler] within its iteration.
//
// State machine:
//
//	PhaseStarting → PhaseAwaitWork           [startup complete]
//	PhaseAwaitWork → PhaseAwaitIdle          [work pending]
//	PhaseAwaitIdle → PhaseDiff               [idle callback]
//	PhaseDiff → PhaseAwaitFrame              [done, or deadline expired]
//	PhaseAwaitFrame → PhaseApply             [frame callback]
//	PhaseApply → PhaseAwaitWork              [batches applied]
//	any → PhaseStopped                       [Run returned]
//
// When not hydrating, startup also passes through PhaseAwaitFrame and
// PhaseApply, to apply the initial rebuild.
type Phase uint32

const (
	// PhaseStarting indicates the scheduler has not started, or is starting.
	PhaseStarting Phase = iota
	// PhaseAwaitWork indicates the scheduler is waiting for pending work.
	PhaseAwaitWork
	// PhaseAwaitIdle indicates the scheduler is waiting for an idle period.
	PhaseAwaitIdle
	// PhaseDiff indicates the scheduler is stepping the engine.
	PhaseDiff
	// PhaseAwaitFrame indicates the scheduler is waiting for the next frame.
	PhaseAwaitFrame
	// PhaseApply indicates the scheduler is applying mutations.
	PhaseApply
	// PhaseStopped indicates Run has returned.
	PhaseStopped
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "Starting"
	case PhaseAwaitWork:
		return "AwaitWork"
	case PhaseAwaitIdle:
		return "AwaitIdle"
	case PhaseDiff:
		return "Diff"
	case PhaseAwaitFrame:
		return "AwaitFrame"
	case PhaseApply:
		return "Apply"
	case PhaseStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// runState guards the single-use lifecycle of a Scheduler.
type runState struct {
	v atomic.Uint32
}

const (
	runAwake uint32 = iota
	runRunning
	runTerminated
)

func (x *runState) start() error {
	if x.v.CompareAndSwap(runAwake, runRunning) {
		return nil
	}
	if x.v.Load() == runTerminated {
		return ErrTerminated
	}
	return ErrAlreadyRunning
}

func (x *runState) stop() {
	x.v.Store(runTerminated)
}
