package framesched

import (
	"sync"
	"time"
)

// Metrics is a point-in-time copy of scheduler statistics, see
// [Scheduler.Metrics].
type Metrics struct {
	// DiffTime is the wall time of each diff phase (all steps of a pass).
	DiffTime DurationStats

	// IdleBudget is the budget granted by each idle period.
	IdleBudget DurationStats

	// FrameWait is the time spent waiting for each frame callback.
	FrameWait DurationStats

	// ApplyTime is the time spent applying mutations within each frame.
	ApplyTime DurationStats

	// Iterations is the number of completed scheduling iterations.
	Iterations int64

	// Steps is the total number of Engine.Step calls.
	Steps int64

	// Batches is the total number of batches produced by Engine.Step.
	Batches int64

	// Applied is the total number of batches passed to Patcher.Apply,
	// including the initial rebuild.
	Applied int64

	// Overruns counts diff phases that ran past their deadline.
	Overruns int64
}

// DurationStats summarizes a duration distribution. Percentiles are streaming
// estimates.
type DurationStats struct {
	Count int
	Mean  time.Duration
	Max   time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
}

// metrics collects statistics on the scheduler goroutine, and may be read
// from any goroutine.
type metrics struct {
	diffTime   *durationSummary
	idleBudget *durationSummary
	frameWait  *durationSummary
	applyTime  *durationSummary
	mu         sync.Mutex
	iterations int64
	steps      int64
	batches    int64
	applied    int64
	overruns   int64
}

func newMetrics() *metrics {
	return &metrics{
		diffTime:   newDurationSummary(),
		idleBudget: newDurationSummary(),
		frameWait:  newDurationSummary(),
		applyTime:  newDurationSummary(),
	}
}

func (x *metrics) recordPass(budget, elapsed time.Duration, steps, batches int, overrun bool) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.idleBudget.observe(budget)
	x.diffTime.observe(elapsed)
	x.steps += int64(steps)
	x.batches += int64(batches)
	if overrun {
		x.overruns++
	}
}

func (x *metrics) recordFrameWait(d time.Duration) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.frameWait.observe(d)
}

func (x *metrics) recordApply(d time.Duration, batches int) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.applyTime.observe(d)
	x.applied += int64(batches)
}

func (x *metrics) recordIteration() {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.iterations++
}

func (x *metrics) snapshot() Metrics {
	if x == nil {
		return Metrics{}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return Metrics{
		DiffTime:   x.diffTime.snapshot(),
		IdleBudget: x.idleBudget.snapshot(),
		FrameWait:  x.frameWait.snapshot(),
		ApplyTime:  x.applyTime.snapshot(),
		Iterations: x.iterations,
		Steps:      x.steps,
		Batches:    x.batches,
		Applied:    x.applied,
		Overruns:   x.overruns,
	}
}
