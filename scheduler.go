package framesched

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/petermattis/goid"
)

// overrunSlack is how far past its budget a diff phase may run before it is
// reported as an overrun.
const overrunSlack = time.Millisecond

// Scheduler is the render-scheduling loop. It drives an [Engine] during host
// idle periods, and applies the resulting mutations via a [Patcher], within
// host frames.
//
// Create instances with [New]. The zero value is not usable. A Scheduler may
// only be run once.
type Scheduler struct {
	root      Element
	host      Host
	engine    Engine
	patcher   Patcher
	deadlines *DeadlineSource
	frames    *FrameSource
	opts      *schedulerOptions
	logger    *logiface.Logger[logiface.Event]
	limiter   *catrate.Limiter
	metrics   *metrics
	goid      atomic.Int64
	state     runState
	phase     atomic.Uint32
}

// pass is the outcome of a single diff phase.
type pass struct {
	batches []MutationBatch
	budget  time.Duration
	elapsed time.Duration
	steps   int
	done    bool
}

// New creates a new [Scheduler]. The host must support both idle and frame
// notifications, otherwise [ErrUnsupportedEnvironment] is returned, before
// anything runs. The root element is not resolved until [Scheduler.Run].
func New(host Host, engine Engine, patcher Patcher, opts ...Option) (*Scheduler, error) {
	if host == nil || host.Document() == nil {
		return nil, ErrUnsupportedEnvironment
	}
	if engine == nil {
		return nil, errors.New("framesched: nil engine")
	}
	if patcher == nil {
		return nil, errors.New("framesched: nil patcher")
	}

	options, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	var timers TimerHost
	if options.fallbackTimer {
		timers = host.Timers()
	}

	deadlines, err := NewDeadlineSource(host.Idle(), timers, options.maxIdleBudget)
	if err != nil {
		return nil, fmt.Errorf("idle notifications: %w", err)
	}

	frames, err := NewFrameSource(host.Frames())
	if err != nil {
		return nil, fmt.Errorf("frame notifications: %w", err)
	}

	x := &Scheduler{
		host:      host,
		engine:    engine,
		patcher:   patcher,
		deadlines: deadlines,
		frames:    frames,
		opts:      options,
		logger:    options.logger,
		limiter:   newLogLimiter(),
	}
	if options.metrics {
		x.metrics = newMetrics()
	}

	return x, nil
}

// Launch is a convenience wrapper around [New] and [Scheduler.Run].
func Launch(ctx context.Context, host Host, engine Engine, patcher Patcher, opts ...Option) error {
	x, err := New(host, engine, patcher, opts...)
	if err != nil {
		return err
	}
	return x.Run(ctx)
}

// Run starts the scheduler, and blocks until ctx is done, or a collaborator
// fails. It never returns nil.
//
// Startup resolves the root element (failing with [ErrMissingRoot]), wires
// events (see [EventSink] and [EventBinder]), then performs the initial
// rebuild. The rebuild is applied within a frame, unless hydrating.
func (x *Scheduler) Run(ctx context.Context) (err error) {
	if x.InLoop() {
		return ErrReentrantRun
	}
	if err := x.state.start(); err != nil {
		return err
	}

	x.goid.Store(goid.Get())
	defer func() {
		if err != nil && ctx.Err() == nil {
			x.logFailure(err)
		}
		x.setPhase(PhaseStopped)
		x.goid.Store(0)
		x.state.stop()
	}()

	x.setPhase(PhaseStarting)
	if err := x.start(ctx); err != nil {
		return err
	}

	// set if the previous pass stopped on expiry, with work remaining
	var unfinished bool
	for {
		p, err := x.iterate(ctx, unfinished)
		if err != nil {
			return err
		}
		unfinished = !p.done
	}
}

func (x *Scheduler) start(ctx context.Context) error {
	x.logStarting()

	root, ok := x.host.Document().GetElementByID(x.opts.rootName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingRoot, x.opts.rootName)
	}
	x.root = root

	if sink, ok := x.engine.(EventSink); ok {
		if binder, ok := x.patcher.(EventBinder); ok {
			binder.BindEvents(NewDispatcher(sink))
		}
	}

	batch, err := x.engine.Rebuild(ctx)
	if err != nil {
		return x.fail(ctx, PhaseStarting, err)
	}

	x.logRebuild(batch, x.opts.hydrate)

	if x.opts.hydrate {
		// the document is already materialized, it only needs wiring
		if hydrator, ok := x.patcher.(Hydrator); ok {
			if err := hydrator.Hydrate(root, batch); err != nil {
				return x.fail(ctx, PhaseStarting, err)
			}
		}
		return nil
	}

	return x.applyInFrame(ctx, []MutationBatch{batch})
}

// iterate runs a single scheduling iteration.
func (x *Scheduler) iterate(ctx context.Context, unfinished bool) (*pass, error) {
	if !unfinished {
		x.setPhase(PhaseAwaitWork)
		if err := x.engine.WaitForWork(ctx); err != nil {
			return nil, x.fail(ctx, PhaseAwaitWork, err)
		}
	}

	x.setPhase(PhaseAwaitIdle)
	deadline, err := x.deadlines.Wait(ctx)
	if err != nil {
		return nil, x.fail(ctx, PhaseAwaitIdle, err)
	}

	x.setPhase(PhaseDiff)
	p, err := x.diff(ctx, deadline)
	if err != nil {
		return nil, x.fail(ctx, PhaseDiff, err)
	}

	if err := x.applyInFrame(ctx, p.batches); err != nil {
		return nil, err
	}

	x.metrics.recordIteration()

	return p, nil
}

// diff steps the engine at least once, then until it reports done, or the
// deadline expires. The deadline is released on return.
func (x *Scheduler) diff(ctx context.Context, deadline *Deadline) (*pass, error) {
	defer deadline.Release()

	p := pass{budget: deadline.Budget()}
	for {
		result, err := x.engine.Step(ctx, deadline.Expired)
		p.steps++
		if err != nil {
			return nil, err
		}
		if result.Batch != nil {
			p.batches = append(p.batches, result.Batch)
		}
		if result.Done {
			p.done = true
			break
		}
		if deadline.Expired() {
			break
		}
	}
	p.elapsed = time.Since(deadline.Started())

	overrun := p.budget > 0 && p.elapsed > p.budget+overrunSlack
	x.metrics.recordPass(p.budget, p.elapsed, p.steps, len(p.batches), overrun)
	x.logPass(&p)
	if overrun {
		x.logOverrun(&p)
	}
	if !p.done && len(p.batches) == 0 {
		x.logEmptyPass(&p)
	}

	return &p, nil
}

// applyInFrame waits for the next frame, then applies batches in order,
// before releasing the frame.
func (x *Scheduler) applyInFrame(ctx context.Context, batches []MutationBatch) error {
	x.setPhase(PhaseAwaitFrame)
	waitStart := time.Now()
	frame, err := x.frames.Wait(ctx)
	if err != nil {
		return x.fail(ctx, PhaseAwaitFrame, err)
	}
	defer frame.Release()
	x.metrics.recordFrameWait(time.Since(waitStart))

	x.setPhase(PhaseApply)
	applyStart := time.Now()
	for i, batch := range batches {
		x.logEdits(batch)
		if err := x.patcher.Apply(x.root, batch); err != nil {
			return x.fail(ctx, PhaseApply, err)
		}
		batches[i] = nil
	}
	x.metrics.recordApply(time.Since(applyStart), len(batches))

	return nil
}

// fail wraps collaborator errors, passing through ctx errors as-is.
func (x *Scheduler) fail(ctx context.Context, phase Phase, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return &PhaseError{Cause: err, Phase: phase}
}

func (x *Scheduler) setPhase(p Phase) {
	x.phase.Store(uint32(p))
	if x.opts.observer != nil {
		x.opts.observer(p)
	}
}

// Phase returns the current phase. It is safe to call from any goroutine.
func (x *Scheduler) Phase() Phase {
	return Phase(x.phase.Load())
}

// InLoop reports whether the calling goroutine is the one running
// [Scheduler.Run]. Collaborators may use this to assert they are being
// driven by the scheduler.
func (x *Scheduler) InLoop() bool {
	id := x.goid.Load()
	return id != 0 && id == goid.Get()
}

// Metrics returns a copy of the current metrics. The second return value is
// false if metrics are disabled, see [WithMetrics].
func (x *Scheduler) Metrics() (Metrics, bool) {
	if x.metrics == nil {
		return Metrics{}, false
	}
	return x.metrics.snapshot(), true
}
