package framesched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDeadline is an IdleDeadline controlled by the test.
type fakeDeadline struct {
	remaining atomic.Int64
	timedOut  atomic.Bool
	polls     atomic.Int64
}

func newFakeDeadline(remaining time.Duration) *fakeDeadline {
	d := &fakeDeadline{}
	d.remaining.Store(int64(remaining))
	return d
}

func (d *fakeDeadline) TimeRemaining() time.Duration {
	d.polls.Add(1)
	return max(time.Duration(d.remaining.Load()), 0)
}

func (d *fakeDeadline) DidTimeout() bool { return d.timedOut.Load() }

func (d *fakeDeadline) expire() { d.remaining.Store(0) }

// fakeTimer is a pending timer registered with fakeHost.
type fakeTimer struct {
	fn        func()
	delay     time.Duration
	cancelled bool
}

// fakeHost is a manually driven Host, recording the order of host events.
type fakeHost struct {
	document  map[string]Element
	idle      map[int]func(IdleDeadline)
	frames    map[int]func(time.Duration)
	timers    map[int]*fakeTimer
	trace     []string
	mu        sync.Mutex
	nextID    int
	noIdle    bool
	noFrames  bool
	noTimers  bool
	frameTime time.Duration
}

func newFakeHost(ids ...string) *fakeHost {
	h := &fakeHost{
		document: make(map[string]Element),
		idle:     make(map[int]func(IdleDeadline)),
		frames:   make(map[int]func(time.Duration)),
		timers:   make(map[int]*fakeTimer),
	}
	for _, id := range ids {
		h.document[id] = id
	}
	return h
}

func (h *fakeHost) Idle() IdleRequester {
	if h.noIdle {
		return nil
	}
	return fakeIdle{h}
}

func (h *fakeHost) Frames() FrameRequester {
	if h.noFrames {
		return nil
	}
	return fakeFrames{h}
}

func (h *fakeHost) Timers() TimerHost {
	if h.noTimers {
		return nil
	}
	return fakeTimers{h}
}

func (h *fakeHost) Document() Document { return fakeDocument{h} }

func (h *fakeHost) record(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trace = append(h.trace, event)
}

func (h *fakeHost) Trace() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.trace...)
}

func (h *fakeHost) pendingIdle() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.idle)
}

func (h *fakeHost) pendingFrames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func (h *fakeHost) activeTimers() (active []*fakeTimer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.timers {
		if !t.cancelled {
			active = append(active, t)
		}
	}
	return active
}

// fireIdle invokes all pending idle callbacks with the given deadline,
// returning the number invoked.
func (h *fakeHost) fireIdle(d IdleDeadline) int {
	h.mu.Lock()
	callbacks := make([]func(IdleDeadline), 0, len(h.idle))
	for id, fn := range h.idle {
		callbacks = append(callbacks, fn)
		delete(h.idle, id)
	}
	h.mu.Unlock()
	if len(callbacks) != 0 {
		h.record("idle")
	}
	for _, fn := range callbacks {
		fn(d)
	}
	return len(callbacks)
}

// fireFrame invokes all pending frame callbacks, blocking until they return
// (i.e. until the scheduler releases the frame).
func (h *fakeHost) fireFrame() int {
	h.mu.Lock()
	h.frameTime += 16 * time.Millisecond
	ts := h.frameTime
	callbacks := make([]func(time.Duration), 0, len(h.frames))
	for id, fn := range h.frames {
		callbacks = append(callbacks, fn)
		delete(h.frames, id)
	}
	h.mu.Unlock()
	if len(callbacks) != 0 {
		h.record("frame")
	}
	for _, fn := range callbacks {
		fn(ts)
	}
	if len(callbacks) != 0 {
		h.record("frame-end")
	}
	return len(callbacks)
}

// fireTimers invokes all active timers.
func (h *fakeHost) fireTimers() int {
	timers := h.activeTimers()
	h.mu.Lock()
	for id, t := range h.timers {
		if !t.cancelled {
			delete(h.timers, id)
		}
	}
	h.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
	return len(timers)
}

type fakeIdle struct{ h *fakeHost }

func (x fakeIdle) RequestIdleCallback(fn func(IdleDeadline)) func() {
	x.h.mu.Lock()
	defer x.h.mu.Unlock()
	x.h.nextID++
	id := x.h.nextID
	x.h.idle[id] = fn
	return func() {
		x.h.mu.Lock()
		defer x.h.mu.Unlock()
		delete(x.h.idle, id)
	}
}

type fakeFrames struct{ h *fakeHost }

func (x fakeFrames) RequestAnimationFrame(fn func(time.Duration)) func() {
	x.h.mu.Lock()
	defer x.h.mu.Unlock()
	x.h.nextID++
	id := x.h.nextID
	x.h.frames[id] = fn
	return func() {
		x.h.mu.Lock()
		defer x.h.mu.Unlock()
		delete(x.h.frames, id)
	}
}

type fakeTimers struct{ h *fakeHost }

func (x fakeTimers) SetTimeout(fn func(), delay time.Duration) func() {
	x.h.mu.Lock()
	defer x.h.mu.Unlock()
	x.h.nextID++
	t := &fakeTimer{fn: fn, delay: delay}
	x.h.timers[x.h.nextID] = t
	return func() {
		x.h.mu.Lock()
		defer x.h.mu.Unlock()
		t.cancelled = true
	}
}

type fakeDocument struct{ h *fakeHost }

func (x fakeDocument) GetElementByID(id string) (Element, bool) {
	x.h.mu.Lock()
	defer x.h.mu.Unlock()
	el, ok := x.h.document[id]
	return el, ok
}

// fakeEngine is a scripted Engine. Each call to Step consumes the next
// scripted result, and once exhausted, returns Done.
type fakeEngine struct {
	work     *WorkSignal
	onStep   func(n int, shouldStop func() bool)
	rebuild  MutationBatch
	script   []StepResult
	events   []Event
	mu       sync.Mutex
	steps    int
	closed   bool
	rebuilds atomic.Int64
}

func newFakeEngine(script ...StepResult) *fakeEngine {
	return &fakeEngine{
		work:    NewWorkSignal(),
		rebuild: MutationBatch{"rebuild"},
		script:  script,
	}
}

func (e *fakeEngine) Rebuild(context.Context) (MutationBatch, error) {
	e.rebuilds.Add(1)
	return e.rebuild, nil
}

func (e *fakeEngine) WaitForWork(ctx context.Context) error {
	return e.work.Wait(ctx)
}

func (e *fakeEngine) Step(_ context.Context, shouldStop func() bool) (StepResult, error) {
	e.mu.Lock()
	e.steps++
	n := e.steps
	var result StepResult
	if len(e.script) != 0 {
		result = e.script[0]
		e.script = e.script[1:]
	} else {
		result = StepResult{Done: true}
	}
	onStep := e.onStep
	e.mu.Unlock()
	if onStep != nil {
		onStep(n, shouldStop)
	}
	return result, nil
}

func (e *fakeEngine) Steps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

func (e *fakeEngine) push(script ...StepResult) {
	e.mu.Lock()
	e.script = append(e.script, script...)
	e.mu.Unlock()
	e.work.Notify()
}

func (e *fakeEngine) SendEvent(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return context.Canceled
	}
	e.events = append(e.events, event)
	return nil
}

// fakePatcher records applied batches, and the host trace at each apply.
type fakePatcher struct {
	host     *fakeHost
	dispatch func(Event)
	applied  []MutationBatch
	hydrated []MutationBatch
	mu       sync.Mutex
	err      error
}

func (p *fakePatcher) Apply(_ Element, batch MutationBatch) error {
	if p.host != nil {
		p.host.record("apply")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.applied = append(p.applied, batch)
	return nil
}

func (p *fakePatcher) Applied() []MutationBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MutationBatch(nil), p.applied...)
}

// hydratingPatcher additionally implements Hydrator and EventBinder.
type hydratingPatcher struct {
	fakePatcher
}

func (p *hydratingPatcher) Hydrate(_ Element, batch MutationBatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hydrated = append(p.hydrated, batch)
	return nil
}

func (p *hydratingPatcher) BindEvents(dispatch func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatch = dispatch
}

// runScheduler runs s in the background, returning a function that cancels
// it and returns the result of Run.
func runScheduler(t testing.TB, s *Scheduler) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	var once sync.Once
	var result error
	stop = func() error {
		once.Do(func() {
			cancel()
			select {
			case result = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("scheduler did not stop")
			}
		})
		return result
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func waitForPhase(t testing.TB, s *Scheduler, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Phase() == phase }, 5*time.Second, time.Millisecond, "waiting for phase %s (at %s)", phase, s.Phase())
}

func waitForIdleRequest(t testing.TB, h *fakeHost) {
	t.Helper()
	require.Eventually(t, func() bool { return h.pendingIdle() != 0 }, 5*time.Second, time.Millisecond, "waiting for idle request")
}

func waitForFrameRequest(t testing.TB, h *fakeHost) {
	t.Helper()
	require.Eventually(t, func() bool { return h.pendingFrames() != 0 }, 5*time.Second, time.Millisecond, "waiting for frame request")
}
