package framesched

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// log categories, used for rate limiting
const (
	categoryOverrun   = "overrun"
	categoryEmptyPass = "empty_pass"
)

// noisyRates limits warnings that may fire every frame under sustained load.
var noisyRates = map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
}

func newLogLimiter() *catrate.Limiter {
	return catrate.NewLimiter(noisyRates)
}

func (x *Scheduler) logStarting() {
	b := x.logger.Info()
	if !b.Enabled() {
		return
	}
	b.Str("root", x.opts.rootName).
		Bool("hydrate", x.opts.hydrate).
		Dur("max_idle_budget", x.opts.maxIdleBudget).
		Bool("fallback_timer", x.deadlines.timers != nil).
		Log("scheduler starting")
}

func (x *Scheduler) logRebuild(batch MutationBatch, hydrated bool) {
	b := x.logger.Info()
	if !b.Enabled() {
		return
	}
	b = b.Int("edits", len(batch))
	if hydrated {
		b.Log("hydrating, skipped rebuild edits")
		return
	}
	b.Log("applying rebuild edits")
}

func (x *Scheduler) logPass(p *pass) {
	b := x.logger.Debug()
	if !b.Enabled() {
		return
	}
	b.Int("steps", p.steps).
		Int("batches", len(p.batches)).
		Bool("done", p.done).
		Dur("budget", p.budget).
		Dur("elapsed", p.elapsed).
		Log("diff pass complete")
}

func (x *Scheduler) logEdits(batch MutationBatch) {
	b := x.logger.Trace()
	if !b.Enabled() {
		return
	}
	b.Int("edits", len(batch)).
		Any("batch", batch).
		Log("applying edits")
}

func (x *Scheduler) logOverrun(p *pass) {
	b := x.logger.Warning()
	if !b.Enabled() {
		return
	}
	if _, ok := x.limiter.Allow(categoryOverrun); !ok {
		b.Release()
		return
	}
	b.Dur("budget", p.budget).
		Dur("elapsed", p.elapsed).
		Int("steps", p.steps).
		Log("diff pass overran idle deadline")
}

func (x *Scheduler) logEmptyPass(p *pass) {
	b := x.logger.Debug()
	if !b.Enabled() {
		return
	}
	if _, ok := x.limiter.Allow(categoryEmptyPass); !ok {
		b.Release()
		return
	}
	b.Dur("budget", p.budget).
		Log("idle period expired before any batch was produced")
}

func (x *Scheduler) logFailure(err error) {
	b := x.logger.Err()
	if !b.Enabled() {
		return
	}
	b.Err(err).
		Log("scheduler stopped")
}
