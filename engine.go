package framesched

import (
	"context"
)

type (
	// Mutation is an opaque mutation record, produced by an [Engine] and
	// interpreted only by a [Patcher].
	Mutation any

	// MutationBatch is the ordered sequence of mutations produced by one diff
	// pass. The scheduler owns a batch until it is passed to [Patcher.Apply],
	// and never retains it across iterations.
	MutationBatch []Mutation

	// StepResult is the outcome of a single [Engine.Step].
	StepResult struct {
		// Batch is the mutations produced by this step, if any. An engine may
		// produce a batch upon reaching a natural pause point, even if Done is
		// false.
		Batch MutationBatch

		// Done indicates there is no more work for this pass.
		Done bool
	}

	// Engine is the diff engine driven by a [Scheduler].
	Engine interface {
		// Rebuild performs the initial full-tree diff.
		Rebuild(ctx context.Context) (MutationBatch, error)

		// WaitForWork blocks until work is pending, returning immediately if
		// it already is. It consumes the pending state. See [WorkSignal].
		WaitForWork(ctx context.Context) error

		// Step performs an increment of diff work. The shouldStop predicate
		// never suspends, and reports whether the current idle period has
		// expired. Step may block on the engine's own async dependencies.
		Step(ctx context.Context, shouldStop func() bool) (StepResult, error)
	}

	// Patcher applies mutations to the live host document. Application of a
	// batch is assumed to be all-or-nothing, the scheduler has no recovery
	// path for a partially applied batch.
	Patcher interface {
		// Apply applies batch to root. It is only ever called within a frame.
		Apply(root Element, batch MutationBatch) error
	}

	// Hydrator may be implemented by a [Patcher], to receive the initial
	// rebuild batch when hydrating, i.e. when the document was already
	// materialized (e.g. by server-rendered markup), and only needs id or
	// event wiring.
	Hydrator interface {
		Hydrate(root Element, batch MutationBatch) error
	}
)
