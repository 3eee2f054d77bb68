// Package framesched implements a render-scheduling loop, interleaving an
// interruptible diff computation with a host that exposes one-shot "idle" and
// "next frame" notifications.
//
// # Architecture
//
// A [Scheduler] composes two leaf sources and two external collaborators:
//
//   - [DeadlineSource] bridges the host idle callback into a [Deadline], which
//     may be polled via [Deadline.Expired] without ever suspending.
//   - [FrameSource] bridges the host frame callback into a [Frame].
//   - An [Engine] performs diff work incrementally, via [Engine.Step].
//   - A [Patcher] applies each [MutationBatch] to the live root element.
//
// Each iteration of [Scheduler.Run] is strictly sequential:
//
//  1. wait for pending work ([Engine.WaitForWork])
//  2. wait for an idle period ([DeadlineSource.Wait])
//  3. step the engine until it reports done, or the deadline expires
//  4. wait for the next frame ([FrameSource.Wait])
//  5. apply every batch produced in step 3, in order, then release the frame
//
// Diff work is therefore never computed during a frame callback, and mutations
// are never applied outside of one.
//
// # Hosts
//
// The host environment is abstracted by [Host]. The evhost subpackage provides
// a native implementation, driven by github.com/joeycumines/go-eventloop, and
// the webhost subpackage provides a browser implementation (js/wasm only).
// Hosts that lack the idle or frame notification APIs are rejected with
// [ErrUnsupportedEnvironment], rather than silently degrading.
//
// # Usage
//
//	sched, err := framesched.New(host, engine, patcher,
//	    framesched.WithRootName("app"),
//	    framesched.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
package framesched
