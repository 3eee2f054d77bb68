// Package webhost implements a browser [framesched.Host], on syscall/js.
//
// Idle and frame notifications map to requestIdleCallback and
// requestAnimationFrame, respectively. Browsers that lack
// requestIdleCallback are rejected with [framesched.ErrUnsupportedEnvironment]
// when the scheduler is created.
//
// Frame callbacks block the JavaScript event loop while the scheduler applies
// mutations, so patchers must only make synchronous DOM calls.
package webhost
