//go:build js && wasm

package webhost

import (
	"sync"
	"syscall/js"
	"time"

	"github.com/joeycumines/go-framesched"
)

// Host implements [framesched.Host] on the JavaScript global object.
type Host struct {
	global   js.Value
	document js.Value
}

type (
	idleAPI  struct{ global js.Value }
	frameAPI struct{ global js.Value }
	timerAPI struct{ global js.Value }
	document struct{ value js.Value }

	idleDeadline struct{ value js.Value }
)

var (
	_ framesched.Host           = (*Host)(nil)
	_ framesched.IdleRequester  = idleAPI{}
	_ framesched.FrameRequester = frameAPI{}
	_ framesched.TimerHost      = timerAPI{}
	_ framesched.Document       = document{}
	_ framesched.IdleDeadline   = idleDeadline{}
)

// New returns a [Host] bound to js.Global().
func New() *Host {
	global := js.Global()
	return &Host{
		global:   global,
		document: global.Get("document"),
	}
}

// Idle implements [framesched.Host], returning nil if requestIdleCallback is
// unavailable.
func (x *Host) Idle() framesched.IdleRequester {
	if !isFunction(x.global, "requestIdleCallback") || !isFunction(x.global, "cancelIdleCallback") {
		return nil
	}
	return idleAPI{x.global}
}

// Frames implements [framesched.Host], returning nil if
// requestAnimationFrame is unavailable.
func (x *Host) Frames() framesched.FrameRequester {
	if !isFunction(x.global, "requestAnimationFrame") || !isFunction(x.global, "cancelAnimationFrame") {
		return nil
	}
	return frameAPI{x.global}
}

// Timers implements [framesched.Host].
func (x *Host) Timers() framesched.TimerHost {
	if !isFunction(x.global, "setTimeout") || !isFunction(x.global, "clearTimeout") {
		return nil
	}
	return timerAPI{x.global}
}

// Document implements [framesched.Host]. Elements are js.Value instances.
func (x *Host) Document() framesched.Document {
	if x.document.Type() != js.TypeObject {
		return nil
	}
	return document{x.document}
}

func (x idleAPI) RequestIdleCallback(fn func(deadline framesched.IdleDeadline)) (cancel func()) {
	return register(x.global, "requestIdleCallback", "cancelIdleCallback", func(args []js.Value) {
		fn(idleDeadline{args[0]})
	})
}

func (x frameAPI) RequestAnimationFrame(fn func(timestamp time.Duration)) (cancel func()) {
	return register(x.global, "requestAnimationFrame", "cancelAnimationFrame", func(args []js.Value) {
		fn(fromMillis(args[0].Float()))
	})
}

func (x timerAPI) SetTimeout(fn func(), delay time.Duration) (cancel func()) {
	delayMs := (max(delay, 0) + time.Millisecond - 1) / time.Millisecond
	return register(x.global, "setTimeout", "clearTimeout", func([]js.Value) { fn() }, int(delayMs))
}

// register wraps fn in a one-shot js.Func, released after it fires, or is
// cancelled.
func register(global js.Value, request, cancelName string, fn func(args []js.Value), extra ...any) func() {
	var (
		cb   js.Func
		once sync.Once
	)
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		once.Do(cb.Release)
		fn(args)
		return nil
	})
	handle := global.Call(request, append([]any{cb}, extra...)...)
	return func() {
		once.Do(func() {
			global.Call(cancelName, handle)
			cb.Release()
		})
	}
}

func (x document) GetElementByID(id string) (framesched.Element, bool) {
	el := x.value.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return el, true
}

func (x idleDeadline) TimeRemaining() time.Duration {
	return max(fromMillis(x.value.Call("timeRemaining").Float()), 0)
}

func (x idleDeadline) DidTimeout() bool {
	return x.value.Get("didTimeout").Truthy()
}

func isFunction(v js.Value, name string) bool {
	return v.Get(name).Type() == js.TypeFunction
}

// fromMillis converts a DOMHighResTimeStamp.
func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
