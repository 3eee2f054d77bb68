package framesched

type (
	// Event is a host event (user input etc.) dispatched to the engine.
	Event struct {
		// Data is the event payload, interpreted by the engine.
		Data any

		// Name is the event type, e.g. "click".
		Name string

		// ElementID identifies the target element, as assigned by the engine.
		ElementID uint64
	}

	// EventSink may be implemented by an [Engine], to receive dispatched
	// events. SendEvent must not block, and should only fail if the engine's
	// event queue is closed.
	EventSink interface {
		SendEvent(event Event) error
	}

	// EventBinder may be implemented by a [Patcher], to receive the dispatch
	// function it should invoke from host event listeners.
	EventBinder interface {
		BindEvents(dispatch func(event Event))
	}
)

// NewDispatcher returns a dispatch function forwarding events to sink. If the
// sink rejects an event, the dispatch function panics with a *[DispatchError]
// (matching [ErrEventDispatch]).
func NewDispatcher(sink EventSink) func(event Event) {
	if sink == nil {
		panic("framesched: nil event sink")
	}
	return func(event Event) {
		if err := sink.SendEvent(event); err != nil {
			panic(&DispatchError{Cause: err, Event: event})
		}
	}
}
