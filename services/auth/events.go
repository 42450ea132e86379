package authsvc

import "github.com/tsedeniyafiseha/school-management-system/core/auth"

// emitter fans auth-state changes out to the provider's event stream.
// Sends never block; if the consumer lags, events are dropped.
type emitter struct {
	events chan auth.Event
}

func newEmitter() emitter {
	return emitter{events: make(chan auth.Event, 16)}
}

func (e emitter) Events() <-chan auth.Event { return e.events }

func (e emitter) emit(ev auth.Event) {
	select {
	case e.events <- ev:
	default:
	}
}
