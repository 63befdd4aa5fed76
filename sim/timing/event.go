// Package timing provides the discrete-event engine that paces bus cycles in
// simulated time.
package timing

import (
	"github.com/sarchlab/ecatsim/sim/hooking"
)

// VTimeInSec is simulated time in seconds.
type VTimeInSec = float64

// An Event is handled by its Handler at its time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
}

// Hook positions of an engine. The item is the Event.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)

// EventBase holds the fields every event needs.
type EventBase struct {
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates an event for handler at time t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{time: t, handler: handler}
}

// Time returns the time of the event.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// A Handler handles the events scheduled for it. An event may only change
// the state of its own handler.
type Handler interface {
	Handle(e Event) error
}
