package timing

import (
	"github.com/sarchlab/ecatsim/sim/hooking"
)

// TimeTeller tells the current simulated time.
type TimeTeller interface {
	Now() VTimeInSec
}

// EventScheduler accepts events to be handled in the future.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine runs scheduled events in time order. The monitor pauses and
// continues it while the bus is running.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run handles events until none is left.
	Run() error
	Pause()
	Continue()
}
