package timing

import (
	"sync"

	"github.com/sarchlab/ecatsim/sim/hooking"
)

// TickEvent asks a ticking component to run one cycle.
type TickEvent struct {
	EventBase
}

// A Ticker does one cycle of work per tick. It returns false when it has
// nothing more to do, which stops the ticking until someone ticks it again.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules at most one pending tick for a handler, aligned to
// the edges of its frequency.
type TickScheduler struct {
	lock    sync.Mutex
	handler Handler
	engine  EventScheduler
	freq    Freq

	// next is the time of the pending tick, -1 before the first one.
	next VTimeInSec
}

// NewTickScheduler creates a scheduler of ticks for handler.
func NewTickScheduler(
	handler Handler,
	engine EventScheduler,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		engine:  engine,
		freq:    freq,
		next:    -1,
	}
}

// TickNow schedules a tick at the current edge, unless one is pending.
func (t *TickScheduler) TickNow() {
	t.scheduleAt(t.freq.ThisTick(t.engine.Now()))
}

// TickLater schedules a tick at the next edge, unless one is pending.
func (t *TickScheduler) TickLater() {
	t.scheduleAt(t.freq.NextTick(t.engine.Now()))
}

func (t *TickScheduler) scheduleAt(at VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.next >= at {
		return
	}

	t.next = at
	t.engine.Schedule(TickEvent{EventBase{time: at, handler: t.handler}})
}

// TickingComponent drives a Ticker once per period for as long as it makes
// progress.
type TickingComponent struct {
	*hooking.HookableBase
	*TickScheduler

	name   string
	ticker Ticker
}

// NewTickingComponent creates a component named name that ticks ticker at
// freq on engine.
func NewTickingComponent(
	name string,
	engine EventScheduler,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		ticker:       ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// Name returns the name of the component.
func (c *TickingComponent) Name() string {
	return c.name
}

// Handle runs one tick and schedules the next if the ticker made progress.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}
