package timing

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/sarchlab/ecatsim/sim/hooking"
)

// A SerialEngine runs events one after another on the goroutine that calls
// Run. Pause and Continue may be called from other goroutines.
type SerialEngine struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	now      VTimeInSec
	queue    *eventQueue

	pausedLock sync.Mutex
	paused     bool
	// gate is held while an event runs and while the engine is paused.
	gate sync.Mutex

	runLock sync.Mutex
}

// NewSerialEngine creates an engine at time zero with no events.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase: hooking.NewHookableBase(),
		queue:        newEventQueue(),
	}
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule queues evt. Scheduling into the past is a programming error.
func (e *SerialEngine) Schedule(evt Event) {
	if evt.Time() < e.Now() {
		log.Panicf("timing: scheduling an event at %.10f, before now %.10f",
			evt.Time(), e.Now())
	}

	e.queue.Push(evt)
}

// Now returns the time of the event being handled, or of the last one.
func (e *SerialEngine) Now() VTimeInSec {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.now
}

func (e *SerialEngine) setNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run handles events in time order until none is left. It stops at the
// first handler error.
func (e *SerialEngine) Run() error {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	for e.queue.Len() > 0 {
		if err := e.runOne(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) runOne() error {
	e.gate.Lock()
	defer e.gate.Unlock()

	evt := e.queue.Pop()
	e.setNow(evt.Time())

	ctx := hooking.HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	hookErr := e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	err = errors.Join(err, hookErr, e.InvokeHook(ctx))

	if err != nil {
		return fmt.Errorf("timing: event %s @ %.10f: %w",
			reflect.TypeOf(evt), evt.Time(), err)
	}

	return nil
}

// Pause holds the engine before its next event.
func (e *SerialEngine) Pause() {
	e.pausedLock.Lock()
	defer e.pausedLock.Unlock()

	if e.paused {
		return
	}

	e.gate.Lock()
	e.paused = true
}

// Continue releases a paused engine.
func (e *SerialEngine) Continue() {
	e.pausedLock.Lock()
	defer e.pausedLock.Unlock()

	if !e.paused {
		return
	}

	e.paused = false
	e.gate.Unlock()
}
