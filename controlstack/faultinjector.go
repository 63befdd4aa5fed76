package controlstack

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ecatsim/pdo"
)

// ErrInjected is the error returned on an injected failure.
var ErrInjected = errors.New("controlstack: injected failure")

// FaultInjector wraps a Session and makes chosen calls fail. Calls are
// numbered from 0 in the order the injector sees them. While the bus is
// healthy every cycle reaches the session, so call n is bus cycle n until
// the first fault.
type FaultInjector struct {
	inner Session
	calls uint64

	failAt  map[uint64]bool
	panicAt map[uint64]bool
}

// NewFaultInjector wraps inner.
func NewFaultInjector(inner Session) *FaultInjector {
	return &FaultInjector{
		inner:   inner,
		failAt:  make(map[uint64]bool),
		panicAt: make(map[uint64]bool),
	}
}

// FailAt makes the given calls return ErrInjected without reaching the
// wrapped session.
func (f *FaultInjector) FailAt(calls ...uint64) *FaultInjector {
	for _, c := range calls {
		f.failAt[c] = true
	}

	return f
}

// PanicAt makes the given calls panic.
func (f *FaultInjector) PanicAt(calls ...uint64) *FaultInjector {
	for _, c := range calls {
		f.panicAt[c] = true
	}

	return f
}

// Calls returns how many calls have been made.
func (f *FaultInjector) Calls() uint64 {
	return f.calls
}

// Cycle forwards to the wrapped session unless the call is chosen to fail.
// A failing call still leaves a non-safe command behind, so that callers can
// check that a failed cycle never reaches the actuators.
func (f *FaultInjector) Cycle(in *pdo.Sensors, out *pdo.Commands) error {
	n := f.calls
	f.calls++

	if f.panicAt[n] {
		panic(fmt.Sprintf("injected panic at call %d", n))
	}

	if f.failAt[n] {
		for i := range out.Mode {
			out.Mode[i] = pdo.ModeTorque
			out.Torque[i] = 1
		}

		return fmt.Errorf("%w at call %d", ErrInjected, n)
	}

	return f.inner.Cycle(in, out)
}

// Close closes the wrapped session.
func (f *FaultInjector) Close() error {
	return f.inner.Close()
}
