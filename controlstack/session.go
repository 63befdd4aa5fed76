// Package controlstack holds the boundary to the control software that runs
// on the robot. The bridge treats the control stack as an opaque per-cycle
// transform from the sensor region to the command region, reached through a
// Session. A Session is owned by exactly one Handle at a time.
package controlstack

import (
	"errors"

	"github.com/sarchlab/ecatsim/pdo"
)

// A Session is one running instance of the control stack.
type Session interface {
	// Cycle runs one bus cycle. It reads in and fills out. out is cleared
	// before the call.
	Cycle(in *pdo.Sensors, out *pdo.Commands) error

	// Close releases the resources of the session.
	Close() error
}

var (
	// ErrPanic wraps a panic raised inside a session.
	ErrPanic = errors.New("controlstack: session panicked")

	// ErrNoSession is returned by a handle that does not own a session.
	ErrNoSession = errors.New("controlstack: handle owns no session")
)

// Func turns a function into a Session with nothing to close.
type Func func(in *pdo.Sensors, out *pdo.Commands) error

// Cycle calls f.
func (f Func) Cycle(in *pdo.Sensors, out *pdo.Commands) error {
	return f(in, out)
}

// Close does nothing.
func (f Func) Close() error {
	return nil
}
