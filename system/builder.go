package system

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ecatsim/controlstack"
	"github.com/sarchlab/ecatsim/convert"
	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/sim/hooking"
)

var (
	// ErrSimulatorPanic wraps a panic raised by the simulator during a cycle.
	ErrSimulatorPanic = errors.New("system: simulator panicked")

	// ErrHookPanic wraps a panic raised by a hook during a cycle.
	ErrHookPanic = errors.New("system: hook panicked")

	// ErrNoSession is returned by Build when no live session was given.
	ErrNoSession = errors.New("system: no control stack session")
)

// Builder can build Systems.
type Builder struct {
	config  ecat.Config
	mapping convert.Mapping
	session *controlstack.Handle
	advance bool
	hooks   []hooking.Hook
}

// MakeBuilder returns a Builder with the default bus thresholds and the
// default mapping.
func MakeBuilder() Builder {
	return Builder{
		config:  ecat.DefaultConfig(),
		mapping: convert.DefaultMapping(),
	}
}

// WithConfig sets the bus thresholds.
func (b Builder) WithConfig(config ecat.Config) Builder {
	b.config = config
	return b
}

// WithMapping sets the conversion conventions.
func (b Builder) WithMapping(mapping convert.Mapping) Builder {
	b.mapping = mapping
	return b
}

// WithSession sets the control stack session. Build moves the session out of
// the handle; if Build fails the handle keeps it.
func (b Builder) WithSession(session *controlstack.Handle) Builder {
	b.session = session
	return b
}

// WithAdvance makes every Step advance the simulator by one timestep before
// reading it. By default the caller steps the simulator.
func (b Builder) WithAdvance(advance bool) Builder {
	b.advance = advance
	return b
}

// WithHook registers a hook on the built System.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build creates a System for sim. It returns a configuration error if the
// thresholds or the mapping are invalid, if sim does not expose the channels
// of the process data image, or if there is no session.
func (b Builder) Build(sim convert.Simulator) (*System, error) {
	machine, err := ecat.NewMachine(b.config)
	if err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}

	if err := b.mapping.Validate(); err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}

	if err := convert.ValidateLayout(sim); err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}

	if !b.session.Valid() {
		return nil, ErrNoSession
	}

	s := &System{
		HookableBase: hooking.NewHookableBase(),
		mapping:      b.mapping,
		machine:      machine,
		session:      b.session.Move(),
		advance:      b.advance,
	}

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	return s, nil
}
