// Package system coordinates one emulated EtherCAT bus cycle per simulation
// step.
//
// Each call to Step reads the simulator into the sensor region of the process
// data image, runs the control stack over the image, evaluates the bus state
// machine once, and writes the command region back into the simulator. The
// commands computed by the control stack reach the simulator only while the
// bus is Operational; in every other state the safe command is applied
// instead. Step never fails and never panics; anything that goes wrong inside
// a cycle becomes a fault of the bus, visible through Status.
package system

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ecatsim/controlstack"
	"github.com/sarchlab/ecatsim/convert"
	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/pdo"
	"github.com/sarchlab/ecatsim/sim/hooking"
)

// Hook positions of a cycle.
var (
	// HookPosCycleStart fires before the sensors are read. The item is the
	// number of the cycle, as a uint64.
	HookPosCycleStart = &hooking.HookPos{Name: "CycleStart"}

	// HookPosTransition fires when the bus state changes. The item is the
	// ecat.Transition.
	HookPosTransition = &hooking.HookPos{Name: "Transition"}

	// HookPosCycleEnd fires after the commands are applied. The item is the
	// CycleInfo of the cycle.
	HookPosCycleEnd = &hooking.HookPos{Name: "CycleEnd"}
)

// CycleInfo describes a completed cycle.
type CycleInfo struct {
	Cycle      uint64
	Time       float64
	Transition ecat.Transition
	Status     ecat.Status
	// Image is the process data image as applied.
	Image pdo.Image
	// Efforts are the efforts written this cycle, in the hardware
	// convention. They hold the previous efforts if the write failed.
	Efforts [pdo.NumMotors]float64
	// ApplyErr is set when writing the commands failed. It is reported to the
	// state machine in the next cycle, so Transition and Status still show
	// the state evaluated before the write failed, while Image and Efforts
	// show what the actuators actually hold.
	ApplyErr error
}

// System is the cycle coordinator. It exclusively owns the process data
// image, the bus state and the control stack session. It is not safe for
// concurrent use.
type System struct {
	*hooking.HookableBase

	mapping convert.Mapping
	machine *ecat.Machine
	session *controlstack.Handle
	advance bool

	image   pdo.Image
	efforts [pdo.NumMotors]float64
	cycle   uint64

	pendingFault error
}

// New creates a System with the default configuration. It takes ownership of
// session and checks sim against the process data layout.
func New(
	sim convert.Simulator,
	session *controlstack.Handle,
) (*System, error) {
	return MakeBuilder().WithSession(session).Build(sim)
}

// Step runs one bus cycle against sim and returns the bus status after the
// cycle. sim is only used for the duration of the call.
func (s *System) Step(sim convert.Simulator) ecat.Status {
	cycle := s.cycle

	s.invokeHooks(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosCycleStart,
		Item:   cycle,
	})

	now, readErr := s.read(sim)

	var controlErr error
	if readErr == nil && s.machine.State() != ecat.Fault {
		controlErr = s.control()
	}

	t := s.machine.Evaluate(ecat.Outcome{
		Cycle:      cycle,
		Time:       now,
		ReadErr:    readErr,
		ControlErr: controlErr,
	})

	applyErr := s.apply(sim, t.To)

	s.cycle++

	if t.Changed() {
		s.invokeHooks(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosTransition,
			Item:   t,
		})
	}

	status := s.machine.Snapshot()

	s.invokeHooks(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosCycleEnd,
		Item: CycleInfo{
			Cycle:      cycle,
			Time:       now,
			Transition: t,
			Status:     status,
			Image:      s.image,
			Efforts:    s.efforts,
			ApplyErr:   applyErr,
		},
	})

	return status
}

func (s *System) read(sim convert.Simulator) (now float64, err error) {
	pending := s.pendingFault
	s.pendingFault = nil

	err = protect(func() error {
		if s.advance {
			if err := sim.Advance(); err != nil {
				return fmt.Errorf("system: advancing simulator: %w", err)
			}
		}

		now = sim.Time()

		sensors, err := convert.ToProcessImage(sim, s.mapping)
		s.image.Sensors = sensors

		return err
	})
	if err != nil {
		s.image.ResetSensors()

		if pending != nil {
			err = errors.Join(err, pending)
		}

		return now, err
	}

	return now, pending
}

func (s *System) control() error {
	s.image.ResetCommands()

	in := s.image.Sensors
	if err := s.session.Cycle(&in, &s.image.Commands); err != nil {
		return fmt.Errorf("system: control cycle %d: %w", s.cycle, err)
	}

	return nil
}

func (s *System) apply(sim convert.Simulator, state ecat.State) error {
	if !state.AppliesCommands() {
		s.image.Commands = pdo.SafeCommands()
	}

	err := s.write(sim)
	if err == nil {
		return nil
	}

	if !s.image.Commands.IsSafe() {
		s.image.Commands = pdo.SafeCommands()
		if safeErr := s.write(sim); safeErr != nil {
			err = fmt.Errorf("%w; safe command also failed: %w", err, safeErr)
		}
	}

	applyErr := fmt.Errorf("system: applying commands of cycle %d: %w",
		s.cycle, err)
	s.addPendingFault(applyErr)

	return applyErr
}

func (s *System) addPendingFault(err error) {
	if s.pendingFault == nil {
		s.pendingFault = err
		return
	}

	s.pendingFault = errors.Join(s.pendingFault, err)
}

// invokeHooks calls every hook at ctx.Pos. A panicking hook does not stop
// the cycle or the other hooks; the panic becomes a fault that is reported
// with the sensors read next, which is this cycle's read for CycleStart.
func (s *System) invokeHooks(ctx hooking.HookCtx) {
	if err := s.InvokeHook(ctx); err != nil {
		s.addPendingFault(fmt.Errorf("%w: %w", ErrHookPanic, err))
	}
}

func (s *System) write(sim convert.Simulator) error {
	return protect(func() error {
		efforts, err := convert.Efforts(s.image, s.mapping)
		if err != nil {
			return err
		}

		if err := convert.FromProcessImage(s.image, sim, s.mapping); err != nil {
			return err
		}

		s.efforts = efforts

		return nil
	})
}

// protect runs f and turns a panic into an error.
func protect(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSimulatorPanic, r)
		}
	}()

	return f()
}

// State returns the current bus state.
func (s *System) State() ecat.State {
	return s.machine.State()
}

// Status returns the bus state and fault counters.
func (s *System) Status() ecat.Status {
	return s.machine.Snapshot()
}

// Image returns a copy of the process data image of the last cycle.
func (s *System) Image() pdo.Image {
	return s.image
}

// Cycle returns the number of cycles run.
func (s *System) Cycle() uint64 {
	return s.cycle
}

// Efforts returns the efforts last written, in the hardware convention.
func (s *System) Efforts() [pdo.NumMotors]float64 {
	return s.efforts
}

// Mapping returns the conversion conventions in use.
func (s *System) Mapping() convert.Mapping {
	return s.mapping
}

// Config returns the bus thresholds in use.
func (s *System) Config() ecat.Config {
	return s.machine.Config()
}

// Close releases the control stack session. Calling Close more than once
// does nothing.
func (s *System) Close() error {
	return s.session.Release()
}
