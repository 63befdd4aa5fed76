package system

import (
	"sync/atomic"

	"github.com/sarchlab/ecatsim/convert"
	"github.com/sarchlab/ecatsim/sim/timing"
)

// DefaultBusFreq is the cycle rate of the reference bus.
const DefaultBusFreq = 2 * timing.KHz

// Driver runs a System on a discrete event engine, one Step per bus period.
// It plays the part of the simulation loop; build the System WithAdvance so
// that each Step also advances the simulator.
type Driver struct {
	*timing.TickingComponent

	system *System
	sim    convert.Simulator
	cycles uint64

	stopped atomic.Bool
}

// NewDriver creates a Driver that runs sys against sim for the given number
// of cycles at freq. Zero cycles runs until the engine stops.
func NewDriver(
	name string,
	engine timing.EventScheduler,
	freq timing.Freq,
	sys *System,
	sim convert.Simulator,
	cycles uint64,
) *Driver {
	d := &Driver{
		system: sys,
		sim:    sim,
		cycles: cycles,
	}
	d.TickingComponent = timing.NewTickingComponent(name, engine, freq, d)

	return d
}

// Start schedules the first cycle.
func (d *Driver) Start() {
	d.TickNow()
}

// Tick runs one cycle.
func (d *Driver) Tick() bool {
	if d.done() {
		return false
	}

	d.system.Step(d.sim)

	return !d.done()
}

func (d *Driver) done() bool {
	if d.stopped.Load() {
		return true
	}

	return d.cycles > 0 && d.system.Cycle() >= d.cycles
}

// Stop ends the run after the cycle in progress. It may be called from any
// goroutine.
func (d *Driver) Stop() {
	d.stopped.Store(true)
}

// System returns the driven System.
func (d *Driver) System() *System {
	return d.system
}

// Cycles returns the number of cycles the Driver runs, zero for no limit.
func (d *Driver) Cycles() uint64 {
	return d.cycles
}
