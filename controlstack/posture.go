package controlstack

import "github.com/sarchlab/ecatsim/pdo"

// HoldPosture is a minimal controller that servoes every motor to a fixed
// posture with the actuators' position loops. It lets the motors go limp
// while the emergency stop is pressed.
type HoldPosture struct {
	Posture [pdo.NumMotors]float64

	cycles uint64
	closed bool
}

// StandingPosture is the motor posture of the reference robot standing.
var StandingPosture = [pdo.NumMotors]float64{
	0, 0, 0.5, -1.2, -1.6,
	0, 0, 0.5, -1.2, -1.6,
}

// NewHoldPosture creates a controller holding posture.
func NewHoldPosture(posture [pdo.NumMotors]float64) *HoldPosture {
	return &HoldPosture{Posture: posture}
}

// Cycle commands the posture.
func (c *HoldPosture) Cycle(in *pdo.Sensors, out *pdo.Commands) error {
	c.cycles++

	if in.Status&pdo.StatusEStop != 0 {
		*out = pdo.SafeCommands()
		return nil
	}

	for i := range out.Mode {
		out.Mode[i] = pdo.ModePosition
		out.PositionTarget[i] = c.Posture[i]
	}

	return nil
}

// Cycles returns how many cycles have run.
func (c *HoldPosture) Cycles() uint64 {
	return c.cycles
}

// Closed reports whether Close has been called.
func (c *HoldPosture) Closed() bool {
	return c.closed
}

// Close marks the controller closed.
func (c *HoldPosture) Close() error {
	c.closed = true
	return nil
}
