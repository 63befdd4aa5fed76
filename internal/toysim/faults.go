package toysim

import "github.com/sarchlab/ecatsim/convert"

// OverrideSensor makes channel kind[index] report value until cleared.
func (r *Robot) OverrideSensor(kind convert.SensorKind, index int, value float64) {
	r.sensorOverrides[channelKey{kind, index}] = value
}

// FailRead makes reads of channel kind[index] return err until cleared.
func (r *Robot) FailRead(kind convert.SensorKind, index int, err error) {
	r.readErrors[channelKey{kind, index}] = err
}

// FailWrite makes writes to actuator index return err until cleared.
func (r *Robot) FailWrite(index int, err error) {
	r.writeErrors[index] = err
}

// FailAdvance makes Advance return err until cleared.
func (r *Robot) FailAdvance(err error) {
	r.advanceErr = err
}

// ClearFaults removes every injected failure and override.
func (r *Robot) ClearFaults() {
	r.sensorOverrides = make(map[channelKey]float64)
	r.readErrors = make(map[channelKey]error)
	r.writeErrors = make(map[int]error)
	r.advanceErr = nil
}

// SetEStop presses or releases the emergency stop.
func (r *Robot) SetEStop(pressed bool) {
	r.estop = pressed
}

// SetChannelCount changes how many channels of kind the model claims to
// expose. It is used to model a simulator whose layout does not match the bus.
func (r *Robot) SetChannelCount(kind convert.SensorKind, n int) {
	r.channelCounts[kind] = n
}

// SetNumActuators changes how many actuators the model claims to expose.
func (r *Robot) SetNumActuators(n int) {
	r.numActuators = n
}
