// Package toysim is a small deterministic joint-space simulator that exposes
// the channels of the reference biped. Each motor is a damped rotor pulled
// toward a rest pose; the floating base stays upright and loaded. It exists so
// that the bridge can be run and tested without a full physics engine, and it
// can inject the sensor and actuator failures a real bus would see.
package toysim

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ecatsim/convert"
	"github.com/sarchlab/ecatsim/pdo"
)

// ErrNoSuchChannel is returned when a channel index is out of range.
var ErrNoSuchChannel = errors.New("toysim: no such channel")

// Config holds the physical parameters of the model.
type Config struct {
	Timestep  float64
	Inertia   float64
	Damping   float64
	Stiffness float64
	RestPose  [pdo.NumMotors]float64
	// BodyMass sets the load split over the two feet.
	BodyMass float64
	// BatteryDrain is the charge lost per simulated second.
	BatteryDrain float64
}

// DefaultConfig returns a 2 kHz model with the reference standing pose.
func DefaultConfig() Config {
	return Config{
		Timestep:     5e-4,
		Inertia:      0.3,
		Damping:      2.0,
		Stiffness:    20.0,
		RestPose:     [pdo.NumMotors]float64{0, 0, 0.5, -1.2, -1.6, 0, 0, 0.5, -1.2, -1.6},
		BodyMass:     31.0,
		BatteryDrain: 1e-4,
	}
}

const gravity = 9.81

type channelKey struct {
	kind  convert.SensorKind
	index int
}

// Robot is the simulated model. It is not safe for concurrent use.
type Robot struct {
	cfg  Config
	time float64

	q      [pdo.NumMotors]float64
	v      [pdo.NumMotors]float64
	effort [pdo.NumMotors]float64

	battery float64
	estop   bool

	channelCounts map[convert.SensorKind]int
	numActuators  int

	sensorOverrides map[channelKey]float64
	readErrors      map[channelKey]error
	writeErrors     map[int]error
	advanceErr      error

	steps uint64
}

var _ convert.Simulator = (*Robot)(nil)

// New creates a robot resting in cfg.RestPose with a full battery.
func New(cfg Config) *Robot {
	r := &Robot{
		cfg:             cfg,
		q:               cfg.RestPose,
		battery:         1,
		channelCounts:   make(map[convert.SensorKind]int),
		numActuators:    pdo.NumMotors,
		sensorOverrides: make(map[channelKey]float64),
		readErrors:      make(map[channelKey]error),
		writeErrors:     make(map[int]error),
	}

	for _, k := range convert.SensorKinds() {
		r.channelCounts[k] = convert.ExpectedChannels(k)
	}

	return r
}

// NumChannels reports how many channels of kind the model exposes.
func (r *Robot) NumChannels(kind convert.SensorKind) int {
	return r.channelCounts[kind]
}

// NumActuators reports how many actuators the model exposes.
func (r *Robot) NumActuators() int {
	return r.numActuators
}

// Time returns the simulated time in seconds.
func (r *Robot) Time() float64 {
	return r.time
}

// Steps returns how many times Advance succeeded.
func (r *Robot) Steps() uint64 {
	return r.steps
}

// Position returns the simulator-side angle of motor i.
func (r *Robot) Position(i int) float64 {
	return r.q[i]
}

// Effort returns the effort currently applied by actuator i.
func (r *Robot) Effort(i int) float64 {
	if i < 0 || i >= pdo.NumMotors {
		return 0
	}

	return r.effort[i]
}

// SetEffort sets the effort applied by actuator i during the next step.
func (r *Robot) SetEffort(i int, effort float64) error {
	if i < 0 || i >= r.numActuators || i >= pdo.NumMotors {
		return fmt.Errorf("%w: actuator %d", ErrNoSuchChannel, i)
	}

	if err := r.writeErrors[i]; err != nil {
		return err
	}

	r.effort[i] = effort

	return nil
}

// Advance integrates the model by one timestep with semi-implicit Euler.
func (r *Robot) Advance() error {
	if r.advanceErr != nil {
		return r.advanceErr
	}

	dt := r.cfg.Timestep
	for i := range r.q {
		spring := r.cfg.Stiffness * (r.q[i] - r.cfg.RestPose[i])
		acc := (r.effort[i] - r.cfg.Damping*r.v[i] - spring) / r.cfg.Inertia
		r.v[i] += acc * dt
		r.q[i] += r.v[i] * dt
	}

	r.battery -= r.cfg.BatteryDrain * dt
	if r.battery < 0 {
		r.battery = 0
	}

	r.time += dt
	r.steps++

	return nil
}

// ReadSensor returns the current value of one sensor channel.
func (r *Robot) ReadSensor(kind convert.SensorKind, index int) (float64, error) {
	if index < 0 || index >= r.channelCounts[kind] {
		return 0, fmt.Errorf("%w: %s[%d]", ErrNoSuchChannel, kind, index)
	}

	key := channelKey{kind, index}
	if err := r.readErrors[key]; err != nil {
		return 0, err
	}

	if v, ok := r.sensorOverrides[key]; ok {
		return v, nil
	}

	return r.sensorValue(kind, index), nil
}

func (r *Robot) sensorValue(kind convert.SensorKind, index int) float64 {
	switch kind {
	case convert.KindMotorPosition:
		return r.q[index]
	case convert.KindMotorVelocity:
		return r.v[index]
	case convert.KindMotorTorque:
		return r.effort[index]
	case convert.KindJointPosition:
		return r.jointPosition(index)
	case convert.KindJointVelocity:
		return r.jointVelocity(index)
	case convert.KindOrientation:
		return [4]float64{1, 0, 0, 0}[index]
	case convert.KindAngularVelocity:
		return 0
	case convert.KindLinearAcceleration:
		return [3]float64{0, 0, gravity}[index]
	case convert.KindMagneticField:
		return [3]float64{0.2, 0, -0.4}[index]
	case convert.KindFootForce:
		return r.cfg.BodyMass * gravity / pdo.NumFeet
	case convert.KindBattery:
		return r.battery
	case convert.KindEStop:
		if r.estop {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// The shin deflects slightly with knee torque, and the tarsus follows the
// knee through the leg's four-bar linkage.
func (r *Robot) jointPosition(index int) float64 {
	knee := pdo.LeftKnee
	if index >= 2 {
		knee = pdo.RightKnee
	}

	if index%2 == 0 {
		return r.effort[knee] * 1e-4
	}

	return -r.q[knee] + 0.227
}

func (r *Robot) jointVelocity(index int) float64 {
	knee := pdo.LeftKnee
	if index >= 2 {
		knee = pdo.RightKnee
	}

	if index%2 == 0 {
		return 0
	}

	return -r.v[knee]
}
