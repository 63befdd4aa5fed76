// Package convert maps between the simulator's native joint and sensor
// quantities and the process data image. All functions are stateless; the
// simulator is borrowed for the duration of a call and never retained.
package convert

import (
	"fmt"

	"github.com/sarchlab/ecatsim/pdo"
)

// SensorKind identifies a group of simulator sensor channels.
type SensorKind int

// Sensor kinds exposed by the simulator.
const (
	KindMotorPosition SensorKind = iota
	KindMotorVelocity
	KindMotorTorque
	KindJointPosition
	KindJointVelocity
	KindOrientation
	KindAngularVelocity
	KindLinearAcceleration
	KindMagneticField
	KindFootForce
	KindBattery
	KindEStop

	numSensorKinds
)

// SensorKinds lists every kind in the order they are read.
func SensorKinds() []SensorKind {
	kinds := make([]SensorKind, 0, numSensorKinds)
	for k := SensorKind(0); k < numSensorKinds; k++ {
		kinds = append(kinds, k)
	}

	return kinds
}

func (k SensorKind) String() string {
	switch k {
	case KindMotorPosition:
		return "motor_position"
	case KindMotorVelocity:
		return "motor_velocity"
	case KindMotorTorque:
		return "motor_torque"
	case KindJointPosition:
		return "joint_position"
	case KindJointVelocity:
		return "joint_velocity"
	case KindOrientation:
		return "orientation"
	case KindAngularVelocity:
		return "angular_velocity"
	case KindLinearAcceleration:
		return "linear_acceleration"
	case KindMagneticField:
		return "magnetic_field"
	case KindFootForce:
		return "foot_force"
	case KindBattery:
		return "battery"
	case KindEStop:
		return "estop"
	default:
		return fmt.Sprintf("SensorKind(%d)", int(k))
	}
}

// ExpectedChannels returns how many channels of kind the process data image
// carries.
func ExpectedChannels(kind SensorKind) int {
	switch kind {
	case KindMotorPosition, KindMotorVelocity, KindMotorTorque:
		return pdo.NumMotors
	case KindJointPosition, KindJointVelocity:
		return pdo.NumJoints
	case KindOrientation:
		return 4
	case KindAngularVelocity, KindLinearAcceleration, KindMagneticField:
		return 3
	case KindFootForce:
		return pdo.NumFeet
	case KindBattery, KindEStop:
		return 1
	default:
		return 0
	}
}

// Simulator is the view of the physics engine the bridge needs. Channel
// indices follow the process data image ordering. Positions and efforts are
// in the simulator's own joint convention; the Mapping converts them.
type Simulator interface {
	// NumChannels reports how many channels of kind the model exposes.
	NumChannels(kind SensorKind) int

	// NumActuators reports how many actuators accept efforts.
	NumActuators() int

	// ReadSensor returns the current value of one sensor channel.
	ReadSensor(kind SensorKind, index int) (float64, error)

	// Effort returns the effort currently applied by actuator index.
	Effort(index int) float64

	// SetEffort sets the effort actuator index applies during the next
	// integration step.
	SetEffort(index int, effort float64) error

	// Advance integrates the model by one fixed timestep.
	Advance() error

	// Time returns the simulated time in seconds.
	Time() float64
}
