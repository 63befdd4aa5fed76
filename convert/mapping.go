package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/ecatsim/pdo"
)

// Axis maps one hardware IMU axis to a simulator axis.
type Axis struct {
	// Source is the simulator axis (0 x, 1 y, 2 z) feeding this hardware axis.
	Source int
	// Sign is +1 or -1.
	Sign float64
}

// ActuatorModel holds the limits and gains of one actuator, in the hardware
// convention.
type ActuatorModel struct {
	// TorqueLimit bounds the magnitude of the output torque.
	TorqueLimit float64
	// PositionMin and PositionMax bound position-mode targets.
	PositionMin float64
	PositionMax float64
	// Kp and Kd are the gains of the position-mode servo loop.
	Kp float64
	Kd float64
}

// Ranges bounds the sensor values a real robot can report. A reading outside
// these bounds is treated as a failed read.
type Ranges struct {
	MaxAbsPosition          float64
	MaxAbsVelocity          float64
	MaxAbsTorque            float64
	MaxAbsAngularVelocity   float64
	MaxAbsAcceleration      float64
	MaxAbsMagneticField     float64
	MaxFootForce            float64
	QuaternionNormTolerance float64
	// LowBattery is the charge under which StatusLowBattery is raised.
	LowBattery float64
}

// Mapping describes how simulator quantities relate to the hardware
// convention of the process data image.
//
// Hardware angle = Sign * simulator angle + Offset. Velocities and torques
// use the sign only. IMU vectors are remapped axis by axis with IMUAxes, and
// the quaternion vector part is remapped the same way, which is only valid
// for proper rotations; Validate enforces that.
type Mapping struct {
	MotorSign   [pdo.NumMotors]float64
	MotorOffset [pdo.NumMotors]float64
	JointSign   [pdo.NumJoints]float64
	JointOffset [pdo.NumJoints]float64
	IMUAxes     [3]Axis
	Ranges      Ranges
	Actuators   [pdo.NumMotors]ActuatorModel
}

var legActuators = [5]ActuatorModel{
	{TorqueLimit: 112.5, PositionMin: -0.2618, PositionMax: 0.3927, Kp: 400, Kd: 4},
	{TorqueLimit: 112.5, PositionMin: -0.3927, PositionMax: 0.3927, Kp: 200, Kd: 4},
	{TorqueLimit: 195.2, PositionMin: -0.8727, PositionMax: 1.3963, Kp: 200, Kd: 10},
	{TorqueLimit: 195.2, PositionMin: -2.8623, PositionMax: -0.6458, Kp: 500, Kd: 20},
	{TorqueLimit: 45.0, PositionMin: -2.4435, PositionMax: -0.5236, Kp: 20, Kd: 1},
}

// DefaultMapping returns the conventions of the reference robot. The right
// leg hip roll and hip yaw encoders are mounted mirrored, so their signs are
// flipped; everything else, including the IMU frame, matches the simulator.
func DefaultMapping() Mapping {
	m := Mapping{
		IMUAxes: [3]Axis{{0, 1}, {1, 1}, {2, 1}},
		Ranges: Ranges{
			MaxAbsPosition:          2 * math.Pi,
			MaxAbsVelocity:          100,
			MaxAbsTorque:            500,
			MaxAbsAngularVelocity:   35,
			MaxAbsAcceleration:      160,
			MaxAbsMagneticField:     8,
			MaxFootForce:            5000,
			QuaternionNormTolerance: 1e-2,
			LowBattery:              0.15,
		},
	}

	for i := range m.MotorSign {
		m.MotorSign[i] = 1
		m.Actuators[i] = legActuators[i%5]
	}
	m.MotorSign[pdo.RightHipRoll] = -1
	m.MotorSign[pdo.RightHipYaw] = -1

	for i := range m.JointSign {
		m.JointSign[i] = 1
	}

	return m
}

func isUnitSign(s float64) bool {
	return s == 1 || s == -1
}

// Validate checks that the mapping is usable.
func (m Mapping) Validate() error {
	var errs []error

	for i, s := range m.MotorSign {
		if !isUnitSign(s) {
			errs = append(errs, fmt.Errorf("motor %s sign %g is not +1 or -1", pdo.MotorNames[i], s))
		}
	}

	for i, s := range m.JointSign {
		if !isUnitSign(s) {
			errs = append(errs, fmt.Errorf("joint %s sign %g is not +1 or -1", pdo.JointNames[i], s))
		}
	}

	if err := m.validateIMUAxes(); err != nil {
		errs = append(errs, err)
	}

	for i, a := range m.Actuators {
		if !(a.TorqueLimit > 0) {
			errs = append(errs, fmt.Errorf("motor %s torque limit %g must be positive", pdo.MotorNames[i], a.TorqueLimit))
		}

		if !(a.PositionMin < a.PositionMax) {
			errs = append(errs, fmt.Errorf("motor %s position range [%g, %g] is empty", pdo.MotorNames[i], a.PositionMin, a.PositionMax))
		}

		if a.Kp < 0 || a.Kd < 0 {
			errs = append(errs, fmt.Errorf("motor %s gains must not be negative", pdo.MotorNames[i]))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("convert: invalid mapping: %w", err)
	}

	return nil
}

func (m Mapping) validateIMUAxes() error {
	used := [3]bool{}
	sign := 1.0

	for i, a := range m.IMUAxes {
		if a.Source < 0 || a.Source > 2 || used[a.Source] {
			return fmt.Errorf("imu axes %v are not a permutation", m.IMUAxes)
		}
		used[a.Source] = true

		if !isUnitSign(a.Sign) {
			return fmt.Errorf("imu axis %d sign %g is not +1 or -1", i, a.Sign)
		}
		sign *= a.Sign
	}

	if permutationParity(m.IMUAxes)*sign != 1 {
		return fmt.Errorf("imu axes %v describe a reflection, not a rotation", m.IMUAxes)
	}

	return nil
}

func permutationParity(axes [3]Axis) float64 {
	inversions := 0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if axes[i].Source > axes[j].Source {
				inversions++
			}
		}
	}

	if inversions%2 == 0 {
		return 1
	}

	return -1
}

func (m Mapping) remap(v [3]float64) [3]float64 {
	var out [3]float64
	for i, a := range m.IMUAxes {
		out[i] = a.Sign * v[a.Source]
	}

	return out
}
