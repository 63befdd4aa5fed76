package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/ecatsim/pdo"
)

// ValidateLayout checks that sim exposes exactly the channels the process
// data image carries. A mismatch is reported as a *LayoutError.
func ValidateLayout(sim Simulator) error {
	var mismatches []Mismatch

	for _, kind := range SensorKinds() {
		expected := ExpectedChannels(kind)
		actual := sim.NumChannels(kind)

		if expected != actual {
			mismatches = append(mismatches, Mismatch{
				Group:    kind.String(),
				Expected: expected,
				Actual:   actual,
			})
		}
	}

	if n := sim.NumActuators(); n != pdo.NumMotors {
		mismatches = append(mismatches, Mismatch{
			Group:    "actuators",
			Expected: pdo.NumMotors,
			Actual:   n,
		})
	}

	if len(mismatches) > 0 {
		return &LayoutError{Mismatches: mismatches}
	}

	return nil
}

type sensorReader struct {
	sim Simulator
	err error
}

// read returns the channel value, or 0 once any earlier read has failed. The
// first failure is kept.
func (r *sensorReader) read(
	kind SensorKind,
	index int,
	check func(v float64) bool,
) float64 {
	if r.err != nil {
		return 0
	}

	v, err := r.sim.ReadSensor(kind, index)
	switch {
	case err != nil:
		r.err = &ChannelError{Kind: kind, Index: index, Value: v, Err: err}
	case math.IsNaN(v) || math.IsInf(v, 0):
		r.err = &ChannelError{Kind: kind, Index: index, Value: v, Err: ErrNotFinite}
	case check != nil && !check(v):
		r.err = &ChannelError{Kind: kind, Index: index, Value: v, Err: ErrOutOfRange}
	}

	return v
}

func (r *sensorReader) readVector(
	kind SensorKind,
	limit float64,
) [3]float64 {
	var v [3]float64
	for i := range v {
		v[i] = r.read(kind, i, within(limit))
	}

	return v
}

func within(limit float64) func(float64) bool {
	return func(v float64) bool { return math.Abs(v) <= limit }
}

// ToProcessImage reads every sensor channel of sim and returns the sensor
// region in hardware convention. Every channel is populated; the first
// channel that cannot be read, is not finite, or is outside m.Ranges is
// returned as a *ChannelError together with a zero region.
func ToProcessImage(sim Simulator, m Mapping) (pdo.Sensors, error) {
	var s pdo.Sensors

	r := &sensorReader{sim: sim}
	rg := m.Ranges

	for i := 0; i < pdo.NumMotors; i++ {
		q := r.read(KindMotorPosition, i, within(rg.MaxAbsPosition))
		s.MotorPosition[i] = m.MotorSign[i]*q + m.MotorOffset[i]

		v := r.read(KindMotorVelocity, i, within(rg.MaxAbsVelocity))
		s.MotorVelocity[i] = m.MotorSign[i] * v

		tau := r.read(KindMotorTorque, i, within(rg.MaxAbsTorque))
		s.MotorTorque[i] = m.MotorSign[i] * tau
	}

	for i := 0; i < pdo.NumJoints; i++ {
		q := r.read(KindJointPosition, i, within(rg.MaxAbsPosition))
		s.JointPosition[i] = m.JointSign[i]*q + m.JointOffset[i]

		v := r.read(KindJointVelocity, i, within(rg.MaxAbsVelocity))
		s.JointVelocity[i] = m.JointSign[i] * v
	}

	s.IMU.Orientation = readOrientation(r, m)
	s.IMU.AngularVelocity = m.remap(r.readVector(KindAngularVelocity, rg.MaxAbsAngularVelocity))
	s.IMU.LinearAcceleration = m.remap(r.readVector(KindLinearAcceleration, rg.MaxAbsAcceleration))
	s.IMU.MagneticField = m.remap(r.readVector(KindMagneticField, rg.MaxAbsMagneticField))

	for i := 0; i < pdo.NumFeet; i++ {
		s.FootForce[i] = r.read(KindFootForce, i, func(v float64) bool {
			return v >= 0 && v <= rg.MaxFootForce
		})
	}

	s.BatteryCharge = r.read(KindBattery, 0, func(v float64) bool {
		return v >= 0 && v <= 1
	})
	estop := r.read(KindEStop, 0, nil)

	if r.err != nil {
		return pdo.Sensors{}, r.err
	}

	s.Status = pdo.StatusSimulated
	if estop != 0 {
		s.Status |= pdo.StatusEStop
	}
	if s.BatteryCharge < rg.LowBattery {
		s.Status |= pdo.StatusLowBattery
	}

	return s, nil
}

func readOrientation(r *sensorReader, m Mapping) [4]float64 {
	var q [4]float64
	for i := range q {
		q[i] = r.read(KindOrientation, i, within(1+m.Ranges.QuaternionNormTolerance))
	}

	if r.err != nil {
		return q
	}

	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if math.Abs(norm-1) > m.Ranges.QuaternionNormTolerance {
		r.err = &ChannelError{Kind: KindOrientation, Index: 0, Value: norm, Err: ErrOutOfRange}
		return q
	}

	vec := m.remap([3]float64{q[1], q[2], q[3]})

	return [4]float64{q[0], vec[0], vec[1], vec[2]}
}

// Efforts computes the output torque of every motor, in hardware convention,
// from the command region. Torque mode clamps the commanded torque to the
// actuator limit. Position mode clamps the target into the actuator range and
// runs a PD loop on the measured position and velocity; the result is clamped
// as well. Disabled motors produce zero. A non-finite command or an unknown
// mode fails the whole computation.
func Efforts(img pdo.Image, m Mapping) ([pdo.NumMotors]float64, error) {
	var out [pdo.NumMotors]float64

	for i := 0; i < pdo.NumMotors; i++ {
		act := m.Actuators[i]
		cmd := img.Commands

		switch cmd.Mode[i] {
		case pdo.ModeDisabled:
			out[i] = 0
		case pdo.ModeTorque:
			if !isFinite(cmd.Torque[i]) {
				return out, &CommandError{Motor: pdo.MotorNames[i], Err: ErrNotFinite}
			}

			out[i] = clamp(cmd.Torque[i], -act.TorqueLimit, act.TorqueLimit)
		case pdo.ModePosition:
			if !isFinite(cmd.PositionTarget[i]) {
				return out, &CommandError{Motor: pdo.MotorNames[i], Err: ErrNotFinite}
			}

			target := clamp(cmd.PositionTarget[i], act.PositionMin, act.PositionMax)
			tau := act.Kp*(target-img.Sensors.MotorPosition[i]) -
				act.Kd*img.Sensors.MotorVelocity[i]
			out[i] = clamp(tau, -act.TorqueLimit, act.TorqueLimit)
		default:
			return out, &CommandError{
				Motor: pdo.MotorNames[i],
				Err:   fmt.Errorf("unknown control mode %d", cmd.Mode[i]),
			}
		}
	}

	return out, nil
}

// FromProcessImage turns the command region of img into actuator efforts and
// writes them into sim. Efforts are computed for every motor before the first
// write, so an invalid command changes nothing. If a write fails, the motors
// already written are restored to their previous efforts and an *ApplyError
// is returned. Given identical inputs the same efforts are written.
func FromProcessImage(img pdo.Image, sim Simulator, m Mapping) error {
	if n := sim.NumActuators(); n != pdo.NumMotors {
		return &LayoutError{Mismatches: []Mismatch{
			{Group: "actuators", Expected: pdo.NumMotors, Actual: n},
		}}
	}

	torques, err := Efforts(img, m)
	if err != nil {
		return err
	}

	var previous [pdo.NumMotors]float64
	for i := range previous {
		previous[i] = sim.Effort(i)
	}

	for i, tau := range torques {
		err := sim.SetEffort(i, m.MotorSign[i]*tau)
		if err == nil {
			continue
		}

		var rollbackErrs []error
		for j := 0; j < i; j++ {
			if rbErr := sim.SetEffort(j, previous[j]); rbErr != nil {
				rollbackErrs = append(rollbackErrs, rbErr)
			}
		}

		return &ApplyError{
			Index:       i,
			Err:         err,
			RollbackErr: errors.Join(rollbackErrs...),
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
