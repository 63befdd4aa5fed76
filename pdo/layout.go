package pdo

import (
	"fmt"
)

// Region identifies one of the two halves of the process data image.
type Region uint8

// Regions of the image.
const (
	RegionSensors Region = iota
	RegionCommands
)

func (r Region) String() string {
	switch r {
	case RegionSensors:
		return "sensors"
	case RegionCommands:
		return "commands"
	default:
		return "unknown"
	}
}

// Type is the wire type of a channel.
type Type uint8

// Wire types. All multi-byte values are little-endian.
const (
	TypeFloat64 Type = iota
	TypeUint32
	TypeUint8
)

// Size returns the number of bytes a value of type t occupies on the wire.
func (t Type) Size() int {
	switch t {
	case TypeFloat64:
		return 8
	case TypeUint32:
		return 4
	case TypeUint8:
		return 1
	default:
		panic(fmt.Sprintf("pdo: unknown type %d", t))
	}
}

func (t Type) String() string {
	switch t {
	case TypeFloat64:
		return "float64"
	case TypeUint32:
		return "uint32"
	case TypeUint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Channel documents one slot of the process data image.
type Channel struct {
	Name        string `json:"name"`
	Region      Region `json:"region"`
	Index       int    `json:"index"`
	Offset      int    `json:"offset"`
	Type        Type   `json:"type"`
	Unit        string `json:"unit"`
	Sign        string `json:"sign"`
	Description string `json:"description"`
}

// field binds a channel description to the storage it describes.
type field struct {
	name string
	unit string
	sign string
	desc string

	f64 *float64
	u32 *uint32
	u8  *uint8
}

func (f field) typ() Type {
	switch {
	case f.f64 != nil:
		return TypeFloat64
	case f.u32 != nil:
		return TypeUint32
	default:
		return TypeUint8
	}
}

const (
	signEncoder = "positive when the joint rotates about its axis per the hardware encoder"
	signIMU     = "IMU mounting frame"
)

var axisNames = [3]string{"x", "y", "z"}

// fields lists the sensor channels in wire order. Layout, MarshalBinary and
// UnmarshalBinary all derive from this list.
func (s *Sensors) fields() []field {
	fs := make([]field, 0, 64)

	for i := range s.MotorPosition {
		fs = append(fs, field{
			name: "motor_position." + MotorNames[i], unit: "rad",
			sign: signEncoder, desc: "output-side motor angle",
			f64: &s.MotorPosition[i],
		})
	}

	for i := range s.MotorVelocity {
		fs = append(fs, field{
			name: "motor_velocity." + MotorNames[i], unit: "rad/s",
			sign: signEncoder, desc: "output-side motor angular velocity",
			f64: &s.MotorVelocity[i],
		})
	}

	for i := range s.MotorTorque {
		fs = append(fs, field{
			name: "motor_torque." + MotorNames[i], unit: "N*m",
			sign: signEncoder, desc: "measured output torque",
			f64: &s.MotorTorque[i],
		})
	}

	for i := range s.JointPosition {
		fs = append(fs, field{
			name: "joint_position." + JointNames[i], unit: "rad",
			sign: signEncoder, desc: "unactuated joint angle",
			f64: &s.JointPosition[i],
		})
	}

	for i := range s.JointVelocity {
		fs = append(fs, field{
			name: "joint_velocity." + JointNames[i], unit: "rad/s",
			sign: signEncoder, desc: "unactuated joint angular velocity",
			f64: &s.JointVelocity[i],
		})
	}

	for i, c := range [4]string{"w", "x", "y", "z"} {
		fs = append(fs, field{
			name: "imu.orientation." + c, unit: "1",
			sign: signIMU, desc: "orientation quaternion component",
			f64: &s.IMU.Orientation[i],
		})
	}

	for i, c := range axisNames {
		fs = append(fs, field{
			name: "imu.angular_velocity." + c, unit: "rad/s",
			sign: signIMU, desc: "gyroscope",
			f64: &s.IMU.AngularVelocity[i],
		})
	}

	for i, c := range axisNames {
		fs = append(fs, field{
			name: "imu.linear_acceleration." + c, unit: "m/s^2",
			sign: signIMU, desc: "accelerometer, includes gravity",
			f64: &s.IMU.LinearAcceleration[i],
		})
	}

	for i, c := range axisNames {
		fs = append(fs, field{
			name: "imu.magnetic_field." + c, unit: "gauss",
			sign: signIMU, desc: "magnetometer",
			f64: &s.IMU.MagneticField[i],
		})
	}

	for i := range s.FootForce {
		fs = append(fs, field{
			name: "foot_force." + FootNames[i], unit: "N",
			sign: "positive when pressing into the ground", desc: "normal contact force",
			f64: &s.FootForce[i],
		})
	}

	fs = append(fs,
		field{
			name: "battery_charge", unit: "1",
			desc: "state of charge, 0 empty to 1 full",
			f64:  &s.BatteryCharge,
		},
		field{
			name: "status", unit: "flags",
			desc: "bit 0 e-stop, bit 1 low battery, bit 2 simulated",
			u32:  &s.Status,
		},
	)

	return fs
}

// fields lists the command channels in wire order.
func (c *Commands) fields() []field {
	fs := make([]field, 0, 3*NumMotors)

	for i := range c.Torque {
		fs = append(fs, field{
			name: "torque." + MotorNames[i], unit: "N*m",
			sign: signEncoder, desc: "output torque, used in torque mode",
			f64: &c.Torque[i],
		})
	}

	for i := range c.PositionTarget {
		fs = append(fs, field{
			name: "position_target." + MotorNames[i], unit: "rad",
			sign: signEncoder, desc: "output angle target, used in position mode",
			f64: &c.PositionTarget[i],
		})
	}

	for i := range c.Mode {
		fs = append(fs, field{
			name: "mode." + MotorNames[i], unit: "enum",
			desc: "0 disabled, 1 torque, 2 position",
			u8:   (*uint8)(&c.Mode[i]),
		})
	}

	return fs
}

func regionSize(fs []field) int {
	size := 0
	for _, f := range fs {
		size += f.typ().Size()
	}

	return size
}

func describe(region Region, fs []field) []Channel {
	chs := make([]Channel, 0, len(fs))
	offset := 0

	for i, f := range fs {
		chs = append(chs, Channel{
			Name:        f.name,
			Region:      region,
			Index:       i,
			Offset:      offset,
			Type:        f.typ(),
			Unit:        f.unit,
			Sign:        f.sign,
			Description: f.desc,
		})
		offset += f.typ().Size()
	}

	return chs
}

// Sizes of the two regions on the wire.
var (
	SensorsSize  = regionSize(new(Sensors).fields())
	CommandsSize = regionSize(new(Commands).fields())
)

// Layout returns the documented channel table of both regions: sensor
// channels first, then command channels. Offsets are relative to the start of
// each region.
func Layout() []Channel {
	chs := describe(RegionSensors, new(Sensors).fields())
	chs = append(chs, describe(RegionCommands, new(Commands).fields())...)

	return chs
}

// LookupChannel finds a channel by its name.
func LookupChannel(name string) (Channel, bool) {
	for _, ch := range Layout() {
		if ch.Name == name {
			return ch, true
		}
	}

	return Channel{}, false
}
