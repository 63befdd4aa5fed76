// Package pdo defines the process data image exchanged once per bus cycle:
// the sensor region a real EtherCAT master would deliver to the controller,
// and the command region the controller hands back for the actuators.
//
// Channel order is part of the contract. Left-leg channels come first, then
// right-leg channels, in the order given by MotorNames, JointNames and
// FootNames.
package pdo

// Channel counts of the process data image.
const (
	NumMotors = 10
	NumJoints = 4
	NumFeet   = 2
)

// Motor indices, in bus order.
const (
	LeftHipRoll = iota
	LeftHipYaw
	LeftHipPitch
	LeftKnee
	LeftFoot
	RightHipRoll
	RightHipYaw
	RightHipPitch
	RightKnee
	RightFoot
)

// MotorNames names the actuated joints in bus order.
var MotorNames = [NumMotors]string{
	"left_hip_roll", "left_hip_yaw", "left_hip_pitch", "left_knee", "left_foot",
	"right_hip_roll", "right_hip_yaw", "right_hip_pitch", "right_knee", "right_foot",
}

// JointNames names the unactuated joint encoders in bus order.
var JointNames = [NumJoints]string{
	"left_shin", "left_tarsus", "right_shin", "right_tarsus",
}

// FootNames names the contact sensors in bus order.
var FootNames = [NumFeet]string{"left", "right"}

// Status flags reported in Sensors.Status.
const (
	StatusEStop uint32 = 1 << iota
	StatusLowBattery
	StatusSimulated
)

// ControlMode selects how an actuator interprets its command channels.
type ControlMode uint8

// Control modes. The zero value disables the actuator.
const (
	ModeDisabled ControlMode = iota
	ModeTorque
	ModePosition
)

// Valid reports whether m is a known control mode.
func (m ControlMode) Valid() bool {
	return m <= ModePosition
}

func (m ControlMode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeTorque:
		return "torque"
	case ModePosition:
		return "position"
	default:
		return "unknown"
	}
}

// IMU holds the inertial measurement unit channels. Vectors are expressed in
// the IMU mounting frame.
type IMU struct {
	// Orientation is a unit quaternion ordered w, x, y, z.
	Orientation        [4]float64
	AngularVelocity    [3]float64
	LinearAcceleration [3]float64
	MagneticField      [3]float64
}

// Sensors is the sensor region. It is filled by the bridge every cycle and
// only read by the control stack.
type Sensors struct {
	MotorPosition [NumMotors]float64
	MotorVelocity [NumMotors]float64
	MotorTorque   [NumMotors]float64
	JointPosition [NumJoints]float64
	JointVelocity [NumJoints]float64
	IMU           IMU
	FootForce     [NumFeet]float64
	BatteryCharge float64
	Status        uint32
}

// Commands is the command region. It is written by the control stack and only
// read by the bridge when applying efforts.
type Commands struct {
	Torque         [NumMotors]float64
	PositionTarget [NumMotors]float64
	Mode           [NumMotors]ControlMode
}

// SafeCommands returns the command region that guarantees no actuator effort:
// every motor disabled with zero torque and zero target.
func SafeCommands() Commands {
	return Commands{}
}

// IsSafe reports whether c equals SafeCommands.
func (c Commands) IsSafe() bool {
	return c == SafeCommands()
}

// Image is one cycle's worth of process data.
type Image struct {
	Sensors  Sensors
	Commands Commands
}

// Reset overwrites every channel of both regions with zero.
func (img *Image) Reset() {
	img.ResetSensors()
	img.ResetCommands()
}

// ResetSensors overwrites every sensor channel with zero.
func (img *Image) ResetSensors() {
	img.Sensors = Sensors{}
}

// ResetCommands overwrites every command channel with the safe command.
func (img *Image) ResetCommands() {
	img.Commands = SafeCommands()
}
