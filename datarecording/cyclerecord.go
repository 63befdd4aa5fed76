package datarecording

import (
	"github.com/invopop/jsonschema"

	"github.com/sarchlab/ecatsim/pdo"
	"github.com/sarchlab/ecatsim/system"
)

// CycleTable is the default name of the table of cycle records.
const CycleTable = "bus_cycle"

// CycleRecord is one row of the cycle log. Efforts are in N·m, in the
// hardware convention, as written to the simulator during the cycle.
type CycleRecord struct {
	Cycle             uint64  `json:"cycle"`
	Time              float64 `json:"time" jsonschema:"description=Simulated time in seconds"`
	FromState         string  `json:"from_state"`
	State             string  `json:"state"`
	ConsecutiveFaults uint64  `json:"consecutive_faults"`
	ConsecutiveClean  uint64  `json:"consecutive_clean"`
	TotalFaults       uint64  `json:"total_faults"`
	Recoveries        uint64  `json:"recoveries"`
	Terminal          bool    `json:"terminal"`
	Fault             string  `json:"fault,omitempty" jsonschema:"description=Fault of the cycle; empty for a clean cycle"`
	ApplyError        string  `json:"apply_error,omitempty"`
	SensorStatus      uint32  `json:"sensor_status"`
	BatteryCharge     float64 `json:"battery_charge"`

	EffortLeftHipRoll   float64 `json:"effort_left_hip_roll"`
	EffortLeftHipYaw    float64 `json:"effort_left_hip_yaw"`
	EffortLeftHipPitch  float64 `json:"effort_left_hip_pitch"`
	EffortLeftKnee      float64 `json:"effort_left_knee"`
	EffortLeftFoot      float64 `json:"effort_left_foot"`
	EffortRightHipRoll  float64 `json:"effort_right_hip_roll"`
	EffortRightHipYaw   float64 `json:"effort_right_hip_yaw"`
	EffortRightHipPitch float64 `json:"effort_right_hip_pitch"`
	EffortRightKnee     float64 `json:"effort_right_knee"`
	EffortRightFoot     float64 `json:"effort_right_foot"`
}

// NewCycleRecord flattens the information of a completed cycle.
func NewCycleRecord(info system.CycleInfo) CycleRecord {
	r := CycleRecord{
		Cycle:             info.Cycle,
		Time:              info.Time,
		FromState:         info.Transition.From.String(),
		State:             info.Status.State.String(),
		ConsecutiveFaults: info.Status.ConsecutiveFaults,
		ConsecutiveClean:  info.Status.ConsecutiveClean,
		TotalFaults:       info.Status.TotalFaults,
		Recoveries:        info.Status.Recoveries,
		Terminal:          info.Status.Terminal,
		SensorStatus:      info.Image.Sensors.Status,
		BatteryCharge:     info.Image.Sensors.BatteryCharge,
	}

	if info.Transition.Cause != nil {
		r.Fault = info.Transition.Cause.Error()
	}

	if info.ApplyErr != nil {
		r.ApplyError = info.ApplyErr.Error()
	}

	e := info.Efforts
	r.EffortLeftHipRoll = e[pdo.LeftHipRoll]
	r.EffortLeftHipYaw = e[pdo.LeftHipYaw]
	r.EffortLeftHipPitch = e[pdo.LeftHipPitch]
	r.EffortLeftKnee = e[pdo.LeftKnee]
	r.EffortLeftFoot = e[pdo.LeftFoot]
	r.EffortRightHipRoll = e[pdo.RightHipRoll]
	r.EffortRightHipYaw = e[pdo.RightHipYaw]
	r.EffortRightHipPitch = e[pdo.RightHipPitch]
	r.EffortRightKnee = e[pdo.RightKnee]
	r.EffortRightFoot = e[pdo.RightFoot]

	return r
}

// Efforts returns the efforts of the record in motor order.
func (r CycleRecord) Efforts() [pdo.NumMotors]float64 {
	return [pdo.NumMotors]float64{
		r.EffortLeftHipRoll,
		r.EffortLeftHipYaw,
		r.EffortLeftHipPitch,
		r.EffortLeftKnee,
		r.EffortLeftFoot,
		r.EffortRightHipRoll,
		r.EffortRightHipYaw,
		r.EffortRightHipPitch,
		r.EffortRightKnee,
		r.EffortRightFoot,
	}
}

// CycleRecordSchema returns the JSON schema of a cycle record.
func CycleRecordSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{}
	schema := reflector.Reflect(new(CycleRecord))
	schema.Title = "ecatsim cycle record"
	schema.Description = "One bus cycle as written by the cycle recorder"

	return schema
}
