package ecat

import (
	"errors"
	"fmt"
)

// ErrWatchdog is the cause of a fault raised because too much simulated time
// passed without a live cycle.
var ErrWatchdog = errors.New("ecat: watchdog timeout")

// Outcome is what happened during one bus cycle.
type Outcome struct {
	// Cycle is the number of the cycle being evaluated.
	Cycle uint64
	// Time is the simulated time of the cycle, in seconds.
	Time float64
	// ReadErr is set when reading or converting the sensors failed.
	ReadErr error
	// ControlErr is set when the control stack cycle failed.
	ControlErr error
}

// Transition is the result of evaluating one cycle. From and To are equal
// when the state did not change.
type Transition struct {
	Cycle uint64
	From  State
	To    State
	// Cause is the fault of the cycle, nil for a clean cycle.
	Cause error
}

// Changed reports whether the state changed.
func (t Transition) Changed() bool {
	return t.From != t.To
}

func (t Transition) String() string {
	if t.Cause != nil {
		return fmt.Sprintf("cycle %d: %s -> %s: %v", t.Cycle, t.From, t.To, t.Cause)
	}

	return fmt.Sprintf("cycle %d: %s -> %s", t.Cycle, t.From, t.To)
}

// Status is a snapshot of the bus state and its fault counters.
type Status struct {
	State State `json:"state"`
	// Cycle is the number of cycles evaluated so far.
	Cycle             uint64 `json:"cycle"`
	ConsecutiveFaults uint64 `json:"consecutive_faults"`
	ConsecutiveClean  uint64 `json:"consecutive_clean"`
	// TotalFaults counts entries into Fault.
	TotalFaults uint64 `json:"total_faults"`
	Recoveries  uint64 `json:"recoveries"`
	// Terminal is set once recovery is exhausted.
	Terminal  bool  `json:"terminal"`
	LastFault error `json:"-"`
}

// LastFaultMessage returns the text of the last fault, or an empty string.
func (s Status) LastFaultMessage() string {
	if s.LastFault == nil {
		return ""
	}

	return s.LastFault.Error()
}

// Machine is the bus cycle state machine. The zero value is not usable; call
// NewMachine.
type Machine struct {
	cfg    Config
	status Status

	faultEntries []uint64

	aliveSeen bool
	lastAlive float64
}

// NewMachine creates a machine in Init. It returns an error if cfg is
// invalid.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Machine{cfg: cfg}, nil
}

// Config returns the thresholds the machine runs with.
func (m *Machine) Config() Config {
	return m.cfg
}

// State returns the current state.
func (m *Machine) State() State {
	return m.status.State
}

// Snapshot returns the current status.
func (m *Machine) Snapshot() Status {
	return m.status
}

// Evaluate advances the machine by one cycle. It must be called exactly once
// per cycle.
func (m *Machine) Evaluate(o Outcome) Transition {
	cause := m.fault(o)

	t := Transition{
		Cycle: o.Cycle,
		From:  m.status.State,
		Cause: cause,
	}

	m.status.Cycle++

	if cause != nil {
		m.onFault(o.Cycle, cause)
	} else {
		m.onClean()
	}

	t.To = m.status.State

	return t
}

// fault returns the fault of the cycle. A cycle whose read and control step
// both succeeded is alive, and resets the watchdog even when the watchdog
// fires on it; otherwise a single stall would fault the bus forever.
func (m *Machine) fault(o Outcome) error {
	if o.ReadErr != nil {
		return o.ReadErr
	}

	if o.ControlErr != nil {
		return o.ControlErr
	}

	expired := m.watchdogExpired(o.Time)
	m.aliveSeen = true
	m.lastAlive = o.Time

	if expired {
		return ErrWatchdog
	}

	return nil
}

func (m *Machine) watchdogExpired(now float64) bool {
	if m.cfg.WatchdogTimeout == 0 || !m.aliveSeen {
		return false
	}

	return now-m.lastAlive > m.cfg.WatchdogTimeout
}

func (m *Machine) onFault(cycle uint64, cause error) {
	s := &m.status

	s.ConsecutiveFaults++
	s.ConsecutiveClean = 0
	s.LastFault = cause

	if s.State == Fault {
		return
	}

	s.State = Fault
	s.TotalFaults++

	m.faultEntries = append(m.faultEntries, cycle)
	m.pruneFaultEntries(cycle)

	if len(m.faultEntries) > m.cfg.MaxRecoveries {
		s.Terminal = true
	}
}

func (m *Machine) pruneFaultEntries(cycle uint64) {
	if m.cfg.FaultWindow == 0 {
		return
	}

	kept := m.faultEntries[:0]
	for _, c := range m.faultEntries {
		if cycle-c < m.cfg.FaultWindow {
			kept = append(kept, c)
		}
	}

	m.faultEntries = kept
}

func (m *Machine) onClean() {
	s := &m.status

	s.ConsecutiveClean++
	s.ConsecutiveFaults = 0

	switch s.State {
	case Init:
		s.State = PreOperational
	case PreOperational:
		if s.ConsecutiveClean >= uint64(m.cfg.CleanCyclesToSafeOp) {
			s.State = SafeOperational
		}
	case SafeOperational:
		s.State = Operational
	case Operational:
	case Fault:
		if s.Terminal {
			return
		}

		if s.ConsecutiveClean >= uint64(m.cfg.RecoveryCycles) {
			s.State = PreOperational
			s.Recoveries++
			s.ConsecutiveClean = 1
		}
	}
}
