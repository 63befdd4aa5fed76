// Package ecat models the lifecycle of an emulated EtherCAT bus cycle.
//
// A real master walks every slave through Init, PreOperational and
// SafeOperational before it trusts the slave's outputs, and drops it to a
// fault state when a cycle goes wrong. Machine reproduces that handshake and
// the fault accounting one evaluation per bus cycle, so a controller running
// against a simulator sees the same warm-up and recovery it would on
// hardware.
package ecat

import "fmt"

// State is the lifecycle state of the bus.
type State int

// The bus states, in handshake order.
const (
	Init State = iota
	PreOperational
	SafeOperational
	Operational
	Fault
)

var stateNames = [...]string{
	Init:            "Init",
	PreOperational:  "PreOperational",
	SafeOperational: "SafeOperational",
	Operational:     "Operational",
	Fault:           "Fault",
}

func (s State) String() string {
	if s < Init || s > Fault {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < Init || s > Fault {
		return nil, fmt.Errorf("ecat: unknown state %d", int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}

	return fmt.Errorf("ecat: unknown state %q", text)
}

// AppliesCommands reports whether commands computed by the control stack
// reach the actuators in this state.
func (s State) AppliesCommands() bool {
	return s == Operational
}
