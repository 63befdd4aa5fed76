package convert

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors wrapped by ChannelError.
var (
	ErrNotFinite  = errors.New("value is not finite")
	ErrOutOfRange = errors.New("value is out of the physically valid range")
)

// Mismatch describes one channel group whose size differs from the image.
type Mismatch struct {
	Group    string
	Expected int
	Actual   int
}

// LayoutError reports that the simulator does not expose the channels the
// process data image needs. It is a configuration error and cannot be
// recovered cycle by cycle.
type LayoutError struct {
	Mismatches []Mismatch
}

func (e *LayoutError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts,
			fmt.Sprintf("%s: expected %d, got %d", m.Group, m.Expected, m.Actual))
	}

	return "convert: simulator layout does not match process data image: " +
		strings.Join(parts, "; ")
}

// ChannelError reports a sensor channel that could not be read or holds a
// value no real sensor could produce.
type ChannelError struct {
	Kind  SensorKind
	Index int
	Value float64
	Err   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("convert: channel %s[%d] = %g: %v",
		e.Kind, e.Index, e.Value, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// CommandError reports a command channel that cannot be turned into an effort.
type CommandError struct {
	Motor string
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("convert: command for %s: %v", e.Motor, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ApplyError reports a failed actuator write. Channels written before the
// failure have been restored to their previous efforts.
type ApplyError struct {
	Index       int
	Err         error
	RollbackErr error
}

func (e *ApplyError) Error() string {
	msg := fmt.Sprintf("convert: writing actuator %d: %v", e.Index, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback: %v)", e.RollbackErr)
	}

	return msg
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
