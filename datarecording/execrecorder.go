package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecTable is the name of the table describing the run.
const ExecTable = "exec_info"

// ExecInfo is one property of the run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec table in recorder.
func NewExecRecorder(recorder DataRecorder) (*ExecRecorder, error) {
	if err := recorder.CreateTable(ExecTable, ExecInfo{}); err != nil {
		return nil, err
	}

	return &ExecRecorder{recorder: recorder}, nil
}

// Start notes the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(time.RFC3339Nano)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if ex, err := os.Executable(); err == nil {
		e.entries = append(e.entries,
			ExecInfo{"Executable Directory", filepath.Dir(ex)})
	}
}

// Note adds a property of the run.
func (e *ExecRecorder) Note(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the collected properties along with the end time.
func (e *ExecRecorder) End() error {
	e.entries = append(e.entries,
		ExecInfo{"End Time", time.Now().Format(time.RFC3339Nano)})

	for _, entry := range e.entries {
		if err := e.recorder.InsertData(ExecTable, entry); err != nil {
			return err
		}
	}

	e.entries = nil

	return e.recorder.Flush()
}
