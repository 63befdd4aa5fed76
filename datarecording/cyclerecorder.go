package datarecording

import (
	"github.com/sarchlab/ecatsim/sim/hooking"
	"github.com/sarchlab/ecatsim/system"
)

// CycleRecorder is a hook that records every completed cycle of a System.
type CycleRecorder struct {
	recorder  DataRecorder
	tableName string
	err       error
	count     uint64
}

// NewCycleRecorder creates the cycle table in recorder and returns a hook
// that fills it.
func NewCycleRecorder(
	recorder DataRecorder,
	tableName string,
) (*CycleRecorder, error) {
	if err := recorder.CreateTable(tableName, CycleRecord{}); err != nil {
		return nil, err
	}

	return &CycleRecorder{
		recorder:  recorder,
		tableName: tableName,
	}, nil
}

// Func records the cycle. Recording stops at the first error, which is kept
// for Err.
func (r *CycleRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != system.HookPosCycleEnd || r.err != nil {
		return
	}

	info, ok := ctx.Item.(system.CycleInfo)
	if !ok {
		return
	}

	r.err = r.recorder.InsertData(r.tableName, NewCycleRecord(info))
	if r.err == nil {
		r.count++
	}
}

// Count returns the number of cycles recorded.
func (r *CycleRecorder) Count() uint64 {
	return r.count
}

// Err returns the error that stopped recording, if any.
func (r *CycleRecorder) Err() error {
	return r.err
}
