package system

import (
	"log"

	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/sim/hooking"
)

// TransitionLogger is a hook that prints every bus state change.
type TransitionLogger struct {
	logger *log.Logger
}

// NewTransitionLogger returns a TransitionLogger that writes into logger.
func NewTransitionLogger(logger *log.Logger) *TransitionLogger {
	h := new(TransitionLogger)
	h.logger = logger

	return h
}

// Func prints the transition.
func (h *TransitionLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosTransition {
		return
	}

	t, ok := ctx.Item.(ecat.Transition)
	if !ok {
		return
	}

	h.logger.Print(t.String())
}

// FaultLogger is a hook that prints every faulted cycle, including the
// faults that do not change the state.
type FaultLogger struct {
	logger *log.Logger
}

// NewFaultLogger returns a FaultLogger that writes into logger.
func NewFaultLogger(logger *log.Logger) *FaultLogger {
	h := new(FaultLogger)
	h.logger = logger

	return h
}

// Func prints the fault of the cycle, if any.
func (h *FaultLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosCycleEnd {
		return
	}

	info, ok := ctx.Item.(CycleInfo)
	if !ok || info.Transition.Cause == nil {
		return
	}

	h.logger.Printf("%.6f, cycle %d, %s: %v",
		info.Time, info.Cycle, info.Status.State, info.Transition.Cause)
}

// CycleEndHook calls a function with the CycleInfo of every completed cycle.
type CycleEndHook struct {
	f func(CycleInfo)
}

// NewCycleEndHook returns a CycleEndHook calling f.
func NewCycleEndHook(f func(CycleInfo)) *CycleEndHook {
	return &CycleEndHook{f: f}
}

// Func calls f if ctx is the end of a cycle.
func (h *CycleEndHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosCycleEnd {
		return
	}

	if info, ok := ctx.Item.(CycleInfo); ok {
		h.f(info)
	}
}
