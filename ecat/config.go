package ecat

import (
	"errors"
	"fmt"
	"math"
)

// Config holds the thresholds of the bus handshake and fault accounting.
type Config struct {
	// CleanCyclesToSafeOp is the number of consecutive clean cycles, counting
	// the one that leaves Init or Fault, after which PreOperational advances
	// to SafeOperational.
	CleanCyclesToSafeOp int

	// RecoveryCycles is the number of consecutive clean cycles in Fault after
	// which the bus recovers to PreOperational.
	RecoveryCycles int

	// MaxRecoveries bounds how many times the bus may recover. Entering Fault
	// more than MaxRecoveries times within FaultWindow parks the bus in Fault
	// for good.
	MaxRecoveries int

	// FaultWindow is the number of cycles over which entries into Fault are
	// counted. Zero counts over the whole lifetime.
	FaultWindow uint64

	// WatchdogTimeout is the longest simulated time, in seconds, that may
	// pass between two cycles in which the bus was alive. Zero disables the
	// watchdog.
	WatchdogTimeout float64
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		CleanCyclesToSafeOp: 3,
		RecoveryCycles:      10,
		MaxRecoveries:       3,
		FaultWindow:         0,
		WatchdogTimeout:     0,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	if c.CleanCyclesToSafeOp < 1 {
		errs = append(errs, fmt.Errorf(
			"ecat: clean cycles to safe-op must be at least 1, got %d",
			c.CleanCyclesToSafeOp))
	}

	if c.RecoveryCycles < 1 {
		errs = append(errs, fmt.Errorf(
			"ecat: recovery cycles must be at least 1, got %d",
			c.RecoveryCycles))
	}

	if c.MaxRecoveries < 0 {
		errs = append(errs, fmt.Errorf(
			"ecat: max recoveries must not be negative, got %d",
			c.MaxRecoveries))
	}

	if c.WatchdogTimeout < 0 ||
		math.IsNaN(c.WatchdogTimeout) ||
		math.IsInf(c.WatchdogTimeout, 0) {
		errs = append(errs, fmt.Errorf(
			"ecat: watchdog timeout must be a finite non-negative number, got %g",
			c.WatchdogTimeout))
	}

	return errors.Join(errs...)
}
