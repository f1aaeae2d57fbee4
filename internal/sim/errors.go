package sim

import (
	"errors"
	"fmt"
)

// Domain errors for the simulation layer.
var (
	// ErrInvalidState indicates a snapshot containing NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid robot state (NaN or Inf detected)")

	// ErrUnknownJoint indicates a command for a joint the robot does
	// not have.
	ErrUnknownJoint = errors.New("sim: unknown joint")

	// ErrInvalidConfig indicates a malformed session or environment
	// configuration.
	ErrInvalidConfig = errors.New("sim: invalid configuration")
)

// TickError wraps an error with the step and simulated time at which it
// occurred.
type TickError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
