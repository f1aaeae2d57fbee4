package control

import "errors"

// Domain errors for controller construction and stepping.
var (
	// ErrInvalidConfig indicates gains or a baseline pose that fail
	// validation. Raised at construction, never recovered internally.
	ErrInvalidConfig = errors.New("control: invalid configuration")

	// ErrInvalidInput indicates a non-positive dt or a NaN/Inf input.
	// The current compute call fails; the caller decides whether to
	// abort the run or skip the tick.
	ErrInvalidInput = errors.New("control: invalid input")
)
