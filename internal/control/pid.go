package control

import (
	"fmt"
	"math"
)

// Gains is the immutable configuration of one PID axis. The integral
// accumulator is clamped to ±IntegralLimit (anti-windup) and the output
// to [OutputMin, OutputMax].
type Gains struct {
	Kp            float64
	Ki            float64
	Kd            float64
	OutputMin     float64
	OutputMax     float64
	IntegralLimit float64
}

// Validate checks the gains for construction-time errors.
func (g Gains) Validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd, g.OutputMin, g.OutputMax, g.IntegralLimit} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite gain value", ErrInvalidConfig)
		}
	}
	if g.Kp < 0 || g.Ki < 0 || g.Kd < 0 {
		return fmt.Errorf("%w: gains must be non-negative (kp=%g ki=%g kd=%g)",
			ErrInvalidConfig, g.Kp, g.Ki, g.Kd)
	}
	if g.OutputMin > g.OutputMax {
		return fmt.Errorf("%w: output_min %g > output_max %g",
			ErrInvalidConfig, g.OutputMin, g.OutputMax)
	}
	if g.IntegralLimit < 0 {
		return fmt.Errorf("%w: integral_limit must be non-negative, got %g",
			ErrInvalidConfig, g.IntegralLimit)
	}
	return nil
}

// PIDState is the mutable part of a PID loop, owned by exactly one
// instance. Resetting is zeroing the struct; replaying is copying it.
type PIDState struct {
	Integral  float64
	PrevError float64
}

// PID is one clamped proportional-integral-derivative loop.
type PID struct {
	Gains Gains
	State PIDState
}

// NewPID validates the gains and returns a PID at zero state.
func NewPID(g Gains) (*PID, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &PID{Gains: g}, nil
}

// Update advances the loop by dt seconds given the current signed error
// and returns the clamped control output.
//
// The integral is clamped before the derivative is computed so that
// windup cannot spike the derivative term. dt must be strictly
// positive; a non-positive or non-finite input fails with
// ErrInvalidInput rather than being silently skipped.
func (p *PID) Update(err, dt float64) (float64, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidInput, dt)
	}
	if math.IsNaN(err) || math.IsInf(err, 0) {
		return 0, fmt.Errorf("%w: non-finite error %g", ErrInvalidInput, err)
	}

	g := p.Gains

	p.State.Integral = clamp(p.State.Integral+err*dt, -g.IntegralLimit, g.IntegralLimit)
	derivative := (err - p.State.PrevError) / dt

	out := g.Kp*err + g.Ki*p.State.Integral + g.Kd*derivative
	out = clamp(out, g.OutputMin, g.OutputMax)

	p.State.PrevError = err
	return out, nil
}

// Reset zeroes the integral and previous error. Call it whenever the
// controller resumes after a discontinuity (e.g. a pose
// re-initialization) so the next derivative is not computed against a
// stale reference.
func (p *PID) Reset() {
	p.State = PIDState{}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
