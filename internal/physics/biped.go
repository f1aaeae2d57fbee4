package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/bipedsim/internal/sim"
)

// Biped integrates the base state vector laid out by the sim package
// (sim.StateRoll..sim.StateY, SI units). The control vector is
// [roll target, pitch target, height target]: the pose the commanded
// leg joints would hold statically.
type Biped struct {
	// Tilt tracking: natural frequency (rad/s) and damping ratio of the
	// base following the legs' kinematic target.
	Omega float64
	Zeta  float64

	// Height tracking.
	OmegaZ float64
	ZetaZ  float64

	// Topple is the destabilizing gravity term on the tilt axes,
	// 1/s². Must stay below Omega² or the uncontrolled robot falls
	// from any tilt.
	Topple float64

	// Slip is the drift speed per radian of tilt (m/s), divided by
	// ground friction.
	Slip     float64
	Friction float64

	Gravity float64
}

// NewBiped returns the stock plant parameters.
func NewBiped() *Biped {
	return &Biped{
		Omega:    8.0,
		Zeta:     0.9,
		OmegaZ:   12.0,
		ZetaZ:    1.0,
		Topple:   12.0,
		Slip:     0.05,
		Friction: 0.9,
		Gravity:  9.81,
	}
}

func (b *Biped) StateDim() int   { return sim.StateDim }
func (b *Biped) ControlDim() int { return 3 }

func (b *Biped) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	roll, pitch := x[sim.StateRoll], x[sim.StatePitch]
	rollRate, pitchRate := x[sim.StateRollRate], x[sim.StatePitchRate]
	height, heightRate := x[sim.StateHeight], x[sim.StateHeightRate]

	var uRoll, uPitch, uHeight float64
	if len(u) >= 3 {
		uRoll, uPitch, uHeight = u[0], u[1], u[2]
	} else {
		uHeight = height // no command: hold
	}

	rollAcc := b.Omega*b.Omega*(uRoll-roll) - 2*b.Zeta*b.Omega*rollRate + b.Topple*math.Sin(roll)
	pitchAcc := b.Omega*b.Omega*(uPitch-pitch) - 2*b.Zeta*b.Omega*pitchRate + b.Topple*math.Sin(pitch)
	heightAcc := b.OmegaZ*b.OmegaZ*(uHeight-height) - 2*b.ZetaZ*b.OmegaZ*heightRate

	friction := math.Max(b.Friction, 0.05)
	vx := b.Slip / friction * math.Sin(pitch)
	vy := b.Slip / friction * math.Sin(roll)

	return sim.State{rollRate, pitchRate, rollAcc, pitchAcc, heightRate, heightAcc, vx, vy}
}

// Equilibrium returns the rest state for a given standing height.
func Equilibrium(height float64) sim.State {
	x := make(sim.State, sim.StateDim)
	x[sim.StateHeight] = height
	return x
}

// GetParams exposes the tunable plant parameters.
func (b *Biped) GetParams() map[string]float64 {
	return map[string]float64{
		"omega":    b.Omega,
		"zeta":     b.Zeta,
		"omega_z":  b.OmegaZ,
		"zeta_z":   b.ZetaZ,
		"topple":   b.Topple,
		"slip":     b.Slip,
		"friction": b.Friction,
		"gravity":  b.Gravity,
	}
}

// SetParam adjusts one plant parameter, rejecting values that would
// make the model meaningless.
func (b *Biped) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("physics: non-finite value for %q", name)
	}
	switch name {
	case "omega":
		if value <= 0 {
			return fmt.Errorf("physics: omega must be positive, got %g", value)
		}
		b.Omega = value
	case "zeta":
		if value < 0 {
			return fmt.Errorf("physics: zeta must be non-negative, got %g", value)
		}
		b.Zeta = value
	case "omega_z":
		if value <= 0 {
			return fmt.Errorf("physics: omega_z must be positive, got %g", value)
		}
		b.OmegaZ = value
	case "zeta_z":
		if value < 0 {
			return fmt.Errorf("physics: zeta_z must be non-negative, got %g", value)
		}
		b.ZetaZ = value
	case "topple":
		if value < 0 {
			return fmt.Errorf("physics: topple must be non-negative, got %g", value)
		}
		b.Topple = value
	case "slip":
		if value < 0 {
			return fmt.Errorf("physics: slip must be non-negative, got %g", value)
		}
		b.Slip = value
	case "friction":
		if value <= 0 {
			return fmt.Errorf("physics: friction must be positive, got %g", value)
		}
		b.Friction = value
	case "gravity":
		if value <= 0 {
			return fmt.Errorf("physics: gravity must be positive, got %g", value)
		}
		b.Gravity = value
	default:
		return fmt.Errorf("physics: unknown parameter %q", name)
	}
	return nil
}
