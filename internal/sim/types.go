// Package sim is the simulation data plane: the per-tick robot state
// snapshot, the joint command map, the simulation environment that
// stands in for a physics engine, and the lock-step session runner that
// alternates it with a controller.
package sim

import (
	"math"
)

// Vec3 is a 3-vector in meters or meters per second.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) valid() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// JointState is the sensed state of one joint, in degrees and degrees
// per second.
type JointState struct {
	Angle    float64
	Velocity float64
}

// BaseState is the sensed torso pose. Orientation angles are degrees.
type BaseState struct {
	Position        Vec3
	Roll            float64
	Pitch           float64
	Yaw             float64
	LinearVelocity  Vec3
	AngularVelocity Vec3 // deg/s
}

// IMUData is a simulated inertial reading: orientation in degrees,
// angular velocity in deg/s, linear acceleration in m/s² with gravity
// on the Z axis.
type IMUData struct {
	Roll               float64
	Pitch              float64
	Yaw                float64
	AngularVelocity    Vec3
	LinearAcceleration Vec3
}

// RobotState is the immutable per-tick snapshot handed to controllers
// and observers. It is produced once per control tick and never
// mutated afterwards.
type RobotState struct {
	Time   float64
	Base   BaseState
	Joints map[string]JointState
	IMU    IMUData
}

// Valid reports whether every scalar in the snapshot is finite.
func (s RobotState) Valid() bool {
	if !isFinite(s.Time) ||
		!s.Base.Position.valid() ||
		!isFinite(s.Base.Roll) || !isFinite(s.Base.Pitch) || !isFinite(s.Base.Yaw) ||
		!s.Base.LinearVelocity.valid() || !s.Base.AngularVelocity.valid() {
		return false
	}
	if !isFinite(s.IMU.Roll) || !isFinite(s.IMU.Pitch) || !isFinite(s.IMU.Yaw) ||
		!s.IMU.AngularVelocity.valid() || !s.IMU.LinearAcceleration.valid() {
		return false
	}
	for _, j := range s.Joints {
		if !isFinite(j.Angle) || !isFinite(j.Velocity) {
			return false
		}
	}
	return true
}

// Command maps joint names to target angles in degrees.
type Command map[string]float64

// Clone returns an independent copy.
func (c Command) Clone() Command {
	out := make(Command, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Controller computes one joint command per control tick.
// Implementations are deterministic functions of (state, accumulated
// controller state, dt).
type Controller interface {
	Compute(state RobotState, dt float64) (Command, error)
	Reset()
}

// Observer is notified of each tick's snapshot before the command for
// that tick is computed. Observers never feed back into control.
type Observer interface {
	Update(state RobotState)
}

// State is the raw vector the physics layer integrates.
type State []float64

// Clone returns an independent copy.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether all entries are finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// Control is the input vector to the physics layer.
type Control []float64

// Dynamics is an ODE system dX/dt = f(X, u, t).
type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a Dynamics by one fixed step.
type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
