package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/bipedsim/internal/robot"
)

// Base state vector layout, shared between the environment and the
// physics plant. Angles are radians, lengths meters.
const (
	StateRoll = iota
	StatePitch
	StateRollRate
	StatePitchRate
	StateHeight
	StateHeightRate
	StateX
	StateY
	StateDim
)

// Couplings from commanded joint offsets (degrees, relative to the
// initial pose) to the base kinematic target. These linearize the leg
// chain about the standing operating point.
const (
	rollCoupling  = 1.0  // base roll per differential hip roll
	hipCoupling   = 1.0  // base pitch per common-mode hip pitch
	ankleCoupling = -0.5 // base pitch per common-mode ankle pitch
)

// groundHeight is the hard floor: the base cannot sink below it.
const groundHeight = 0.01

// Push is a scheduled disturbance: an angular rate impulse in deg/s
// applied once when simulated time reaches Time.
type Push struct {
	Time  float64
	Roll  float64
	Pitch float64
}

// EnvConfig configures the simulation environment.
type EnvConfig struct {
	Dt             float64 // physics timestep, s
	Gravity        float64 // magnitude, m/s²
	GroundFriction float64
	NoiseLevel     float64 // IMU noise stddev, deg
	Seed           int64
	InitialRoll    float64 // deg
	InitialPitch   float64 // deg
	Pushes         []Push
}

// DefaultEnvConfig returns the stock environment settings.
func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		Dt:             0.002,
		Gravity:        9.81,
		GroundFriction: 0.9,
		NoiseLevel:     0,
		Seed:           42,
	}
}

func (c EnvConfig) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: physics dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.GroundFriction <= 0 {
		return fmt.Errorf("%w: ground friction must be positive, got %g", ErrInvalidConfig, c.GroundFriction)
	}
	if c.NoiseLevel < 0 {
		return fmt.Errorf("%w: noise level must be non-negative, got %g", ErrInvalidConfig, c.NoiseLevel)
	}
	return nil
}

// servo is a velocity-limited position servo on one joint.
type servo struct {
	angle  float64 // deg
	target float64 // deg
	vel    float64 // deg/s
	limit  robot.Joint
}

// Environment is the Go-native stand-in for a physics engine at the
// controller's interface boundary: it owns the joint servos and the
// lumped base dynamics, exposes sensor reads, and advances one fixed
// timestep per Step. Deterministic under a fixed seed.
type Environment struct {
	desc  *robot.Description
	dyn   Dynamics
	integ Integrator
	cfg   EnvConfig
	rng   *rand.Rand

	x       State
	joints  map[string]*servo
	initial map[string]float64

	height0    float64 // standing height of the initial pose
	legHeight0 float64

	t       float64
	pushIdx int
}

// NewEnvironment builds an environment and resets it to the initial
// pose. Unknown joints in the pose fail with ErrUnknownJoint.
func NewEnvironment(desc *robot.Description, dyn Dynamics, integ Integrator, cfg EnvConfig, initialPose Command) (*Environment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if dyn.StateDim() != StateDim {
		return nil, fmt.Errorf("%w: plant state dim %d, environment needs %d",
			ErrInvalidConfig, dyn.StateDim(), StateDim)
	}

	e := &Environment{
		desc:  desc,
		dyn:   dyn,
		integ: integ,
		cfg:   cfg,
	}
	if err := e.Reset(initialPose); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset places every joint at the given pose, puts the base at the
// pose's kinematic standing height with the configured initial tilt,
// and restarts time and the noise sequence.
func (e *Environment) Reset(pose Command) error {
	e.joints = make(map[string]*servo, e.desc.DOF())
	e.initial = make(map[string]float64, e.desc.DOF())

	for _, name := range e.desc.Names() {
		j, err := e.desc.Joint(name)
		if err != nil {
			return err
		}
		angle := pose[name]
		e.joints[name] = &servo{angle: angle, target: angle, limit: j}
		e.initial[name] = angle
	}
	for name := range pose {
		if _, ok := e.joints[name]; !ok {
			return fmt.Errorf("%w: %q in initial pose", ErrUnknownJoint, name)
		}
	}

	e.legHeight0 = e.meanLegHeight()
	e.height0 = e.legHeight0 + e.desc.Leg.HipOffsetZ

	e.x = make(State, StateDim)
	e.x[StateRoll] = deg2rad(e.cfg.InitialRoll)
	e.x[StatePitch] = deg2rad(e.cfg.InitialPitch)
	e.x[StateHeight] = e.height0

	e.t = 0
	e.pushIdx = 0
	e.rng = rand.New(rand.NewSource(e.cfg.Seed))
	return nil
}

// Dt returns the physics timestep.
func (e *Environment) Dt() float64 { return e.cfg.Dt }

// Time returns the simulated time.
func (e *Environment) Time() float64 { return e.t }

// InitialHeight returns the standing height of the reset pose.
func (e *Environment) InitialHeight() float64 { return e.height0 }

// SetJointPositions actuates the command: each named servo starts
// tracking the target. Targets are clamped at the joint limits here as
// a last-resort safety net; the controller is expected to have clamped
// already.
func (e *Environment) SetJointPositions(cmd Command) error {
	for name, angle := range cmd {
		s, ok := e.joints[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownJoint, name)
		}
		if math.IsNaN(angle) || math.IsInf(angle, 0) {
			return fmt.Errorf("%w: non-finite target for %q", ErrInvalidState, name)
		}
		s.target = s.limit.Clamp(angle)
	}
	return nil
}

// Step advances the world by one physics timestep: scheduled pushes
// fire, servos track their targets under velocity limits, and the base
// follows the legs' kinematic target through the plant dynamics.
func (e *Environment) Step() {
	for e.pushIdx < len(e.cfg.Pushes) && e.cfg.Pushes[e.pushIdx].Time <= e.t {
		p := e.cfg.Pushes[e.pushIdx]
		e.x[StateRollRate] += deg2rad(p.Roll)
		e.x[StatePitchRate] += deg2rad(p.Pitch)
		e.pushIdx++
	}

	dt := e.cfg.Dt
	for _, s := range e.joints {
		maxStep := s.limit.MaxVelocity * dt
		delta := clampAbs(s.target-s.angle, maxStep)
		s.angle += delta
		s.vel = delta / dt
	}

	u := e.kinematicTarget()
	e.x = e.integ.Step(e.dyn, e.x, u, e.t, dt)

	// Ground contact: the floor is rigid.
	if e.x[StateHeight] < groundHeight {
		e.x[StateHeight] = groundHeight
		if e.x[StateHeightRate] < 0 {
			e.x[StateHeightRate] = 0
		}
	}

	e.t += dt
}

// ApplyPush injects an immediate angular rate disturbance (deg/s).
func (e *Environment) ApplyPush(rollRate, pitchRate float64) {
	e.x[StateRollRate] += deg2rad(rollRate)
	e.x[StatePitchRate] += deg2rad(pitchRate)
}

// kinematicTarget computes the base pose the current joint angles
// would hold statically, relative to the initial pose.
func (e *Environment) kinematicTarget() Control {
	d := func(name string) float64 { return e.joints[name].angle - e.initial[name] }

	rollDeg := rollCoupling * (d(robot.JointLeftHipRoll) - d(robot.JointRightHipRoll)) / 2
	pitchDeg := hipCoupling*(d(robot.JointLeftHipPitch)+d(robot.JointRightHipPitch))/2 +
		ankleCoupling*(d(robot.JointLeftAnklePitch)+d(robot.JointRightAnklePitch))/2

	height := e.height0 + (e.meanLegHeight() - e.legHeight0)

	return Control{deg2rad(rollDeg), deg2rad(pitchDeg), height}
}

func (e *Environment) meanLegHeight() float64 {
	g := e.desc.Leg
	left := g.LegHeight(e.joints[robot.JointLeftHipPitch].angle, e.joints[robot.JointLeftKnee].angle)
	right := g.LegHeight(e.joints[robot.JointRightHipPitch].angle, e.joints[robot.JointRightKnee].angle)
	return (left + right) / 2
}

// BaseState reads the torso pose.
func (e *Environment) BaseState() BaseState {
	return BaseState{
		Position: Vec3{X: e.x[StateX], Y: e.x[StateY], Z: e.x[StateHeight]},
		Roll:     rad2deg(e.x[StateRoll]),
		Pitch:    rad2deg(e.x[StatePitch]),
		LinearVelocity: Vec3{
			Z: e.x[StateHeightRate],
		},
		AngularVelocity: Vec3{
			X: rad2deg(e.x[StateRollRate]),
			Y: rad2deg(e.x[StatePitchRate]),
		},
	}
}

// JointStates reads every joint servo.
func (e *Environment) JointStates() map[string]JointState {
	out := make(map[string]JointState, len(e.joints))
	for name, s := range e.joints {
		out[name] = JointState{Angle: s.angle, Velocity: s.vel}
	}
	return out
}

// IMUData simulates an inertial reading: true orientation and angular
// velocity with Gaussian noise, plus a gravity-biased accelerometer.
func (e *Environment) IMUData() IMUData {
	n := func() float64 {
		if e.cfg.NoiseLevel == 0 {
			return 0
		}
		return e.rng.NormFloat64() * e.cfg.NoiseLevel
	}

	return IMUData{
		Roll:  rad2deg(e.x[StateRoll]) + n(),
		Pitch: rad2deg(e.x[StatePitch]) + n(),
		AngularVelocity: Vec3{
			X: rad2deg(e.x[StateRollRate]) + n(),
			Y: rad2deg(e.x[StatePitchRate]) + n(),
			Z: n(),
		},
		LinearAcceleration: Vec3{
			X: n(),
			Y: n(),
			Z: e.cfg.Gravity + n(),
		},
	}
}

// Snapshot assembles the immutable per-tick state handed to the
// controller and the observers.
func (e *Environment) Snapshot() RobotState {
	return RobotState{
		Time:   e.t,
		Base:   e.BaseState(),
		Joints: e.JointStates(),
		IMU:    e.IMUData(),
	}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

func clampAbs(v, lim float64) float64 {
	return math.Min(math.Max(v, -lim), lim)
}
