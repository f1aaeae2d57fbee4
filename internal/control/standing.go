package control

import (
	"fmt"
	"math"

	"github.com/san-kum/bipedsim/internal/log"
	"github.com/san-kum/bipedsim/internal/robot"
	"github.com/san-kum/bipedsim/internal/sim"
)

// StandingConfig gathers everything the standing controller is built
// from. All of it arrives validated and typed from the config layer;
// construction re-checks it and fails fast on ErrInvalidConfig.
type StandingConfig struct {
	RollGains    Gains
	PitchGains   Gains
	HeightGains  Gains
	Mix          PostureMix
	TargetHeight float64 // m
	KneeGain     float64 // deg per m
	HipGain      float64 // deg per m
	Baseline     map[string]float64
	MaxDelta     float64 // per-tick correction clamp, deg
}

// DefaultStandingConfig returns the stock configuration for the given
// baseline pose.
func DefaultStandingConfig(baseline map[string]float64, targetHeight float64) StandingConfig {
	return StandingConfig{
		RollGains:    DefaultPostureGains(),
		PitchGains:   DefaultPostureGains(),
		HeightGains:  DefaultCoMGains(),
		Mix:          DefaultPostureMix(),
		TargetHeight: targetHeight,
		KneeGain:     150,
		HipGain:      75,
		Baseline:     baseline,
		MaxDelta:     3,
	}
}

// Standing is the single orchestration point of the balance subsystem:
// per tick it fans the sensed state out to the posture and CoM
// controllers, adds their deltas onto the baseline pose, clamps, and
// emits one command. It holds no state beyond the sub-controllers' PID
// accumulators.
type Standing struct {
	posture  *Posture
	com      *CoM
	baseline sim.Command
	desc     *robot.Description
	maxDelta float64

	// saturations counts range clamps for observability; clamping is
	// handled locally and never surfaced as an error.
	saturations int
}

// NewStanding builds the standing controller, validating gains and
// baseline symmetry.
func NewStanding(cfg StandingConfig, desc *robot.Description) (*Standing, error) {
	posture, err := NewPosture(cfg.RollGains, cfg.PitchGains, cfg.Mix)
	if err != nil {
		return nil, err
	}
	com, err := NewCoM(cfg.HeightGains, cfg.TargetHeight, cfg.KneeGain, cfg.HipGain)
	if err != nil {
		return nil, err
	}
	if len(cfg.Baseline) == 0 {
		return nil, fmt.Errorf("%w: empty baseline pose", ErrInvalidConfig)
	}
	if err := desc.ValidateBaseline(cfg.Baseline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.MaxDelta <= 0 {
		return nil, fmt.Errorf("%w: per-tick clamp must be positive, got %g",
			ErrInvalidConfig, cfg.MaxDelta)
	}

	return &Standing{
		posture:  posture,
		com:      com,
		baseline: sim.Command(cfg.Baseline).Clone(),
		desc:     desc,
		maxDelta: cfg.MaxDelta,
	}, nil
}

// Compute produces this tick's joint command from the sensed state:
// baseline pose plus posture deltas on hip/ankle joints and CoM deltas
// on the knees, each delta clamped per tick, each resulting command
// clamped to the joint's declared range.
func (s *Standing) Compute(state sim.RobotState, dt float64) (sim.Command, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: non-finite robot state at t=%.4f", ErrInvalidInput, state.Time)
	}

	pd, err := s.posture.Compute(state.IMU.Roll, state.IMU.Pitch, dt)
	if err != nil {
		return nil, err
	}
	cd, err := s.com.Compute(state.Base.Position.Z, dt)
	if err != nil {
		return nil, err
	}

	cmd := make(sim.Command, len(s.baseline))
	for name, base := range s.baseline {
		delta := clamp(s.jointDelta(name, pd, cd), -s.maxDelta, s.maxDelta)
		target := base + delta

		j, jerr := s.desc.Joint(name)
		if jerr != nil {
			return nil, jerr
		}
		clamped := j.Clamp(target)
		if clamped != target {
			s.saturations++
			log.Debug("joint command saturated",
				"joint", name, "target", target, "range_min", j.Min, "range_max", j.Max)
		}
		cmd[name] = clamped
	}
	return cmd, nil
}

// jointDelta routes the sub-controller outputs to the joint they
// actuate. Joints outside the balance chain (head) get zero delta.
func (s *Standing) jointDelta(name string, pd PostureDeltas, cd CoMDeltas) float64 {
	switch name {
	case robot.JointLeftHipRoll:
		return pd.LeftHipRoll
	case robot.JointRightHipRoll:
		return pd.RightHipRoll
	case robot.JointLeftHipPitch, robot.JointRightHipPitch:
		return pd.HipPitch + cd.HipPitch
	case robot.JointLeftKnee, robot.JointRightKnee:
		return cd.Knee
	case robot.JointLeftAnklePitch, robot.JointRightAnklePitch:
		return pd.AnklePitch
	default:
		return 0
	}
}

// Reset cascades to both sub-controllers and clears the saturation
// counter.
func (s *Standing) Reset() {
	s.posture.Reset()
	s.com.Reset()
	s.saturations = 0
}

// Saturations reports how many joint commands have been range-clamped
// since the last reset.
func (s *Standing) Saturations() int {
	return s.saturations
}

// Baseline returns a copy of the baseline pose.
func (s *Standing) Baseline() sim.Command {
	return s.baseline.Clone()
}

// GetParams exposes the live-tunable gains.
func (s *Standing) GetParams() map[string]float64 {
	return map[string]float64{
		"roll_kp":   s.posture.roll.Gains.Kp,
		"roll_ki":   s.posture.roll.Gains.Ki,
		"roll_kd":   s.posture.roll.Gains.Kd,
		"pitch_kp":  s.posture.pitch.Gains.Kp,
		"pitch_ki":  s.posture.pitch.Gains.Ki,
		"pitch_kd":  s.posture.pitch.Gains.Kd,
		"height_kp": s.com.pid.Gains.Kp,
		"height_ki": s.com.pid.Gains.Ki,
		"height_kd": s.com.pid.Gains.Kd,
	}
}

// SetParam adjusts one gain at runtime. Unknown names and negative
// values are rejected.
func (s *Standing) SetParam(name string, value float64) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidConfig, name, value)
	}
	var target *float64
	switch name {
	case "roll_kp":
		target = &s.posture.roll.Gains.Kp
	case "roll_ki":
		target = &s.posture.roll.Gains.Ki
	case "roll_kd":
		target = &s.posture.roll.Gains.Kd
	case "pitch_kp":
		target = &s.posture.pitch.Gains.Kp
	case "pitch_ki":
		target = &s.posture.pitch.Gains.Ki
	case "pitch_kd":
		target = &s.posture.pitch.Gains.Kd
	case "height_kp":
		target = &s.com.pid.Gains.Kp
	case "height_ki":
		target = &s.com.pid.Gains.Ki
	case "height_kd":
		target = &s.com.pid.Gains.Kd
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, name)
	}
	*target = value
	return nil
}
