// Package config loads, validates and defaults the YAML run
// configuration, and builds the typed robot, environment and controller
// settings from it.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bipedsim/internal/control"
	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/robot"
	"github.com/san-kum/bipedsim/internal/sim"
)

// ErrInvalid marks a configuration value that fails validation.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full YAML run configuration. Load starts from
// DefaultConfig and merges the file over it, so partial files work.
type Config struct {
	Robot      RobotConfig      `yaml:"robot"`
	Simulation SimulationConfig `yaml:"simulation"`
	Control    ControlConfig    `yaml:"control"`
	Stability  StabilityConfig  `yaml:"stability"`
}

// RobotConfig describes leg geometry and the symmetric baseline pose.
// Baseline angles are given for one leg and mirrored to the other.
type RobotConfig struct {
	Name        string         `yaml:"name"`
	ThighLength float64        `yaml:"thigh_length"`
	CalfLength  float64        `yaml:"calf_length"`
	HipOffsetY  float64        `yaml:"hip_offset_y"`
	HipOffsetZ  float64        `yaml:"hip_offset_z"`
	Baseline    BaselineConfig `yaml:"baseline"`
}

// BaselineConfig is the sagittal standing pose of one leg, in degrees.
type BaselineConfig struct {
	HipPitch   float64 `yaml:"hip_pitch"`
	Knee       float64 `yaml:"knee"`
	AnklePitch float64 `yaml:"ankle_pitch"`
}

// SimulationConfig sets the timing, world and disturbance parameters.
type SimulationConfig struct {
	Dt             float64      `yaml:"dt"`         // physics step, s
	ControlDt      float64      `yaml:"control_dt"` // control tick, s
	Duration       float64      `yaml:"duration"`   // s
	Gravity        float64      `yaml:"gravity"`
	GroundFriction float64      `yaml:"ground_friction"`
	NoiseLevel     float64      `yaml:"noise_level"` // IMU noise stddev, deg
	Seed           int64        `yaml:"seed"`
	InitialRoll    float64      `yaml:"initial_roll"`  // deg
	InitialPitch   float64      `yaml:"initial_pitch"` // deg
	Pushes         []PushConfig `yaml:"pushes"`
}

// PushConfig schedules one disturbance impulse, deg/s at Time seconds.
type PushConfig struct {
	Time  float64 `yaml:"time"`
	Roll  float64 `yaml:"roll"`
	Pitch float64 `yaml:"pitch"`
}

// GainsConfig is one PID channel.
type GainsConfig struct {
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	OutputMin     float64 `yaml:"output_min"`
	OutputMax     float64 `yaml:"output_max"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

func (g GainsConfig) gains() control.Gains {
	return control.Gains{
		Kp: g.Kp, Ki: g.Ki, Kd: g.Kd,
		OutputMin: g.OutputMin, OutputMax: g.OutputMax,
		IntegralLimit: g.IntegralLimit,
	}
}

// MixConfig distributes posture corrections across the leg joints.
type MixConfig struct {
	HipRoll    float64 `yaml:"hip_roll"`
	HipPitch   float64 `yaml:"hip_pitch"`
	AnklePitch float64 `yaml:"ankle_pitch"`
}

// ControlConfig sets the standing controller. A zero TargetHeight means
// "derive from the baseline pose", which puts the default run at exact
// equilibrium.
type ControlConfig struct {
	Roll         GainsConfig `yaml:"roll"`
	Pitch        GainsConfig `yaml:"pitch"`
	Height       GainsConfig `yaml:"height"`
	Mix          MixConfig   `yaml:"mix"`
	TargetHeight float64     `yaml:"target_height"` // m, 0 = derive
	KneeGain     float64     `yaml:"knee_gain"`     // deg per m
	HipGain      float64     `yaml:"hip_gain"`      // deg per m
	MaxDelta     float64     `yaml:"max_delta"`     // deg per tick
}

// StabilityConfig sets the scoring thresholds and weights.
type StabilityConfig struct {
	MinHeight    float64 `yaml:"min_height"`
	MaxRoll      float64 `yaml:"max_roll"`
	MaxPitch     float64 `yaml:"max_pitch"`
	MaxDrift     float64 `yaml:"max_drift"`
	HeightWeight float64 `yaml:"height_weight"`
	TiltWeight   float64 `yaml:"tilt_weight"`
	DriftWeight  float64 `yaml:"drift_weight"`
}

// DefaultConfig returns the stock configuration: the small biped in a
// slightly crouched stance, quiet world, 10 s run.
func DefaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			Name:        "biped_v1",
			ThighLength: 0.12,
			CalfLength:  0.10,
			HipOffsetY:  0.07,
			HipOffsetZ:  0.075,
			Baseline:    BaselineConfig{HipPitch: -20, Knee: 40, AnklePitch: -20},
		},
		Simulation: SimulationConfig{
			Dt:             0.002,
			ControlDt:      0.02,
			Duration:       10,
			Gravity:        9.81,
			GroundFriction: 0.9,
			Seed:           42,
		},
		Control: ControlConfig{
			Roll:     GainsConfig{Kp: 0.3, Ki: 0.01, Kd: 0.05, OutputMin: -15, OutputMax: 15, IntegralLimit: 5},
			Pitch:    GainsConfig{Kp: 0.3, Ki: 0.01, Kd: 0.05, OutputMin: -15, OutputMax: 15, IntegralLimit: 5},
			Height:   GainsConfig{Kp: 8, Ki: 0.5, Kd: 1, OutputMin: -0.05, OutputMax: 0.05, IntegralLimit: 0.05},
			Mix:      MixConfig{HipRoll: 0.3, HipPitch: 0.3, AnklePitch: -0.2},
			KneeGain: 150,
			HipGain:  75,
			MaxDelta: 3,
		},
		Stability: StabilityConfig{
			MinHeight:    0.15,
			MaxRoll:      30,
			MaxPitch:     30,
			MaxDrift:     0.5,
			HeightWeight: 0.4,
			TiltWeight:   0.4,
			DriftWeight:  0.2,
		},
	}
}

// Load reads a YAML file and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every field eagerly and reports the first problem,
// wrapped in ErrInvalid.
func (c *Config) Validate() error {
	type check struct {
		ok  bool
		msg string
	}
	checks := []check{
		{c.Robot.ThighLength > 0, fmt.Sprintf("robot.thigh_length must be positive, got %g", c.Robot.ThighLength)},
		{c.Robot.CalfLength > 0, fmt.Sprintf("robot.calf_length must be positive, got %g", c.Robot.CalfLength)},
		{c.Robot.HipOffsetZ >= 0, fmt.Sprintf("robot.hip_offset_z must be non-negative, got %g", c.Robot.HipOffsetZ)},
		{c.Robot.Baseline.Knee >= 0, fmt.Sprintf("robot.baseline.knee must be non-negative, got %g", c.Robot.Baseline.Knee)},
		{c.Simulation.Dt > 0, fmt.Sprintf("simulation.dt must be positive, got %g", c.Simulation.Dt)},
		{c.Simulation.ControlDt >= c.Simulation.Dt, fmt.Sprintf("simulation.control_dt %g below simulation.dt %g", c.Simulation.ControlDt, c.Simulation.Dt)},
		{c.Simulation.Duration > 0, fmt.Sprintf("simulation.duration must be positive, got %g", c.Simulation.Duration)},
		{c.Simulation.Gravity > 0, fmt.Sprintf("simulation.gravity must be positive, got %g", c.Simulation.Gravity)},
		{c.Simulation.GroundFriction > 0, fmt.Sprintf("simulation.ground_friction must be positive, got %g", c.Simulation.GroundFriction)},
		{c.Simulation.NoiseLevel >= 0, fmt.Sprintf("simulation.noise_level must be non-negative, got %g", c.Simulation.NoiseLevel)},
		{c.Control.TargetHeight >= 0, fmt.Sprintf("control.target_height must be non-negative, got %g", c.Control.TargetHeight)},
		{c.Control.KneeGain >= 0, fmt.Sprintf("control.knee_gain must be non-negative, got %g", c.Control.KneeGain)},
		{c.Control.HipGain >= 0, fmt.Sprintf("control.hip_gain must be non-negative, got %g", c.Control.HipGain)},
		{c.Control.MaxDelta > 0, fmt.Sprintf("control.max_delta must be positive, got %g", c.Control.MaxDelta)},
		{c.Stability.MinHeight > 0, fmt.Sprintf("stability.min_height must be positive, got %g", c.Stability.MinHeight)},
		{c.Stability.MaxRoll > 0, fmt.Sprintf("stability.max_roll must be positive, got %g", c.Stability.MaxRoll)},
		{c.Stability.MaxPitch > 0, fmt.Sprintf("stability.max_pitch must be positive, got %g", c.Stability.MaxPitch)},
		{c.Stability.MaxDrift > 0, fmt.Sprintf("stability.max_drift must be positive, got %g", c.Stability.MaxDrift)},
		{c.Stability.HeightWeight+c.Stability.TiltWeight+c.Stability.DriftWeight > 0, "stability weights sum to zero"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s", ErrInvalid, ch.msg)
		}
	}

	names := [...]string{"roll", "pitch", "height"}
	for i, g := range []GainsConfig{c.Control.Roll, c.Control.Pitch, c.Control.Height} {
		if err := g.gains().Validate(); err != nil {
			return fmt.Errorf("%w: control.%s: %v", ErrInvalid, names[i], err)
		}
	}

	for i, p := range c.Simulation.Pushes {
		if p.Time < 0 || math.IsNaN(p.Time) {
			return fmt.Errorf("%w: simulation.pushes[%d].time must be non-negative, got %g", ErrInvalid, i, p.Time)
		}
	}
	return nil
}

// Geometry builds the leg geometry from the robot section.
func (c *Config) Geometry() robot.LegGeometry {
	return robot.LegGeometry{
		ThighLength: c.Robot.ThighLength,
		CalfLength:  c.Robot.CalfLength,
		HipOffsetY:  c.Robot.HipOffsetY,
		HipOffsetZ:  c.Robot.HipOffsetZ,
	}
}

// Description builds the robot description with stock limits and the
// configured geometry.
func (c *Config) Description() (*robot.Description, error) {
	return robot.NewDescription(c.Robot.Name, robot.DefaultLimits(), c.Geometry(),
		robot.DefaultLinks(), robot.DefaultMasses())
}

// BaselinePose expands the one-leg baseline into the full symmetric
// joint map.
func (c *Config) BaselinePose() map[string]float64 {
	b := c.Robot.Baseline
	return map[string]float64{
		robot.JointHeadPitch:       0,
		robot.JointLeftHipRoll:     0,
		robot.JointLeftHipPitch:    b.HipPitch,
		robot.JointLeftKnee:        b.Knee,
		robot.JointLeftAnklePitch:  b.AnklePitch,
		robot.JointRightHipRoll:    0,
		robot.JointRightHipPitch:   b.HipPitch,
		robot.JointRightKnee:       b.Knee,
		robot.JointRightAnklePitch: b.AnklePitch,
	}
}

// TargetHeight resolves the CoM height setpoint: the configured value,
// or the baseline pose's standing height when left at zero.
func (c *Config) TargetHeight() float64 {
	if c.Control.TargetHeight > 0 {
		return c.Control.TargetHeight
	}
	return c.Geometry().StandingHeight(c.Robot.Baseline.HipPitch, c.Robot.Baseline.Knee)
}

// EnvConfig builds the environment settings.
func (c *Config) EnvConfig() sim.EnvConfig {
	pushes := make([]sim.Push, len(c.Simulation.Pushes))
	for i, p := range c.Simulation.Pushes {
		pushes[i] = sim.Push{Time: p.Time, Roll: p.Roll, Pitch: p.Pitch}
	}
	return sim.EnvConfig{
		Dt:             c.Simulation.Dt,
		Gravity:        c.Simulation.Gravity,
		GroundFriction: c.Simulation.GroundFriction,
		NoiseLevel:     c.Simulation.NoiseLevel,
		Seed:           c.Simulation.Seed,
		InitialRoll:    c.Simulation.InitialRoll,
		InitialPitch:   c.Simulation.InitialPitch,
		Pushes:         pushes,
	}
}

// SessionConfig builds the session timing.
func (c *Config) SessionConfig() sim.SessionConfig {
	return sim.SessionConfig{
		ControlDt: c.Simulation.ControlDt,
		Duration:  c.Simulation.Duration,
	}
}

// StandingConfig builds the standing controller settings.
func (c *Config) StandingConfig() control.StandingConfig {
	return control.StandingConfig{
		RollGains:   c.Control.Roll.gains(),
		PitchGains:  c.Control.Pitch.gains(),
		HeightGains: c.Control.Height.gains(),
		Mix: control.PostureMix{
			HipRoll:    c.Control.Mix.HipRoll,
			HipPitch:   c.Control.Mix.HipPitch,
			AnklePitch: c.Control.Mix.AnklePitch,
		},
		TargetHeight: c.TargetHeight(),
		KneeGain:     c.Control.KneeGain,
		HipGain:      c.Control.HipGain,
		Baseline:     c.BaselinePose(),
		MaxDelta:     c.Control.MaxDelta,
	}
}

// StabilityThresholds builds the scoring thresholds.
func (c *Config) StabilityThresholds() metrics.Thresholds {
	return metrics.Thresholds{
		MinHeight: c.Stability.MinHeight,
		MaxRoll:   c.Stability.MaxRoll,
		MaxPitch:  c.Stability.MaxPitch,
		MaxDrift:  c.Stability.MaxDrift,
	}
}

// StabilityWeights builds the sub-score blend.
func (c *Config) StabilityWeights() metrics.Weights {
	return metrics.Weights{
		Height: c.Stability.HeightWeight,
		Tilt:   c.Stability.TiltWeight,
		Drift:  c.Stability.DriftWeight,
	}
}
