package config

import "sort"

// Presets are named run scenarios. Each starts from the defaults and
// overrides what the scenario needs.
var presets = map[string]func(*Config){
	// The stock crouched stance at exact equilibrium.
	"default": func(c *Config) {},

	// Deeper crouch: lower center of mass, more knee authority.
	"crouch": func(c *Config) {
		c.Robot.Baseline = BaselineConfig{HipPitch: -30, Knee: 60, AnklePitch: -30}
	},

	// Nearly straight legs: tall stance close to the knee's workspace
	// edge.
	"straight": func(c *Config) {
		c.Robot.Baseline = BaselineConfig{HipPitch: -5, Knee: 10, AnklePitch: -5}
	},

	// Starts tilted and takes two pushes mid-run.
	"perturbed": func(c *Config) {
		c.Simulation.InitialPitch = 5
		c.Simulation.Pushes = []PushConfig{
			{Time: 2, Pitch: 20},
			{Time: 5, Roll: -15, Pitch: 10},
		}
	},

	// Heavy IMU noise on top of the default stance.
	"noisy": func(c *Config) {
		c.Simulation.NoiseLevel = 0.5
	},
}

// GetPreset returns a named scenario, or nil if it does not exist.
func GetPreset(name string) *Config {
	override, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	override(cfg)
	return cfg
}

// ListPresets returns all scenario names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
