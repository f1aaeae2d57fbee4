// Package metrics scores standing balance from the per-tick state
// stream. The stability observer accumulates samples during a run and
// produces a 0-100 composite score from the steadiness of height, tilt
// and ground drift.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bipedsim/internal/sim"
)

// Thresholds are the hard pass/fail bounds for a single sample.
type Thresholds struct {
	MinHeight float64 // m
	MaxRoll   float64 // deg
	MaxPitch  float64 // deg
	MaxDrift  float64 // m
}

// DefaultThresholds returns the stock stability bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHeight: 0.15,
		MaxRoll:   30,
		MaxPitch:  30,
		MaxDrift:  0.5,
	}
}

// Weights blend the sub-scores into the composite. They need not sum
// to one; Score normalizes.
type Weights struct {
	Height float64
	Tilt   float64
	Drift  float64
}

// DefaultWeights returns the stock blend.
func DefaultWeights() Weights {
	return Weights{Height: 0.4, Tilt: 0.4, Drift: 0.2}
}

// Sub-score scales: the deviation (std for height and tilt, maximum
// excursion for drift) at which a sub-score drops to 50.
const (
	heightScale = 0.02 // m
	tiltScale   = 2.0  // deg
	driftScale  = 0.05 // m
)

// Summary is a point-in-time read of the accumulated statistics.
type Summary struct {
	Samples    int     `json:"samples"`
	Duration   float64 `json:"duration"`
	MeanHeight float64 `json:"mean_height"`
	MinHeight  float64 `json:"min_height"`
	MaxHeight  float64 `json:"max_height"`
	StdHeight  float64 `json:"std_height"`
	MeanRoll   float64 `json:"mean_roll"`
	MeanPitch  float64 `json:"mean_pitch"`
	StdRoll    float64 `json:"std_roll"`
	StdPitch   float64 `json:"std_pitch"`
	MaxDrift   float64 `json:"max_drift"`
	Violations int     `json:"violations"`
	Score      float64 `json:"score"`
	IsStable   bool    `json:"is_stable"`
}

// Stability accumulates balance samples. It implements sim.Observer;
// Update is O(1) so it can run inside the control loop, all statistics
// are computed on demand.
type Stability struct {
	thresholds Thresholds
	weights    Weights

	heights []float64
	rolls   []float64
	pitches []float64
	drifts  []float64

	startX, startY float64

	lastTime   float64
	maxDrift   float64
	violations int
}

// NewStability builds an observer with the given bounds and blend.
func NewStability(th Thresholds, w Weights) *Stability {
	return &Stability{thresholds: th, weights: w}
}

// Update records one tick. Drift is measured against the position of
// the first recorded sample, so the drift of the first sample is
// always zero.
func (s *Stability) Update(state sim.RobotState) {
	if len(s.heights) == 0 {
		s.startX = state.Base.Position.X
		s.startY = state.Base.Position.Y
	}
	drift := math.Hypot(state.Base.Position.X-s.startX, state.Base.Position.Y-s.startY)

	s.heights = append(s.heights, state.Base.Position.Z)
	s.rolls = append(s.rolls, state.Base.Roll)
	s.pitches = append(s.pitches, state.Base.Pitch)
	s.drifts = append(s.drifts, drift)
	s.lastTime = state.Time
	if drift > s.maxDrift {
		s.maxDrift = drift
	}
	if !s.within(state.Base.Position.Z, state.Base.Roll, state.Base.Pitch, drift) {
		s.violations++
	}
}

func (s *Stability) within(height, roll, pitch, drift float64) bool {
	return height >= s.thresholds.MinHeight &&
		math.Abs(roll) <= s.thresholds.MaxRoll &&
		math.Abs(pitch) <= s.thresholds.MaxPitch &&
		drift <= s.thresholds.MaxDrift
}

// Samples returns the number of recorded ticks.
func (s *Stability) Samples() int { return len(s.heights) }

// IsStable reports whether the most recent sample is within every
// threshold. With no samples recorded it reports false.
func (s *Stability) IsStable() bool {
	n := len(s.heights)
	if n == 0 {
		return false
	}
	i := n - 1
	return s.within(s.heights[i], s.rolls[i], s.pitches[i], s.drifts[i])
}

// Score computes the 0-100 composite. The height and tilt sub-scores
// reward a small standard deviation: 100*scale/(scale+std), so a
// perfectly flat trace scores exactly 100. Tilt takes the worse of
// roll and pitch. The drift sub-score penalizes the maximum excursion
// from the starting position, so wandering off and then holding still
// does not recover the channel. With no samples the score is 0.
func (s *Stability) Score() float64 {
	if len(s.heights) == 0 {
		return 0
	}

	hs := subScore(stddev(s.heights), heightScale)
	ts := subScore(math.Max(stddev(s.rolls), stddev(s.pitches)), tiltScale)
	ds := subScore(s.maxDrift, driftScale)

	total := s.weights.Height + s.weights.Tilt + s.weights.Drift
	if total <= 0 {
		return 0
	}
	score := (s.weights.Height*hs + s.weights.Tilt*ts + s.weights.Drift*ds) / total
	return clamp01(score/100) * 100
}

// Summary snapshots all statistics. It is a pure read; calling it
// twice without an intervening Update yields identical results.
func (s *Stability) Summary() Summary {
	minH, maxH := bounds(s.heights)
	return Summary{
		Samples:    len(s.heights),
		Duration:   s.lastTime,
		MeanHeight: mean(s.heights),
		MinHeight:  minH,
		MaxHeight:  maxH,
		StdHeight:  stddev(s.heights),
		MeanRoll:   mean(s.rolls),
		MeanPitch:  mean(s.pitches),
		StdRoll:    stddev(s.rolls),
		StdPitch:   stddev(s.pitches),
		MaxDrift:   s.maxDrift,
		Violations: s.violations,
		Score:      s.Score(),
		IsStable:   s.IsStable(),
	}
}

// Reset discards all accumulated samples.
func (s *Stability) Reset() {
	s.heights = s.heights[:0]
	s.rolls = s.rolls[:0]
	s.pitches = s.pitches[:0]
	s.drifts = s.drifts[:0]
	s.startX = 0
	s.startY = 0
	s.lastTime = 0
	s.maxDrift = 0
	s.violations = 0
}

func subScore(std, scale float64) float64 {
	return clamp01(scale/(scale+std)) * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func bounds(xs []float64) (min, max float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return floats.Min(xs), floats.Max(xs)
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
