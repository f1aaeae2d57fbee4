package control

import (
	"fmt"
	"math"
)

// CoMDeltas are the common-mode joint offsets (degrees) that realize a
// height correction. Both knees and both hip pitch joints receive the
// same value, so height regulation cannot introduce roll.
type CoMDeltas struct {
	Knee     float64
	HipPitch float64
}

// CoM regulates the base height toward a fixed target via knee flexion,
// with a hip pitch counter-rotation that keeps the torso level.
//
// Sign convention, locked by a directional regression test: knee angle
// 0° is a straight leg and positive is flexed. A height deficit
// (current below target) yields a positive PID correction, which must
// EXTEND the legs, so the knee delta is the correction scaled by
// -KneeGain. This only holds near the baseline bent-knee stance, the
// controller's valid operating point.
type CoM struct {
	pid          PID
	TargetHeight float64 // m
	KneeGain     float64 // deg of knee extension per m of correction
	HipGain      float64 // deg of hip pitch per m of correction
}

// DefaultCoMGains returns the stock height-loop gains. The output is a
// height correction in meters, hence the tight limits.
func DefaultCoMGains() Gains {
	return Gains{
		Kp:            8.0,
		Ki:            0.5,
		Kd:            1.0,
		OutputMin:     -0.05,
		OutputMax:     0.05,
		IntegralLimit: 0.05, // m·s
	}
}

// NewCoM validates the gains and target and returns a height controller
// at zero state.
func NewCoM(g Gains, targetHeight, kneeGain, hipGain float64) (*CoM, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if targetHeight <= 0 || math.IsNaN(targetHeight) {
		return nil, fmt.Errorf("%w: target height must be positive, got %g",
			ErrInvalidConfig, targetHeight)
	}
	if kneeGain < 0 || hipGain < 0 {
		return nil, fmt.Errorf("%w: knee/hip gains must be non-negative", ErrInvalidConfig)
	}
	return &CoM{
		pid:          PID{Gains: g},
		TargetHeight: targetHeight,
		KneeGain:     kneeGain,
		HipGain:      hipGain,
	}, nil
}

// Compute turns the measured base height (meters) into common-mode leg
// joint offsets.
func (c *CoM) Compute(height, dt float64) (CoMDeltas, error) {
	corr, err := c.pid.Update(c.TargetHeight-height, dt)
	if err != nil {
		return CoMDeltas{}, err
	}
	return CoMDeltas{
		Knee:     -corr * c.KneeGain,
		HipPitch: corr * c.HipGain,
	}, nil
}

// Reset zeroes the PID state.
func (c *CoM) Reset() {
	c.pid.Reset()
}
