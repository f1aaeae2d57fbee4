package control

// PostureMix maps the roll and pitch corrections onto leg joints.
// HipRoll is applied differentially (left positive, right negative),
// HipPitch and AnklePitch common-mode to both legs.
type PostureMix struct {
	HipRoll    float64
	HipPitch   float64
	AnklePitch float64
}

// DefaultPostureMix returns the stock correction mix.
func DefaultPostureMix() PostureMix {
	return PostureMix{HipRoll: 0.3, HipPitch: 0.3, AnklePitch: -0.2}
}

// PostureDeltas are per-joint angle offsets in degrees, added on top of
// the baseline pose.
type PostureDeltas struct {
	LeftHipRoll  float64
	RightHipRoll float64
	HipPitch     float64 // both legs
	AnklePitch   float64 // both legs
}

// Posture cancels base roll and pitch with two independent PID loops.
// The setpoint is fixed at zero tilt: balance is defined as upright,
// not a tracked trajectory.
type Posture struct {
	roll  PID
	pitch PID
	mix   PostureMix
}

// DefaultPostureGains returns the conservative stock tilt gains.
// Small gains and tight limits: a slow controller recovers, a
// divergent one does not.
func DefaultPostureGains() Gains {
	return Gains{
		Kp:            0.3,
		Ki:            0.01,
		Kd:            0.05,
		OutputMin:     -15,
		OutputMax:     15,
		IntegralLimit: 5, // deg·s
	}
}

// NewPosture validates both axes' gains and returns a posture
// controller at zero state.
func NewPosture(rollGains, pitchGains Gains, mix PostureMix) (*Posture, error) {
	if err := rollGains.Validate(); err != nil {
		return nil, err
	}
	if err := pitchGains.Validate(); err != nil {
		return nil, err
	}
	return &Posture{
		roll:  PID{Gains: rollGains},
		pitch: PID{Gains: pitchGains},
		mix:   mix,
	}, nil
}

// Compute turns the measured roll and pitch (degrees) into joint
// offsets. Roll correction is differential across the hip roll joints,
// preserving the left/right symmetry of the baseline stance; pitch
// correction is common-mode on the hip and ankle pitch joints.
func (c *Posture) Compute(roll, pitch, dt float64) (PostureDeltas, error) {
	rc, err := c.roll.Update(-roll, dt)
	if err != nil {
		return PostureDeltas{}, err
	}
	pc, err := c.pitch.Update(-pitch, dt)
	if err != nil {
		return PostureDeltas{}, err
	}

	return PostureDeltas{
		LeftHipRoll:  rc * c.mix.HipRoll,
		RightHipRoll: rc * -c.mix.HipRoll,
		HipPitch:     pc * c.mix.HipPitch,
		AnklePitch:   pc * c.mix.AnklePitch,
	}, nil
}

// Reset zeroes both PID states.
func (c *Posture) Reset() {
	c.roll.Reset()
	c.pitch.Reset()
}
