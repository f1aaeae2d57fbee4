package robot

import "math"

// LegGeometry holds the planar leg link lengths and hip offsets.
type LegGeometry struct {
	ThighLength float64 // m
	CalfLength  float64 // m
	HipOffsetY  float64 // lateral hip offset from torso center, m
	HipOffsetZ  float64 // vertical drop from torso center to hip, m
}

// DefaultGeometry returns the stock leg geometry.
func DefaultGeometry() LegGeometry {
	return LegGeometry{
		ThighLength: 0.12,
		CalfLength:  0.10,
		HipOffsetY:  0.07,
		HipOffsetZ:  0.075,
	}
}

// LegAngles is the sagittal-plane solution of one leg.
// Knee convention: 0 = straight leg, positive = flexed.
// The ankle keeps the foot sole level: ankle = -(hip + knee).
type LegAngles struct {
	HipPitch   float64 // deg
	Knee       float64 // deg
	AnklePitch float64 // deg
}

// LegFK computes the ankle position relative to the hip for the given
// hip pitch and knee flexion (degrees). x is forward, z is vertical
// (negative below the hip).
func (g LegGeometry) LegFK(hipPitchDeg, kneeDeg float64) (x, z float64) {
	l1, l2 := g.ThighLength, g.CalfLength
	hip := hipPitchDeg * math.Pi / 180
	knee := kneeDeg * math.Pi / 180

	// Hip-to-ankle distance from the knee triangle.
	d := math.Sqrt(l1*l1 + l2*l2 + 2*l1*l2*math.Cos(knee))

	cosBeta := (l1*l1 + d*d - l2*l2) / (2 * l1 * d)
	beta := math.Acos(clampUnit(cosBeta))

	alpha := hip + beta
	return -d * math.Sin(alpha), -d * math.Cos(alpha)
}

// LegHeight returns the vertical hip-to-ankle extent for a leg pose.
func (g LegGeometry) LegHeight(hipPitchDeg, kneeDeg float64) float64 {
	_, z := g.LegFK(hipPitchDeg, kneeDeg)
	return -z
}

// StandingHeight returns the torso base height above ground when both
// legs hold the given sagittal pose on a flat foot.
func (g LegGeometry) StandingHeight(hipPitchDeg, kneeDeg float64) float64 {
	return g.LegHeight(hipPitchDeg, kneeDeg) + g.HipOffsetZ
}

// SolveLegIK solves the 2-link planar leg for an ankle target relative
// to the hip: targetX forward, targetZ vertical (negative below the
// hip). Unreachable targets are clamped to the reachable envelope, the
// solver never fails.
func (g LegGeometry) SolveLegIK(targetX, targetZ float64) LegAngles {
	l1, l2 := g.ThighLength, g.CalfLength

	dx, dz := targetX, targetZ
	d := math.Hypot(dx, dz)

	maxReach := l1 + l2
	minReach := math.Abs(l1 - l2)
	if d > maxReach {
		d = maxReach - 1e-6
	}
	if d < minReach+1e-6 {
		d = minReach + 1e-6
	}

	// Law of cosines for the knee; 0 = fully extended.
	cosKnee := (l1*l1 + l2*l2 - d*d) / (2 * l1 * l2)
	knee := math.Pi - math.Acos(clampUnit(cosKnee))

	alpha := math.Atan2(-dx, -dz)
	cosBeta := (l1*l1 + d*d - l2*l2) / (2 * l1 * d)
	beta := math.Acos(clampUnit(cosBeta))
	hip := alpha - beta

	ankle := -(hip + knee)

	return LegAngles{
		HipPitch:   hip * 180 / math.Pi,
		Knee:       knee * 180 / math.Pi,
		AnklePitch: ankle * 180 / math.Pi,
	}
}

// LegJoints expands an IK solution into the named joint map for one
// side, with the hip roll set directly from footRoll (degrees).
func (g LegGeometry) LegJoints(side string, footX, footZ, footRoll float64) map[string]float64 {
	ik := g.SolveLegIK(footX, footZ)
	return map[string]float64{
		side + "_hip_roll":    footRoll,
		side + "_hip_pitch":   ik.HipPitch,
		side + "_knee":        ik.Knee,
		side + "_ankle_pitch": ik.AnklePitch,
	}
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, -1), 1)
}
