// Package robot describes the simulated biped: its joints and their
// limits, its link geometry and masses, and the planar leg kinematics
// used both by the simulation environment and by the URDF generator.
//
// All public angles are in degrees, all lengths in meters.
package robot

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Joint identifiers. The biped has 9 actuated DOF: a head pitch and
// four joints per leg minus the unused hip yaw.
const (
	JointHeadPitch       = "head_pitch"
	JointLeftHipRoll     = "left_hip_roll"
	JointLeftHipPitch    = "left_hip_pitch"
	JointLeftKnee        = "left_knee"
	JointLeftAnklePitch  = "left_ankle_pitch"
	JointRightHipRoll    = "right_hip_roll"
	JointRightHipPitch   = "right_hip_pitch"
	JointRightKnee       = "right_knee"
	JointRightAnklePitch = "right_ankle_pitch"
)

var ErrUnknownJoint = errors.New("robot: unknown joint")

// Joint holds the declared limits of one actuated axis.
// Angles are degrees, velocity is degrees per second.
type Joint struct {
	Name        string
	Min         float64
	Max         float64
	MaxVelocity float64
}

// Clamp bounds an angle to the joint's declared range.
func (j Joint) Clamp(angle float64) float64 {
	return math.Min(math.Max(angle, j.Min), j.Max)
}

// InRange reports whether an angle lies within the joint's declared range.
func (j Joint) InRange(angle float64) bool {
	return angle >= j.Min && angle <= j.Max
}

// BoxDims are outer dimensions of a box link.
type BoxDims struct {
	Width, Depth, Height float64
}

// CylinderDims describe a cylindrical link.
type CylinderDims struct {
	Radius, Length float64
}

// Links holds the geometry of every rigid link.
type Links struct {
	Torso BoxDims
	Head  float64 // sphere radius
	Hip   CylinderDims
	Thigh CylinderDims
	Calf  CylinderDims
	Foot  BoxDims
}

// Masses assigns a mass to every link, in kilograms.
type Masses struct {
	Torso, Head, Hip, Thigh, Calf, Foot float64
}

// Description is the full typed robot model. It is built once from
// validated configuration and treated as immutable afterwards.
type Description struct {
	Name   string
	Leg    LegGeometry
	Links  Links
	Masses Masses
	joints map[string]Joint
	names  []string
}

// NewDescription assembles a Description from per-joint limits.
// The limits map is keyed by joint type (head_pitch, hip_roll, hip_pitch,
// knee, ankle_pitch); leg joints are expanded to both sides.
func NewDescription(name string, limits map[string]Joint, leg LegGeometry, links Links, masses Masses) (*Description, error) {
	required := []string{"head_pitch", "hip_roll", "hip_pitch", "knee", "ankle_pitch"}
	for _, k := range required {
		j, ok := limits[k]
		if !ok {
			return nil, fmt.Errorf("robot: missing limits for joint type %q", k)
		}
		if j.Min > j.Max {
			return nil, fmt.Errorf("robot: joint type %q has min %g > max %g", k, j.Min, j.Max)
		}
		if j.MaxVelocity <= 0 {
			return nil, fmt.Errorf("robot: joint type %q has non-positive max velocity %g", k, j.MaxVelocity)
		}
	}

	d := &Description{
		Name:   name,
		Leg:    leg,
		Links:  links,
		Masses: masses,
		joints: make(map[string]Joint, 9),
	}

	add := func(joint string, kind string) {
		j := limits[kind]
		j.Name = joint
		d.joints[joint] = j
	}

	add(JointHeadPitch, "head_pitch")
	for _, side := range []string{"left", "right"} {
		add(side+"_hip_roll", "hip_roll")
		add(side+"_hip_pitch", "hip_pitch")
		add(side+"_knee", "knee")
		add(side+"_ankle_pitch", "ankle_pitch")
	}

	d.names = make([]string, 0, len(d.joints))
	for n := range d.joints {
		d.names = append(d.names, n)
	}
	sort.Strings(d.names)

	return d, nil
}

// Joint looks up a joint by name.
func (d *Description) Joint(name string) (Joint, error) {
	j, ok := d.joints[name]
	if !ok {
		return Joint{}, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
	}
	return j, nil
}

// Names returns all joint names in deterministic (sorted) order.
func (d *Description) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// DOF returns the number of actuated joints.
func (d *Description) DOF() int { return len(d.joints) }

// mirrorPairs lists the left/right joint pairs and whether the pair
// mirrors (left = -right, roll axes) or copies (left = right).
var mirrorPairs = []struct {
	left, right string
	mirrored    bool
}{
	{JointLeftHipRoll, JointRightHipRoll, true},
	{JointLeftHipPitch, JointRightHipPitch, false},
	{JointLeftKnee, JointRightKnee, false},
	{JointLeftAnklePitch, JointRightAnklePitch, false},
}

// ValidateBaseline checks a baseline pose against the description:
// every key must name a known joint, every angle must lie within the
// joint's range, and the pose must be left/right symmetric (roll joints
// mirrored, pitch and knee joints equal).
func (d *Description) ValidateBaseline(pose map[string]float64) error {
	for name, angle := range pose {
		j, err := d.Joint(name)
		if err != nil {
			return err
		}
		if !j.InRange(angle) {
			return fmt.Errorf("robot: baseline angle %g for %q outside range [%g, %g]",
				angle, name, j.Min, j.Max)
		}
	}

	const tol = 1e-9
	for _, p := range mirrorPairs {
		l, r := pose[p.left], pose[p.right]
		want := r
		if p.mirrored {
			want = -r
		}
		if math.Abs(l-want) > tol {
			return fmt.Errorf("robot: baseline not symmetric: %s=%g vs %s=%g", p.left, l, p.right, r)
		}
	}
	return nil
}

// DefaultLimits returns the stock joint limits for the small biped.
func DefaultLimits() map[string]Joint {
	return map[string]Joint{
		"head_pitch":  {Min: -30, Max: 30, MaxVelocity: 90},
		"hip_roll":    {Min: -30, Max: 30, MaxVelocity: 120},
		"hip_pitch":   {Min: -60, Max: 60, MaxVelocity: 120},
		"knee":        {Min: 0, Max: 120, MaxVelocity: 120},
		"ankle_pitch": {Min: -45, Max: 45, MaxVelocity: 120},
	}
}

// DefaultLinks returns the stock link geometry.
func DefaultLinks() Links {
	return Links{
		Torso: BoxDims{Width: 0.12, Depth: 0.08, Height: 0.15},
		Head:  0.04,
		Hip:   CylinderDims{Radius: 0.018, Length: 0.04},
		Thigh: CylinderDims{Radius: 0.015, Length: 0.12},
		Calf:  CylinderDims{Radius: 0.012, Length: 0.10},
		Foot:  BoxDims{Width: 0.05, Depth: 0.09, Height: 0.02},
	}
}

// DefaultMasses returns the stock mass distribution.
func DefaultMasses() Masses {
	return Masses{
		Torso: 1.0,
		Head:  0.2,
		Hip:   0.1,
		Thigh: 0.3,
		Calf:  0.25,
		Foot:  0.1,
	}
}

// DefaultDescription builds the stock small biped.
func DefaultDescription() *Description {
	d, err := NewDescription("biped_v1", DefaultLimits(), DefaultGeometry(), DefaultLinks(), DefaultMasses())
	if err != nil {
		panic(err) // defaults are static and always valid
	}
	return d
}
