package robot

import (
	"fmt"
	"math"
	"strings"
)

// GenerateURDF emits a URDF document for the described biped: a torso
// box, a head sphere on a pitch joint, and two legs (hip roll link,
// thigh and calf cylinders, foot box). Joint limits come from the
// description and are converted to radians for the URDF.
func GenerateURDF(d *Description) string {
	var sb strings.Builder

	sb.WriteString("<?xml version=\"1.0\"?>\n")
	sb.WriteString(fmt.Sprintf("<robot name=%q>\n\n", d.Name))

	writeBaseLink(&sb, d)
	writeTorso(&sb, d)
	writeHead(&sb, d)
	writeLeg(&sb, d, "left", +1)
	writeLeg(&sb, d, "right", -1)

	sb.WriteString("</robot>\n")
	return sb.String()
}

func writeBaseLink(sb *strings.Builder, d *Description) {
	sb.WriteString("  <link name=\"base_link\">\n")
	sb.WriteString("    <inertial>\n")
	sb.WriteString("      <mass value=\"0.001\"/>\n")
	sb.WriteString("      <inertia ixx=\"0.0001\" ixy=\"0\" ixz=\"0\" iyy=\"0.0001\" iyz=\"0\" izz=\"0.0001\"/>\n")
	sb.WriteString("    </inertial>\n")
	sb.WriteString("  </link>\n\n")
}

func writeTorso(sb *strings.Builder, d *Description) {
	box := d.Links.Torso
	mass := d.Masses.Torso

	sb.WriteString("  <link name=\"torso\">\n")
	writeBoxVisual(sb, box, "0.2 0.4 0.8 1.0")
	writeBoxInertial(sb, box, mass)
	sb.WriteString("  </link>\n\n")

	sb.WriteString("  <joint name=\"base_to_torso\" type=\"fixed\">\n")
	sb.WriteString("    <parent link=\"base_link\"/>\n")
	sb.WriteString("    <child link=\"torso\"/>\n")
	sb.WriteString(fmt.Sprintf("    <origin xyz=\"0 0 %g\" rpy=\"0 0 0\"/>\n", box.Height/2))
	sb.WriteString("  </joint>\n\n")
}

func writeHead(sb *strings.Builder, d *Description) {
	r := d.Links.Head
	mass := d.Masses.Head
	torso := d.Links.Torso

	sb.WriteString("  <link name=\"head\">\n")
	sb.WriteString("    <visual>\n")
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <sphere radius=\"%g\"/>\n", r))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("    </visual>\n")
	sb.WriteString("    <collision>\n")
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <sphere radius=\"%g\"/>\n", r))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("    </collision>\n")
	i := sphereInertia(mass, r)
	sb.WriteString("    <inertial>\n")
	sb.WriteString(fmt.Sprintf("      <mass value=\"%g\"/>\n", mass))
	sb.WriteString(fmt.Sprintf("      <inertia ixx=\"%.6g\" ixy=\"0\" ixz=\"0\" iyy=\"%.6g\" iyz=\"0\" izz=\"%.6g\"/>\n", i, i, i))
	sb.WriteString("    </inertial>\n")
	sb.WriteString("  </link>\n\n")

	writeRevoluteJoint(sb, d, JointHeadPitch, "torso", "head",
		fmt.Sprintf("0 0 %g", torso.Height/2+r), "0 1 0")
}

// writeLeg lays out one leg chain: torso -> hip roll link -> thigh ->
// calf -> foot. sign selects the lateral side (+1 left, -1 right).
func writeLeg(sb *strings.Builder, d *Description, side string, sign float64) {
	g := d.Leg

	hipLink := side + "_hip_link"
	thighLink := side + "_thigh"
	calfLink := side + "_calf"
	footLink := side + "_foot"

	writeCylinderLink(sb, hipLink, d.Links.Hip, d.Masses.Hip)
	writeRevoluteJoint(sb, d, side+"_hip_roll", "torso", hipLink,
		fmt.Sprintf("0 %g %g", sign*g.HipOffsetY, -g.HipOffsetZ), "1 0 0")

	writeCylinderLink(sb, thighLink, d.Links.Thigh, d.Masses.Thigh)
	writeRevoluteJoint(sb, d, side+"_hip_pitch", hipLink, thighLink,
		fmt.Sprintf("0 0 %g", -d.Links.Hip.Length/2), "0 1 0")

	writeCylinderLink(sb, calfLink, d.Links.Calf, d.Masses.Calf)
	writeRevoluteJoint(sb, d, side+"_knee", thighLink, calfLink,
		fmt.Sprintf("0 0 %g", -g.ThighLength), "0 1 0")

	foot := d.Links.Foot
	sb.WriteString(fmt.Sprintf("  <link name=%q>\n", footLink))
	writeBoxVisual(sb, foot, "0.3 0.3 0.3 1.0")
	writeBoxInertial(sb, foot, d.Masses.Foot)
	sb.WriteString("  </link>\n\n")
	writeRevoluteJoint(sb, d, side+"_ankle_pitch", calfLink, footLink,
		fmt.Sprintf("0 0 %g", -g.CalfLength), "0 1 0")
}

func writeRevoluteJoint(sb *strings.Builder, d *Description, name, parent, child, origin, axis string) {
	j, err := d.Joint(name)
	if err != nil {
		return
	}
	sb.WriteString(fmt.Sprintf("  <joint name=%q type=\"revolute\">\n", name))
	sb.WriteString(fmt.Sprintf("    <parent link=%q/>\n", parent))
	sb.WriteString(fmt.Sprintf("    <child link=%q/>\n", child))
	sb.WriteString(fmt.Sprintf("    <origin xyz=%q rpy=\"0 0 0\"/>\n", origin))
	sb.WriteString(fmt.Sprintf("    <axis xyz=%q/>\n", axis))
	sb.WriteString(fmt.Sprintf("    <limit lower=\"%.6f\" upper=\"%.6f\" effort=\"10\" velocity=\"%.6f\"/>\n",
		deg2rad(j.Min), deg2rad(j.Max), deg2rad(j.MaxVelocity)))
	sb.WriteString("  </joint>\n\n")
}

func writeCylinderLink(sb *strings.Builder, name string, dims CylinderDims, mass float64) {
	sb.WriteString(fmt.Sprintf("  <link name=%q>\n", name))
	sb.WriteString("    <visual>\n")
	sb.WriteString(fmt.Sprintf("      <origin xyz=\"0 0 %g\" rpy=\"0 0 0\"/>\n", -dims.Length/2))
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <cylinder radius=\"%g\" length=\"%g\"/>\n", dims.Radius, dims.Length))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("    </visual>\n")
	sb.WriteString("    <collision>\n")
	sb.WriteString(fmt.Sprintf("      <origin xyz=\"0 0 %g\" rpy=\"0 0 0\"/>\n", -dims.Length/2))
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <cylinder radius=\"%g\" length=\"%g\"/>\n", dims.Radius, dims.Length))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("    </collision>\n")
	ixx := cylinderInertia(mass, dims.Radius, dims.Length)
	izz := 0.5 * mass * dims.Radius * dims.Radius
	sb.WriteString("    <inertial>\n")
	sb.WriteString(fmt.Sprintf("      <mass value=\"%g\"/>\n", mass))
	sb.WriteString(fmt.Sprintf("      <inertia ixx=\"%.6g\" ixy=\"0\" ixz=\"0\" iyy=\"%.6g\" iyz=\"0\" izz=\"%.6g\"/>\n", ixx, ixx, izz))
	sb.WriteString("    </inertial>\n")
	sb.WriteString("  </link>\n\n")
}

func writeBoxVisual(sb *strings.Builder, box BoxDims, rgba string) {
	sb.WriteString("    <visual>\n")
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <box size=\"%g %g %g\"/>\n", box.Width, box.Depth, box.Height))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("      <material name=\"c\">\n")
	sb.WriteString(fmt.Sprintf("        <color rgba=%q/>\n", rgba))
	sb.WriteString("      </material>\n")
	sb.WriteString("    </visual>\n")
	sb.WriteString("    <collision>\n")
	sb.WriteString("      <geometry>\n")
	sb.WriteString(fmt.Sprintf("        <box size=\"%g %g %g\"/>\n", box.Width, box.Depth, box.Height))
	sb.WriteString("      </geometry>\n")
	sb.WriteString("    </collision>\n")
}

func writeBoxInertial(sb *strings.Builder, box BoxDims, mass float64) {
	ixx := boxInertia(mass, box.Depth, box.Height)
	iyy := boxInertia(mass, box.Width, box.Height)
	izz := boxInertia(mass, box.Width, box.Depth)
	sb.WriteString("    <inertial>\n")
	sb.WriteString(fmt.Sprintf("      <mass value=\"%g\"/>\n", mass))
	sb.WriteString(fmt.Sprintf("      <inertia ixx=\"%.6g\" ixy=\"0\" ixz=\"0\" iyy=\"%.6g\" iyz=\"0\" izz=\"%.6g\"/>\n", ixx, iyy, izz))
	sb.WriteString("    </inertial>\n")
}

func boxInertia(mass, a, b float64) float64 {
	return mass / 12.0 * (a*a + b*b)
}

func cylinderInertia(mass, radius, length float64) float64 {
	return mass / 12.0 * (3*radius*radius + length*length)
}

func sphereInertia(mass, radius float64) float64 {
	return 2.0 / 5.0 * mass * radius * radius
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180 }
