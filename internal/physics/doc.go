// Package physics holds the lumped rigid-body model of the biped's
// base. Rather than simulating every link, the base pose tracks the
// kinematic target implied by the commanded leg joints as a damped
// second-order system, with a gravity toppling term on the tilt axes
// and a friction-limited slip drift. That captures what the balance
// controllers actually fight: tilt diverges when left alone near large
// angles, height follows the knees, and tilt makes the robot skate.
package physics
