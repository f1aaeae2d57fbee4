package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/bipedsim/internal/sim"
)

// Unit harmonic oscillator: x'' = -x, exact solution cos(t).
type oscillator struct{}

func (o *oscillator) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], -x[0]}
}

func (o *oscillator) StateDim() int   { return 2 }
func (o *oscillator) ControlDim() int { return 0 }

func integrate(integ sim.Integrator, steps int, dt float64) sim.State {
	dyn := &oscillator{}
	x := sim.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, sim.Control{}, float64(i)*dt, dt)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	x := integrate(NewRK4(), steps, dt)

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-6 {
		t.Errorf("position error too large: got %.8f, expected %.8f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-6 {
		t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], expectedV)
	}
}

func TestEulerConvergesButCoarser(t *testing.T) {
	dt := 0.01
	steps := 100

	x := integrate(NewEuler(), steps, dt)
	expectedX := math.Cos(float64(steps) * dt)

	errEuler := math.Abs(x[0] - expectedX)
	if errEuler > 0.05 {
		t.Errorf("euler error unexpectedly large: %f", errEuler)
	}

	xrk := integrate(NewRK4(), steps, dt)
	errRK4 := math.Abs(xrk[0] - expectedX)
	if errRK4 >= errEuler {
		t.Errorf("RK4 (%g) should beat Euler (%g) at the same step", errRK4, errEuler)
	}
}
