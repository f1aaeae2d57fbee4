package control

import (
	"errors"
	"math"
	"testing"
)

func testGains() Gains {
	return Gains{
		Kp: 2.0, Ki: 0.5, Kd: 0.1,
		OutputMin: -10, OutputMax: 10,
		IntegralLimit: 4,
	}
}

func TestGainsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Gains)
		ok     bool
	}{
		{"valid", func(g *Gains) {}, true},
		{"negative kp", func(g *Gains) { g.Kp = -1 }, false},
		{"negative ki", func(g *Gains) { g.Ki = -0.1 }, false},
		{"negative kd", func(g *Gains) { g.Kd = -0.1 }, false},
		{"inverted output range", func(g *Gains) { g.OutputMin, g.OutputMax = 1, -1 }, false},
		{"negative integral limit", func(g *Gains) { g.IntegralLimit = -1 }, false},
		{"nan gain", func(g *Gains) { g.Kp = math.NaN() }, false},
	}

	for _, tt := range tests {
		g := testGains()
		tt.mutate(&g)
		err := g.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
			}
		}
	}
}

func TestPIDZeroError(t *testing.T) {
	pid, err := NewPID(testGains())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		out, err := pid.Update(0, 0.01)
		if err != nil {
			t.Fatal(err)
		}
		if out != 0 {
			t.Fatalf("step %d: zero error should give zero output, got %f", i, out)
		}
	}
}

func TestPIDIntegralClamp(t *testing.T) {
	pid, _ := NewPID(testGains())

	// Constant error: integral grows monotonically until clamped.
	prev := 0.0
	for i := 0; i < 100; i++ {
		if _, err := pid.Update(1.0, 0.1); err != nil {
			t.Fatal(err)
		}
		if pid.State.Integral < prev {
			t.Fatalf("integral decreased under constant positive error: %f -> %f", prev, pid.State.Integral)
		}
		prev = pid.State.Integral
	}
	if pid.State.Integral != pid.Gains.IntegralLimit {
		t.Errorf("integral should be clamped at %g, got %f", pid.Gains.IntegralLimit, pid.State.Integral)
	}
}

func TestPIDOutputClamp(t *testing.T) {
	pid, _ := NewPID(testGains())

	out, err := pid.Update(1e6, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if out != pid.Gains.OutputMax {
		t.Errorf("expected output clamped at %g, got %f", pid.Gains.OutputMax, out)
	}

	pid.Reset()
	out, _ = pid.Update(-1e6, 0.01)
	if out != pid.Gains.OutputMin {
		t.Errorf("expected output clamped at %g, got %f", pid.Gains.OutputMin, out)
	}
}

func TestPIDInvalidDt(t *testing.T) {
	pid, _ := NewPID(testGains())

	for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		if _, err := pid.Update(1.0, dt); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("dt=%v: expected ErrInvalidInput, got %v", dt, err)
		}
	}
}

func TestPIDNonFiniteError(t *testing.T) {
	pid, _ := NewPID(testGains())

	for _, e := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := pid.Update(e, 0.01); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("error=%v: expected ErrInvalidInput, got %v", e, err)
		}
	}
}

func TestPIDReset(t *testing.T) {
	pid, _ := NewPID(testGains())

	pid.Update(3.0, 0.1)
	pid.Update(2.0, 0.1)
	if pid.State == (PIDState{}) {
		t.Fatal("state should be non-zero after updates")
	}

	pid.Reset()
	if pid.State != (PIDState{}) {
		t.Errorf("reset should zero state, got %+v", pid.State)
	}
}

func TestPIDProportionalOnly(t *testing.T) {
	pid, _ := NewPID(Gains{Kp: 3, OutputMin: -100, OutputMax: 100})

	out, err := pid.Update(2.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	// Kd = 0, Ki = 0: pure proportional on first step.
	if math.Abs(out-6.0) > 1e-12 {
		t.Errorf("expected kp*error = 6, got %f", out)
	}
}

func TestPIDAntiWindupBeforeDerivative(t *testing.T) {
	// A tiny integral limit: the integral term must already be clamped
	// in the same update that would have exceeded it.
	pid, _ := NewPID(Gains{Ki: 1, OutputMin: -100, OutputMax: 100, IntegralLimit: 0.1})

	out, err := pid.Update(100, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out-0.1) > 1e-12 {
		t.Errorf("integral term should be clamped to 0.1 within the update, got %f", out)
	}
}
