package control

import (
	"errors"
	"testing"
)

func newTestCoM(t *testing.T) *CoM {
	t.Helper()
	c, err := NewCoM(DefaultCoMGains(), 0.28, 150, 75)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCoMAtTargetGivesZeroDelta(t *testing.T) {
	c := newTestCoM(t)

	for i := 0; i < 20; i++ {
		d, err := c.Compute(0.28, 0.02)
		if err != nil {
			t.Fatal(err)
		}
		if d != (CoMDeltas{}) {
			t.Fatalf("step %d: at target height there is nothing to correct, got %+v", i, d)
		}
	}
}

// Directional regression for the locked sign convention: knee 0° is
// straight, positive is flexed, so a height deficit must EXTEND the
// knees (negative delta) to raise the base.
func TestCoMHeightDeficitExtendsKnees(t *testing.T) {
	c := newTestCoM(t)

	d, err := c.Compute(0.24, 0.02) // 4 cm below target
	if err != nil {
		t.Fatal(err)
	}
	if d.Knee >= 0 {
		t.Errorf("height deficit must extend the knee (negative delta), got %f", d.Knee)
	}
	if d.HipPitch <= 0 {
		t.Errorf("height deficit should give positive hip pitch counter-rotation, got %f", d.HipPitch)
	}
}

func TestCoMAboveTargetFlexesKnees(t *testing.T) {
	c := newTestCoM(t)

	d, err := c.Compute(0.32, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	if d.Knee <= 0 {
		t.Errorf("excess height must flex the knee (positive delta), got %f", d.Knee)
	}
}

func TestCoMInvalidDt(t *testing.T) {
	c := newTestCoM(t)

	if _, err := c.Compute(0.2, -0.01); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewCoMValidation(t *testing.T) {
	if _, err := NewCoM(DefaultCoMGains(), 0, 150, 75); !errors.Is(err, ErrInvalidConfig) {
		t.Error("zero target height should be rejected")
	}
	if _, err := NewCoM(DefaultCoMGains(), 0.28, -150, 75); !errors.Is(err, ErrInvalidConfig) {
		t.Error("negative knee gain should be rejected")
	}

	bad := DefaultCoMGains()
	bad.OutputMin, bad.OutputMax = 1, -1
	if _, err := NewCoM(bad, 0.28, 150, 75); !errors.Is(err, ErrInvalidConfig) {
		t.Error("inverted output range should be rejected")
	}
}
