package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bipedsim/internal/robot"
	"github.com/san-kum/bipedsim/internal/sim"
)

func testBaseline() map[string]float64 {
	return map[string]float64{
		robot.JointHeadPitch:       0,
		robot.JointLeftHipRoll:     0,
		robot.JointRightHipRoll:    0,
		robot.JointLeftHipPitch:    -20,
		robot.JointRightHipPitch:   -20,
		robot.JointLeftKnee:        40,
		robot.JointRightKnee:       40,
		robot.JointLeftAnklePitch:  -20,
		robot.JointRightAnklePitch: -20,
	}
}

func testState(roll, pitch, height float64) sim.RobotState {
	return sim.RobotState{
		Base: sim.BaseState{
			Position: sim.Vec3{Z: height},
			Roll:     roll,
			Pitch:    pitch,
		},
		IMU: sim.IMUData{Roll: roll, Pitch: pitch},
	}
}

func newTestStanding(t *testing.T) *Standing {
	t.Helper()
	desc := robot.DefaultDescription()
	s, err := NewStanding(DefaultStandingConfig(testBaseline(), 0.28), desc)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStandingEquilibriumHoldsBaseline(t *testing.T) {
	s := newTestStanding(t)

	cmd, err := s.Compute(testState(0, 0, 0.28), 0.02)
	if err != nil {
		t.Fatal(err)
	}

	for name, want := range testBaseline() {
		if got := cmd[name]; math.Abs(got-want) > 1e-12 {
			t.Errorf("joint %s: got %f, want baseline %f", name, got, want)
		}
	}
}

func TestStandingDeterministic(t *testing.T) {
	desc := robot.DefaultDescription()
	cfg := DefaultStandingConfig(testBaseline(), 0.28)

	a, err := NewStanding(cfg, desc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewStanding(cfg, desc)
	if err != nil {
		t.Fatal(err)
	}

	states := []sim.RobotState{
		testState(2, -1, 0.27),
		testState(3, 0.5, 0.26),
		testState(1, 1, 0.275),
		testState(-0.5, 2, 0.28),
	}

	for i, st := range states {
		ca, err := a.Compute(st, 0.02)
		if err != nil {
			t.Fatal(err)
		}
		cb, err := b.Compute(st, 0.02)
		if err != nil {
			t.Fatal(err)
		}
		for name := range ca {
			if ca[name] != cb[name] {
				t.Errorf("tick %d joint %s: %v != %v (compute must be deterministic)",
					i, name, ca[name], cb[name])
			}
		}
	}
}

func TestStandingCommandsWithinJointRanges(t *testing.T) {
	desc := robot.DefaultDescription()
	cfg := DefaultStandingConfig(testBaseline(), 0.28)
	// Absurd gains and clamp so upstream deltas far exceed joint ranges.
	cfg.RollGains.Kp = 1e5
	cfg.RollGains.OutputMax = 1e6
	cfg.RollGains.OutputMin = -1e6
	cfg.PitchGains = cfg.RollGains
	cfg.MaxDelta = 1e6

	s, err := NewStanding(cfg, desc)
	if err != nil {
		t.Fatal(err)
	}

	cmd, err := s.Compute(testState(25, -25, 0.10), 0.02)
	if err != nil {
		t.Fatal(err)
	}

	for name, angle := range cmd {
		j, _ := desc.Joint(name)
		if !j.InRange(angle) {
			t.Errorf("joint %s commanded to %f outside [%g, %g]", name, angle, j.Min, j.Max)
		}
	}
	if s.Saturations() == 0 {
		t.Error("expected saturation counter to record the range clamps")
	}
}

func TestStandingPerTickClamp(t *testing.T) {
	desc := robot.DefaultDescription()
	cfg := DefaultStandingConfig(testBaseline(), 0.28)
	cfg.RollGains.Kp = 100
	cfg.MaxDelta = 1.5

	s, err := NewStanding(cfg, desc)
	if err != nil {
		t.Fatal(err)
	}

	cmd, err := s.Compute(testState(10, 0, 0.28), 0.02)
	if err != nil {
		t.Fatal(err)
	}

	base := testBaseline()
	for _, name := range []string{robot.JointLeftHipRoll, robot.JointRightHipRoll} {
		delta := math.Abs(cmd[name] - base[name])
		if delta > cfg.MaxDelta+1e-12 {
			t.Errorf("joint %s moved %f in one tick, clamp is %g", name, delta, cfg.MaxDelta)
		}
	}
}

func TestStandingRejectsInvalidState(t *testing.T) {
	s := newTestStanding(t)

	bad := testState(0, 0, 0.28)
	bad.IMU.Roll = math.NaN()

	if _, err := s.Compute(bad, 0.02); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NaN state, got %v", err)
	}
}

func TestStandingConstructionFailsFast(t *testing.T) {
	desc := robot.DefaultDescription()

	asym := testBaseline()
	asym[robot.JointLeftKnee] = 35
	if _, err := NewStanding(DefaultStandingConfig(asym, 0.28), desc); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("asymmetric baseline: expected ErrInvalidConfig, got %v", err)
	}

	unknown := testBaseline()
	unknown["left_elbow"] = 0
	if _, err := NewStanding(DefaultStandingConfig(unknown, 0.28), desc); err == nil {
		t.Error("unknown baseline joint should fail construction")
	}

	cfg := DefaultStandingConfig(testBaseline(), 0.28)
	cfg.HeightGains.OutputMin, cfg.HeightGains.OutputMax = 1, -1
	if _, err := NewStanding(cfg, desc); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("inverted height output range: expected ErrInvalidConfig, got %v", err)
	}
}

func TestStandingResetCascades(t *testing.T) {
	s := newTestStanding(t)

	// Accumulate integral state.
	for i := 0; i < 10; i++ {
		if _, err := s.Compute(testState(5, 5, 0.25), 0.02); err != nil {
			t.Fatal(err)
		}
	}

	s.Reset()

	if s.posture.roll.State != (PIDState{}) || s.posture.pitch.State != (PIDState{}) {
		t.Error("reset should zero posture PID state")
	}
	if s.com.pid.State != (PIDState{}) {
		t.Error("reset should zero CoM PID state")
	}
	if s.Saturations() != 0 {
		t.Error("reset should clear the saturation counter")
	}
}

func TestStandingSetParam(t *testing.T) {
	s := newTestStanding(t)

	if err := s.SetParam("roll_kp", 0.5); err != nil {
		t.Fatal(err)
	}
	if got := s.GetParams()["roll_kp"]; got != 0.5 {
		t.Errorf("roll_kp: got %f, want 0.5", got)
	}

	if err := s.SetParam("bogus", 1); err == nil {
		t.Error("unknown parameter should be rejected")
	}
	if err := s.SetParam("roll_kp", -1); err == nil {
		t.Error("negative gain should be rejected")
	}
}
