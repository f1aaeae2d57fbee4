package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/bipedsim/internal/log"
)

// SessionConfig configures a lock-step control run.
type SessionConfig struct {
	ControlDt float64 // control tick, s
	Duration  float64 // total simulated time, s
	RealTime  bool    // pace ticks against the wall clock
}

func (c SessionConfig) validate(envDt float64) error {
	if c.ControlDt <= 0 {
		return fmt.Errorf("%w: control dt must be positive, got %g", ErrInvalidConfig, c.ControlDt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.ControlDt < envDt {
		return fmt.Errorf("%w: control dt %g below physics dt %g", ErrInvalidConfig, c.ControlDt, envDt)
	}
	return nil
}

// HistoryRow is one control tick's record.
type HistoryRow struct {
	Time    float64
	Height  float64
	Roll    float64 // deg
	Pitch   float64 // deg
	X       float64
	Y       float64
	Drift   float64 // horizontal distance from the starting position, m
	Command Command
}

// Result is the outcome of a completed (or cancelled) run.
type Result struct {
	Ticks    int
	Duration float64 // simulated time actually covered, s
	History  []HistoryRow
}

// Session alternates the environment and a controller in lock step:
// snapshot, observe, compute, actuate, then advance the physics until
// the next control tick.
type Session struct {
	env       *Environment
	ctrl      Controller
	cfg       SessionConfig
	observers []Observer
}

// NewSession wires a controller to an environment.
func NewSession(env *Environment, ctrl Controller, cfg SessionConfig, observers ...Observer) (*Session, error) {
	if err := cfg.validate(env.Dt()); err != nil {
		return nil, err
	}
	return &Session{env: env, ctrl: ctrl, cfg: cfg, observers: observers}, nil
}

// Run executes the session until Duration elapses or ctx is cancelled.
// A cancelled run returns ctx.Err() together with the partial Result.
// Controller and actuation failures abort the run wrapped in TickError.
func (s *Session) Run(ctx context.Context) (Result, error) {
	substeps := int(math.Round(s.cfg.ControlDt / s.env.Dt()))
	if substeps < 1 {
		substeps = 1
	}
	ticks := int(math.Round(s.cfg.Duration / s.cfg.ControlDt))

	log.Debug("session start",
		"ticks", ticks, "control_dt", s.cfg.ControlDt, "substeps", substeps)

	res := Result{History: make([]HistoryRow, 0, ticks)}

	var ticker *time.Ticker
	if s.cfg.RealTime {
		ticker = time.NewTicker(time.Duration(s.cfg.ControlDt * float64(time.Second)))
		defer ticker.Stop()
	}

	var startX, startY float64

	for tick := 0; tick < ticks; tick++ {
		select {
		case <-ctx.Done():
			res.Duration = s.env.Time()
			return res, ctx.Err()
		default:
		}

		state := s.env.Snapshot()
		if tick == 0 {
			startX = state.Base.Position.X
			startY = state.Base.Position.Y
		}
		for _, o := range s.observers {
			o.Update(state)
		}

		cmd, err := s.ctrl.Compute(state, s.cfg.ControlDt)
		if err != nil {
			res.Duration = s.env.Time()
			return res, &TickError{Step: tick, Time: state.Time, Wrapped: err}
		}
		if err := s.env.SetJointPositions(cmd); err != nil {
			res.Duration = s.env.Time()
			return res, &TickError{Step: tick, Time: state.Time, Wrapped: err}
		}

		for i := 0; i < substeps; i++ {
			s.env.Step()
		}

		res.History = append(res.History, HistoryRow{
			Time:    state.Time,
			Height:  state.Base.Position.Z,
			Roll:    state.Base.Roll,
			Pitch:   state.Base.Pitch,
			X:       state.Base.Position.X,
			Y:       state.Base.Position.Y,
			Drift:   math.Hypot(state.Base.Position.X-startX, state.Base.Position.Y-startY),
			Command: cmd,
		})
		res.Ticks++

		if s.cfg.RealTime {
			select {
			case <-ctx.Done():
				res.Duration = s.env.Time()
				return res, ctx.Err()
			case <-ticker.C:
			}
		}
	}

	res.Duration = s.env.Time()
	log.Debug("session done", "ticks", res.Ticks, "sim_time", res.Duration)
	return res, nil
}
