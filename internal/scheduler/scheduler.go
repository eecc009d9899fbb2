// Package scheduler drives the physics engine forward in fixed simulated
// time steps, gated by wall-clock pacing when a controller box is attached
// and free-running otherwise.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/uva-target/polsim/internal/physics"
)

// pollInterval bounds how hot the pacing loop spins between advances. The
// controller cadence is about 1 Hz, so a short nap costs nothing.
const pollInterval = 5 * time.Millisecond

// Drainer pulls pending controller traffic off the link. Satisfied by
// protocol.Session.
type Drainer interface {
	Drain() error
}

// Config holds the pacing parameters.
type Config struct {
	// DeltaT is the simulated seconds per advance.
	DeltaT float64

	// Delay is the wall-clock time between advances in paced mode.
	Delay time.Duration
}

// Scheduler owns the run loop. It is the only place simulated time advances
// during normal operation (the engine's anneal has its own internal stepping).
type Scheduler struct {
	engine  *physics.Engine
	cfg     Config
	session Drainer      // nil in batch mode
	emit    func() error // batch-mode row emission; nil in paced mode
	logger  *slog.Logger

	// Wall clock and sleep, injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a scheduler. session must be nil for batch mode, in which
// case emit is called for every step (the controller normally decides when
// a row is complete; with no controller the scheduler does).
func New(engine *physics.Engine, cfg Config, session Drainer, emit func() error, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:  engine,
		cfg:     cfg,
		session: session,
		emit:    emit,
		logger:  logger,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// SetClock overrides the wall clock and sleep used for pacing.
func (s *Scheduler) SetClock(now func() time.Time, sleep func(time.Duration)) {
	s.now = now
	s.sleep = sleep
}

// RunUntil advances simulated time to target seconds.
func (s *Scheduler) RunUntil(target float64) error {
	if s.session == nil {
		return s.runBatch(target)
	}
	return s.runPaced(target)
}

// runBatch advances as fast as possible, emitting a row before every
// advance and a closing row at the target so the log ends on the commanded
// time. The emitter skips duplicate times, so back-to-back spans don't
// double up at the boundaries.
func (s *Scheduler) runBatch(target float64) error {
	for s.engine.Time() < target {
		if err := s.emit(); err != nil {
			return err
		}
		s.engine.Advance(s.cfg.DeltaT)
	}
	return s.emit()
}

// runPaced interleaves link draining with wall-clock-gated advances: every
// iteration drains whatever the controller sent, and the engine steps only
// once Delay has elapsed since the previous step. Row emission is the
// controller's call (the direction report), not ours.
func (s *Scheduler) runPaced(target float64) error {
	last := s.now()
	for s.engine.Time() < target {
		if err := s.session.Drain(); err != nil {
			return err
		}

		if s.now().Sub(last) >= s.cfg.Delay {
			s.engine.Advance(s.cfg.DeltaT)
			s.logger.Info("simulation time", "t", s.engine.Time())
			last = s.now()
		} else {
			s.sleep(pollInterval)
		}
	}
	return nil
}
