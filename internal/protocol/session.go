// Package protocol implements the control-byte exchange with the controller
// box. Each received control byte triggers a fixed micro-exchange of typed
// fields; one of them (direction) marks a complete telemetry row.
package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uva-target/polsim/internal/link"
	"github.com/uva-target/polsim/internal/logging"
	"github.com/uva-target/polsim/internal/physics"
	"github.com/uva-target/polsim/internal/wire"
)

// Control bytes understood by and sent to the controller box.
const (
	ctrlFrequency  = 0x11 // box reports frequency (i32, MHz)
	ctrlConfirm    = 0x33 // box requests a connection confirmation
	ctrlEventNum   = 0x77 // box requests the event number
	ctrlDirection  = 0x88 // box reports motor direction (i32); ends a row
	ctrlPolRate    = 0xBB // box reports polarization rate (f32)
	ctrlMessage    = 0xEE // box sends a zero-terminated diagnostic string
	ctrlPolRequest = 0xFF // box requests the current polarization (f32)
)

// Confirmation handshake sent in response to ctrlConfirm.
const (
	confirmByte1 = 0xBE
	confirmByte2 = 0xEF
)

// Session dispatches controller-box traffic onto the physics engine.
//
// The direction report is defined as the last field the box sends per cycle,
// so receiving it means a full set of values is in hand; the session signals
// this through the RowComplete callback rather than writing telemetry
// itself.
type Session struct {
	link   link.Link
	engine *physics.Engine
	logger *slog.Logger

	// RowComplete is invoked after each direction report. A non-nil error
	// aborts the drain and propagates to the scheduler.
	rowComplete func() error

	// now is the wall clock used for event numbers; injectable for tests.
	now func() time.Time
}

// NewSession creates a session over l. rowComplete is called once per
// completed telemetry cycle.
func NewSession(l link.Link, engine *physics.Engine, logger *slog.Logger, rowComplete func() error) *Session {
	return &Session{
		link:        l,
		engine:      engine,
		logger:      logger,
		rowComplete: rowComplete,
		now:         time.Now,
	}
}

// SetClock overrides the wall clock used for event numbers.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Drain processes every control byte currently pending on the link and
// returns when none remain. A single call may handle several messages.
func (s *Session) Drain() error {
	for {
		control, ok, err := s.link.TryReadByte()
		if err != nil {
			return fmt.Errorf("polling controller: %w", err)
		}
		if !ok || control == 0 {
			return nil
		}
		if err := s.dispatch(control); err != nil {
			return err
		}
	}
}

func (s *Session) dispatch(control byte) error {
	s.logger.Log(context.Background(), logging.LevelTrace, "control byte", "value", fmt.Sprintf("%#x", control))

	switch control {
	case ctrlFrequency:
		s.logger.Debug("reading frequency")
		mhz, err := wire.ReadInt32(s.link)
		if err != nil {
			return fmt.Errorf("receiving frequency: %w", err)
		}
		s.engine.SetFrequency(float64(mhz) / 1000.0)

	case ctrlConfirm:
		s.logger.Debug("confirmation requested")
		if err := s.link.WriteByte(confirmByte1); err != nil {
			return fmt.Errorf("sending confirmation: %w", err)
		}
		if err := s.link.WriteByte(confirmByte2); err != nil {
			return fmt.Errorf("sending confirmation: %w", err)
		}

	case ctrlEventNum:
		s.logger.Debug("writing event number")
		if err := wire.WriteInt32(s.link, int32(s.now().Unix())); err != nil {
			return fmt.Errorf("sending event number: %w", err)
		}

	case ctrlDirection:
		s.logger.Debug("reading motor direction")
		dir, err := wire.ReadInt32(s.link)
		if err != nil {
			return fmt.Errorf("receiving direction: %w", err)
		}
		s.engine.SetDirection(float64(dir))
		// Direction is the last field the box sends per cycle: the row
		// is complete.
		if s.rowComplete != nil {
			if err := s.rowComplete(); err != nil {
				return err
			}
		}

	case ctrlPolRate:
		s.logger.Debug("reading polarization rate")
		rate, err := wire.ReadFloat32(s.link)
		if err != nil {
			return fmt.Errorf("receiving polarization rate: %w", err)
		}
		s.engine.SetPolarizationRate(float64(rate))

	case ctrlMessage:
		msg, err := s.readMessage()
		if err != nil {
			return fmt.Errorf("receiving diagnostic message: %w", err)
		}
		s.logger.Info("controller message", "text", msg)

	case ctrlPolRequest:
		s.logger.Debug("writing polarization")
		if err := wire.WriteFloat32(s.link, float32(s.engine.Polarization())); err != nil {
			return fmt.Errorf("sending polarization: %w", err)
		}

	default:
		s.logger.Warn("unknown control byte", "value", fmt.Sprintf("%#x", control))
	}

	return nil
}

// readMessage reads bytes until the zero terminator.
func (s *Session) readMessage() (string, error) {
	var b strings.Builder
	for {
		c, err := s.link.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return b.String(), nil
		}
		b.WriteByte(c)
	}
}
