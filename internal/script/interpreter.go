package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/uva-target/polsim/internal/physics"
	"github.com/uva-target/polsim/internal/scheduler"
)

// ErrDuplicateInit aborts the run: a script may carry at most one
// initializer block.
var ErrDuplicateInit = errors.New("cannot have more than one initializer block")

// Interpreter executes script commands against the engine and scheduler.
// Per-line problems (unknown opcodes, misplaced commands, malformed
// arguments) are reported and skipped; only structural errors and I/O
// failures end the run.
type Interpreter struct {
	engine *physics.Engine
	sched  *scheduler.Scheduler
	logger *slog.Logger

	// serialActive disables batch-only commands like fllw.
	serialActive bool

	// Initializer-block state: inInit while between init and done,
	// didInit once a block has completed.
	inInit  bool
	didInit bool
}

// New creates an interpreter. serialActive reports whether a controller
// link is attached.
func New(engine *physics.Engine, sched *scheduler.Scheduler, logger *slog.Logger, serialActive bool) *Interpreter {
	return &Interpreter{
		engine:       engine,
		sched:        sched,
		logger:       logger,
		serialActive: serialActive,
	}
}

// Run executes commands until the script is exhausted or a fatal error
// occurs. End of script is normal completion.
func (it *Interpreter) Run(r *Reader) error {
	for {
		cmd, ok := r.Next()
		if !ok {
			return nil
		}
		if err := it.Execute(cmd); err != nil {
			return err
		}
	}
}

// Execute applies one command. The returned error is nil for recoverable
// per-line problems; it is non-nil only for run-ending conditions.
func (it *Interpreter) Execute(cmd Command) error {
	switch cmd.Op {
	case "init":
		if it.didInit {
			return fmt.Errorf("line %d: %w", cmd.Line, ErrDuplicateInit)
		}
		if it.inInit {
			it.invalid(cmd)
			return nil
		}
		it.inInit = true

	case "done":
		if !it.inInit {
			it.invalid(cmd)
			return nil
		}
		it.inInit = false
		it.didInit = true

	case "rand":
		if !it.inInit {
			it.invalid(cmd)
			return nil
		}
		if on, ok := it.onOffArg(cmd); ok {
			it.engine.SetRandomness(on)
			it.logger.Info("thermal fluctuations", "enabled", on)
		}

	case "mfld":
		if !it.inInit {
			it.invalid(cmd)
			return nil
		}
		if v, ok := it.floatArg(cmd, 0); ok {
			it.engine.SetField(v)
			it.logger.Info("field set", "tesla", v)
		}

	case "sdst":
		if !it.inInit {
			it.invalid(cmd)
			return nil
		}
		if v, ok := it.floatArg(cmd, 0); ok {
			it.engine.SetMaxSteadyState(v)
			it.logger.Info("steady state set", "value", v)
		}

	case "temp":
		if !it.inInit {
			it.invalid(cmd)
			return nil
		}
		if v, ok := it.floatArg(cmd, 0); ok {
			it.engine.SetTemperature(v)
			it.logger.Info("temperature set", "kelvin", v)
		}

	case "freq":
		if v, ok := it.floatArg(cmd, 0); ok {
			it.engine.SetFrequency(v)
			it.logger.Info("frequency set", "ghz", v)
		}

	case "time":
		if it.inInit {
			it.invalid(cmd)
			return nil
		}
		target, ok := it.floatArg(cmd, 0)
		if !ok {
			return nil
		}
		// A leading + makes the target relative to the current time.
		if len(cmd.Args) > 0 && strings.HasPrefix(cmd.Args[0], "+") {
			target += it.engine.Time()
		}
		it.logger.Info("running", "until", target)
		return it.sched.RunUntil(target)

	case "beam":
		if on, ok := it.onOffArg(cmd); ok {
			it.engine.SetBeam(on)
			it.logger.Info("beam", "on", on)
		}

	case "trip":
		if it.inInit {
			it.invalid(cmd)
			return nil
		}
		duration, ok := it.floatArg(cmd, 0)
		if !ok {
			return nil
		}
		return it.trip(duration)

	case "annl":
		duration, ok := it.floatArg(cmd, 0)
		if !ok {
			return nil
		}
		annealTemp, ok := it.floatArg(cmd, 1)
		if !ok {
			return nil
		}
		return it.engine.Anneal(duration, annealTemp)

	case "fllw":
		if it.serialActive {
			it.logger.Warn("cannot follow the ideal frequency while the serial link is enabled", "line", cmd.Line)
			return nil
		}
		if on, ok := it.onOffArg(cmd); ok {
			it.engine.SetFollowIdealFrequency(on)
			it.logger.Info("follow ideal frequency", "enabled", on)
		}

	default:
		it.invalid(cmd)
	}

	return nil
}

// trip simulates a beam trip: half the duration with the beam down and the
// steady state transiently boosted, half recovering with the beam restored.
// Everything except time and dose ends exactly where it started.
func (it *Interpreter) trip(duration float64) error {
	it.logger.Info("simulating beam trip", "duration_s", duration)

	it.engine.BeginTrip()
	if err := it.sched.RunUntil(it.engine.Time() + duration/2); err != nil {
		return err
	}

	it.engine.RecoverTrip()
	if err := it.sched.RunUntil(it.engine.Time() + duration/2); err != nil {
		return err
	}

	it.engine.EndTrip()
	return nil
}

// invalid reports an unknown or misplaced command and moves on.
func (it *Interpreter) invalid(cmd Command) {
	it.logger.Error("invalid command", "command", cmd.Op, "line", cmd.Line)
}

// floatArg parses cmd.Args[n] as a float, reporting and rejecting the
// command when the argument is missing or malformed.
func (it *Interpreter) floatArg(cmd Command, n int) (float64, bool) {
	if n >= len(cmd.Args) {
		it.logger.Error("missing argument", "command", cmd.Op, "line", cmd.Line)
		return 0, false
	}
	v, err := strconv.ParseFloat(cmd.Args[n], 64)
	if err != nil {
		it.logger.Error("malformed argument", "command", cmd.Op, "argument", cmd.Args[n], "line", cmd.Line)
		return 0, false
	}
	return v, true
}

// onOffArg parses an on/off argument.
func (it *Interpreter) onOffArg(cmd Command) (bool, bool) {
	if len(cmd.Args) < 1 {
		it.logger.Error("missing argument", "command", cmd.Op, "line", cmd.Line)
		return false, false
	}
	switch cmd.Args[0] {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		it.invalid(cmd)
		return false, false
	}
}
