package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uva-target/polsim/internal/config"
	"github.com/uva-target/polsim/internal/link"
	"github.com/uva-target/polsim/internal/logging"
	"github.com/uva-target/polsim/internal/physics"
	"github.com/uva-target/polsim/internal/protocol"
	"github.com/uva-target/polsim/internal/scheduler"
	"github.com/uva-target/polsim/internal/script"
	"github.com/uva-target/polsim/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a run script",
		Long: `Execute a run script against the physics engine.

The telemetry log is written next to the script as <script>.txt unless
--output names a different file. With --db set (or sqlite_path configured),
every row is mirrored into a SQLite database as well.

If the script's first line is "serial on", the run paces itself against
the wall clock and drives the controller box over the configured serial
port; otherwise it runs as fast as possible.

Examples:
  polsim run anneal-study.rs
  polsim run overnight.rs --output /data/overnight.txt --db runs.db
  polsim run overnight.rs --model gaussian`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			output, _ := cmd.Flags().GetString("output")
			dbPath, _ := cmd.Flags().GetString("db")
			model, _ := cmd.Flags().GetString("model")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if model != "" {
				cfg.Simulation.Model = model
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if dbPath != "" {
				cfg.Telemetry.SQLitePath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if output == "" {
				output = args[0] + ".txt"
			}

			return runScript(cfg, args[0], output)
		},
	}

	cmd.Flags().String("output", "", "Telemetry output file (default <script>.txt)")
	cmd.Flags().String("db", "", "Mirror telemetry rows into this SQLite database")
	cmd.Flags().String("model", "", "Override the configured polarization model")

	return cmd
}

// runScript wires the engine, sinks, scheduler, and link together and
// executes the script.
func runScript(cfg *config.Config, scriptPath, outputPath string) error {
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()
	reader := script.NewReader(f)

	// The serial preamble, when present, is the first command.
	serialOn := false
	if cmd, ok := reader.Next(); ok {
		if cmd.Op == "serial" {
			switch {
			case len(cmd.Args) == 1 && cmd.Args[0] == "on":
				serialOn = true
			case len(cmd.Args) == 1 && cmd.Args[0] == "off":
			default:
				logger.Error("invalid serial instruction, continuing with serial off", "line", cmd.Line)
			}
		} else {
			reader.Unread(cmd)
		}
	}

	sink, err := openSinks(cfg, outputPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	var recorder *telemetry.Recorder
	engineCfg := physics.Config{
		DeltaT:         cfg.Simulation.DeltaT,
		MaxDoseRate:    cfg.Simulation.MaxDoseRate,
		Field:          cfg.Simulation.Field,
		Temperature:    cfg.Simulation.Temperature,
		Frequency:      cfg.Simulation.Frequency,
		MaxSteadyState: cfg.Simulation.MaxSteadyState,
		Randomness:     cfg.Simulation.Randomness,
	}
	if !serialOn {
		// The controller drives row emission in paced mode; with no
		// controller the engine's anneal loop emits its own rows.
		engineCfg.EmitRow = func() error { return recorder.Emit() }
	}

	engine := physics.NewEngine(newModel(cfg), engineCfg, logger)
	recorder = telemetry.NewRecorder(engine, sink)

	schedCfg := scheduler.Config{
		DeltaT: cfg.Simulation.DeltaT,
		Delay:  time.Duration(cfg.Simulation.Delay * float64(time.Second)),
	}

	var sched *scheduler.Scheduler
	if serialOn {
		l, err := link.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return fmt.Errorf("opening serial port %s: %w", cfg.Serial.Port, err)
		}
		defer l.Close()
		logger.Info("serial link up", "port", cfg.Serial.Port, "baud", cfg.Serial.Baud)

		session := protocol.NewSession(l, engine, logger, recorder.EmitAlways)
		engine.UseExternalRate(true)
		sched = scheduler.New(engine, schedCfg, session, nil, logger)
	} else {
		sched = scheduler.New(engine, schedCfg, nil, recorder.Emit, logger)
	}

	logger.Info("starting run",
		"script", scriptPath,
		"output", outputPath,
		"model", engine.Model().Name(),
		"serial", serialOn)

	it := script.New(engine, sched, logger, serialOn)
	if err := it.Run(reader); err != nil {
		return err
	}

	logger.Info("run complete",
		"time_s", engine.Time(),
		"polarization", engine.Polarization())
	return nil
}

// openSinks builds the telemetry sink stack: the text log, plus a SQLite
// mirror when configured.
func openSinks(cfg *config.Config, outputPath string) (telemetry.Sink, error) {
	fileSink, err := telemetry.NewFileSink(outputPath)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}

	if cfg.Telemetry.SQLitePath == "" {
		return fileSink, nil
	}

	dbSink, err := telemetry.NewSQLiteSink(cfg.Telemetry.SQLitePath)
	if err != nil {
		fileSink.Close()
		return nil, fmt.Errorf("opening telemetry database: %w", err)
	}
	return telemetry.NewMultiSink(fileSink, dbSink), nil
}

// newModel builds the configured polarization model. Config validation has
// already rejected unknown names.
func newModel(cfg *config.Config) physics.Model {
	switch cfg.Simulation.Model {
	case "gaussian":
		return physics.NewGaussian()
	default:
		return physics.NewStochastic(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
}
