// Package config provides unified configuration loading for polsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains all polsim configuration settings.
type Config struct {
	// Simulation contains the physics and pacing parameters.
	Simulation SimulationConfig `yaml:"simulation"`

	// Serial contains settings for the controller-box link.
	Serial SerialConfig `yaml:"serial"`

	// Telemetry contains settings for the output sinks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// SimulationConfig configures the physics engine and scheduler.
type SimulationConfig struct {
	// Model selects the polarization model: "stochastic" or "gaussian".
	Model string `yaml:"model"`

	// DeltaT is the simulated time step in seconds.
	DeltaT float64 `yaml:"delta_t"`

	// Delay is the wall-clock seconds between steps when the link is active.
	Delay float64 `yaml:"delay"`

	// MaxDoseRate is the dose deposited per second with beam on,
	// in 10^15 e-/cm^2 per second.
	MaxDoseRate float64 `yaml:"max_dose_rate"`

	// Field is the initial magnetic field in tesla.
	Field float64 `yaml:"field"`

	// Temperature is the initial temperature in kelvin.
	Temperature float64 `yaml:"temperature"`

	// Frequency is the initial microwave frequency in GHz.
	Frequency float64 `yaml:"frequency"`

	// MaxSteadyState is the maximum achievable polarization at 1 K.
	MaxSteadyState float64 `yaml:"max_steady_state"`

	// Randomness enables thermal fluctuations in the stochastic model.
	Randomness bool `yaml:"randomness"`
}

// SerialConfig configures the serial link to the controller box.
type SerialConfig struct {
	// Port is the device name, e.g. "/dev/ttyUSB0" or "COM9".
	Port string `yaml:"port"`

	// Baud is the line rate. The controller box runs at 9600.
	Baud int `yaml:"baud"`
}

// TelemetryConfig configures the output sinks.
type TelemetryConfig struct {
	// SQLitePath, when set, mirrors every telemetry row into a SQLite
	// database in addition to the text output file.
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig configures polsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "trace" includes per-byte link traffic.
	Level string `yaml:"level"`
}

// Default returns a Config with the parameters the original target runs used.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Model:          "stochastic",
			DeltaT:         1.0,
			Delay:          1.0,
			MaxDoseRate:    0.0002,
			Field:          5.0,
			Temperature:    1.0,
			Frequency:      140.145,
			MaxSteadyState: 0.95,
			Randomness:     true,
		},
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 9600,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a specific YAML file,
// starting from defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Load loads configuration from the given file (if non-empty) and applies
// environment variable overrides. Order: defaults -> file -> environment.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Simulation.Model {
	case "stochastic", "gaussian":
	default:
		return fmt.Errorf("invalid model: %s (valid: stochastic, gaussian)", c.Simulation.Model)
	}

	if c.Simulation.DeltaT <= 0 {
		return fmt.Errorf("delta_t must be positive, got %f", c.Simulation.DeltaT)
	}

	if c.Simulation.Delay < 0 {
		return fmt.Errorf("delay must be non-negative, got %f", c.Simulation.Delay)
	}

	if c.Simulation.Field <= 0 {
		return fmt.Errorf("field must be positive, got %f", c.Simulation.Field)
	}

	if c.Simulation.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive, got %f", c.Simulation.Temperature)
	}

	if c.Simulation.MaxDoseRate < 0 {
		return fmt.Errorf("max_dose_rate must be non-negative, got %f", c.Simulation.MaxDoseRate)
	}

	if c.Serial.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Serial.Baud)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("POLSIM_MODEL"); v != "" {
		config.Simulation.Model = v
	}

	if v := os.Getenv("POLSIM_SERIAL_PORT"); v != "" {
		config.Serial.Port = v
	}

	if v := os.Getenv("POLSIM_SERIAL_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Serial.Baud = n
		}
	}

	if v := os.Getenv("POLSIM_SQLITE_PATH"); v != "" {
		config.Telemetry.SQLitePath = v
	}

	if v := os.Getenv("POLSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
