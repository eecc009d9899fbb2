package physics

import (
	"log/slog"
	"math"
)

// defaultMaxPolRate is the maximum polarization rate per second, calculated
// from events3.csv.
const defaultMaxPolRate = 0.001314

// tripBoostFactor is the transient steady-state boost applied while the
// beam is off during a trip.
const tripBoostFactor = 1.2

// Config holds the initial conditions and physical constants for a run.
type Config struct {
	// DeltaT is the simulated time step in seconds.
	DeltaT float64

	// MaxDoseRate is the dose deposited per second while the beam is on.
	MaxDoseRate float64

	// Field, Temperature, and Frequency set the initial conditions.
	Field       float64
	Temperature float64
	Frequency   float64

	// MaxSteadyState is the maximum achievable polarization at 1 K.
	MaxSteadyState float64

	// Randomness enables thermal fluctuations in the stochastic model.
	Randomness bool

	// EmitRow, when set, is called once per internal time step during an
	// anneal so the run log records the anneal interval. Leave nil when a
	// controller box drives row emission.
	EmitRow func() error
}

// Engine owns the simulation state and applies all mutations to it. There
// is exactly one logical thread of control: the script interpreter and the
// scheduler call in, nothing else touches the state.
type Engine struct {
	state  State
	model  Model
	cfg    Config
	logger *slog.Logger

	// externalRate is set when a controller box supplies the polarization
	// rate, in which case Advance must not overwrite it.
	externalRate bool

	// Pre-trip values restored when a beam trip completes.
	preTripSteadyState float64
	preTripMaxPolRate  float64
	tripping           bool
}

// NewEngine creates an engine with the given model and initial conditions.
func NewEngine(model Model, cfg Config, logger *slog.Logger) *Engine {
	e := &Engine{
		model:  model,
		cfg:    cfg,
		logger: logger,
		state: State{
			Field:             cfg.Field,
			Temperature:       cfg.Temperature,
			Frequency:         cfg.Frequency,
			MaxSteadyState:    cfg.MaxSteadyState,
			MaxPolRate:        defaultMaxPolRate,
			RandomnessEnabled: cfg.Randomness,
		},
	}
	e.ResetSteadyState()
	e.model.ConditionsChanged(&e.state)
	return e
}

// Model returns the polarization model in use.
func (e *Engine) Model() Model { return e.model }

// Snapshot returns a copy of the full simulation state.
func (e *Engine) Snapshot() State { return e.state }

// Time returns the simulated time in seconds.
func (e *Engine) Time() float64 { return e.state.Time }

// Polarization returns the current polarization fraction.
func (e *Engine) Polarization() float64 { return e.state.Polarization }

// Advance evolves the simulation by dt seconds: the model updates the
// polarization, dose accrues at the current rate, and the polarization rate
// is derived from the step unless the controller box supplies it.
func (e *Engine) Advance(dt float64) {
	oldPol := e.state.Polarization

	e.state.Time += dt
	e.model.Advance(&e.state, dt)
	e.state.Dose += e.state.DoseRate * dt

	if !e.externalRate {
		e.state.PolarizationRate = (e.state.Polarization - oldPol) / dt
	}
}

// SetBeam turns the beam on or off. Beam on deposits dose at the configured
// maximum rate; beam off stops dose accrual entirely.
func (e *Engine) SetBeam(on bool) {
	e.state.BeamOn = on
	if on {
		e.state.DoseRate = e.cfg.MaxDoseRate
	} else {
		e.state.DoseRate = 0
	}
}

// Anneal heats the target for duration seconds. Polarization reporting is
// frozen at zero for the interval and restored afterward; the anneal marks
// the dose bookkeeping and recomputes the steady state from the operating
// temperature. The anneal temperature is recorded in the log only: the
// steady-state reset is anchored to the temperature the target runs at, not
// the transient heat-treatment temperature.
func (e *Engine) Anneal(duration, annealTemp float64) error {
	e.logger.Info("annealing", "duration_s", duration, "temperature_k", annealTemp)

	oldPol := e.state.Polarization
	e.state.Polarization = 0
	e.state.PolarizationRate = 0

	limit := e.state.Time + duration
	for e.state.Time < limit {
		e.state.Time += e.cfg.DeltaT
		if e.cfg.EmitRow != nil {
			if err := e.cfg.EmitRow(); err != nil {
				return err
			}
		}
	}

	e.state.Polarization = oldPol
	e.state.LastAnnealDose = e.state.Dose
	e.state.AnnealCount++
	e.ResetSteadyState()

	// Simulated time jumped while the polarization held still; anchored
	// models must recompute their curve parameters.
	e.model.ConditionsChanged(&e.state)

	return nil
}

// BeginTrip starts a beam trip: the beam drops, the steady state gets a
// transient boost (clamped to the maximum), and the rate ceiling rises
// tenfold while the target recovers.
func (e *Engine) BeginTrip() {
	e.preTripSteadyState = e.state.SteadyState
	e.preTripMaxPolRate = e.state.MaxPolRate
	e.tripping = true

	e.SetBeam(false)
	e.state.SteadyState = math.Min(e.state.SteadyState*tripBoostFactor, e.state.MaxSteadyState)
	e.state.MaxPolRate *= 10
}

// RecoverTrip restores the beam and the pre-trip parameters for the second
// half of the trip.
func (e *Engine) RecoverTrip() {
	e.SetBeam(true)
	e.state.SteadyState = e.preTripSteadyState
	e.state.MaxPolRate = e.preTripMaxPolRate
}

// EndTrip marks the trip complete.
func (e *Engine) EndTrip() {
	e.tripping = false
}

// Tripping reports whether a beam trip is in progress.
func (e *Engine) Tripping() bool { return e.tripping }

// ResetSteadyState recomputes the steady state from the current temperature.
// The curve yields 95% at 1 K and 72% at 1.62 K (from "Polarization Studies
// with Radiation Doped Ammonia at 5T and 1K", 1990, fig. 14). Below 1 K the
// exponential exceeds 1, so the result is clamped to both the physical limit
// and the configured maximum.
func (e *Engine) ResetSteadyState() {
	ss := e.state.MaxSteadyState * math.Exp(-0.4471*(e.state.Temperature-1))
	ss = math.Min(ss, math.Min(1.0, e.state.MaxSteadyState))
	e.state.SteadyState = ss
}

// SetField sets the magnetic field in tesla.
func (e *Engine) SetField(field float64) {
	e.state.Field = field
	e.model.ConditionsChanged(&e.state)
}

// SetTemperature sets the operating temperature in kelvin and recomputes
// the steady state for it.
func (e *Engine) SetTemperature(temp float64) {
	e.state.Temperature = temp
	e.ResetSteadyState()
	e.model.ConditionsChanged(&e.state)
}

// SetFrequency sets the applied microwave frequency in GHz.
func (e *Engine) SetFrequency(freq float64) {
	e.state.Frequency = freq
	e.model.ConditionsChanged(&e.state)
}

// SetMaxSteadyState sets the maximum achievable polarization and resets the
// steady state to it.
func (e *Engine) SetMaxSteadyState(v float64) {
	e.state.MaxSteadyState = v
	e.state.SteadyState = v
}

// SetRandomness enables or disables thermal fluctuations.
func (e *Engine) SetRandomness(on bool) {
	e.state.RandomnessEnabled = on
}

// SetFollowIdealFrequency slaves the applied frequency to the ideal curve.
func (e *Engine) SetFollowIdealFrequency(on bool) {
	e.state.FollowIdealFrequency = on
}

// SetDirection records a motor direction reported by the controller box.
func (e *Engine) SetDirection(d float64) {
	e.state.Direction = d
	e.state.HasDirection = true
}

// SetPolarizationRate records a polarization rate reported by the
// controller box. Once seen, Advance stops deriving the rate itself.
func (e *Engine) SetPolarizationRate(rate float64) {
	e.state.PolarizationRate = rate
	e.externalRate = true
}

// UseExternalRate marks the polarization rate as controller-supplied even
// before the first report arrives.
func (e *Engine) UseExternalRate(on bool) {
	e.externalRate = on
}
