package physics

import "math"

// Model is a polarization model: it evolves State.Polarization over time and
// supplies the model-specific telemetry values. The Engine, Scheduler, and
// telemetry sinks depend only on this interface, never on a concrete model.
type Model interface {
	// Name identifies the model in logs and run headers.
	Name() string

	// Advance evolves the polarization by dt seconds of simulated time.
	// State.Time has already been advanced when this is called.
	Advance(s *State, dt float64)

	// SteadyState returns the asymptotic polarization for the current
	// conditions.
	SteadyState(s *State) float64

	// ReferenceValue is the model-specific sixth telemetry column: the
	// ideal positive frequency for the stochastic model, the steady state
	// for the gaussian model.
	ReferenceValue(s *State) float64

	// RateValue is the model-specific last telemetry column: k_val for the
	// stochastic model, lambda for the gaussian model.
	RateValue(s *State) float64

	// ConditionsChanged re-anchors any internal curve parameters after a
	// frequency, field, or temperature change.
	ConditionsChanged(s *State)
}

// Optimal frequency curves fitted to SANE data (10/14/2015 fits). Both decay
// exponentially with dose and scale with the field ratio to the 5 T
// reference magnet.

// OptimalFreqPos is the microwave frequency maximizing positive polarization
// growth, in GHz.
func OptimalFreqPos(dose, field float64) float64 {
	const (
		aPos = 140.1 // steady-state frequency
		cPos = 0.045 // range; add to aPos for the fresh-target frequency
		kPos = 0.38  // decay rate with dose
	)
	return (aPos + cPos*math.Exp(-kPos*dose)) * field / 5.0
}

// OptimalFreqNeg is the microwave frequency maximizing negative polarization
// growth, in GHz.
func OptimalFreqNeg(dose, field float64) float64 {
	const (
		aNeg = 140.535 // steady-state frequency
		cNeg = 0.065   // range; subtract from aNeg for the fresh-target frequency
		kNeg = 3.8     // growth rate with dose
	)
	return (aNeg - cNeg*math.Exp(-kNeg*dose)) * field / 5.0
}
