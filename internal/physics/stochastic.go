package physics

import (
	"math"
	"math/rand"
)

const (
	// posNegDifferentiator separates the frequencies that polarize
	// positively from those that polarize negatively, in GHz.
	posNegDifferentiator = 140.3

	// kMax allows full polarization in about 20 minutes.
	kMax = 0.0025

	// freqRange is the width of the useful frequency window around the
	// ideal frequency, in GHz (from SANE data).
	freqRange = 0.05

	// subIterations is the number of sub-steps each Advance is divided
	// into for numerical stability.
	subIterations = 2000

	// baseRandomness sets the floor of the thermal fluctuation magnitude.
	baseRandomness = 500
)

// Critical dose ladder: the decay constant for steady-state degradation
// steps up as dose accumulates past each threshold.
// Source: Proceedings of the 4th International Workshop on Polarized Target
// Materials and Techniques, pg. 26.
var (
	cdoseThresholds = [3]float64{0.0, 0.3, 1.2}
	criticalDoses   = [3]float64{1.0, 4.1, 30.0}
)

// Stochastic is the dose-decay polarization model. Steady state degrades
// with accumulated dose since the last anneal; polarization relaxes
// exponentially toward an effective steady state adjusted by how far the
// applied frequency sits from the ideal, with optional thermal jitter.
type Stochastic struct {
	rng *rand.Rand
}

// NewStochastic creates the stochastic model. rng drives the thermal
// fluctuations and may be nil when randomness is disabled.
func NewStochastic(rng *rand.Rand) *Stochastic {
	return &Stochastic{rng: rng}
}

// Name implements Model.
func (m *Stochastic) Name() string { return "stochastic" }

// Advance implements Model. The step is subdivided for stability; thermal
// jitter is applied once per full step.
func (m *Stochastic) Advance(s *State, dt float64) {
	sub := dt / subIterations
	for i := 0; i < subIterations; i++ {
		m.step(s, sub)
	}

	if s.RandomnessEnabled && m.rng != nil {
		m.jitter(s)
	}
}

// SteadyState implements Model.
func (m *Stochastic) SteadyState(s *State) float64 { return s.SteadyState }

// ReferenceValue implements Model: the ideal positive frequency.
func (m *Stochastic) ReferenceValue(s *State) float64 {
	return OptimalFreqPos(s.Dose, s.Field)
}

// RateValue implements Model: the rate constant from the last sub-step.
func (m *Stochastic) RateValue(s *State) float64 { return s.KVal }

// ConditionsChanged implements Model. The stochastic model carries no
// anchored curve, so nothing needs recomputing.
func (m *Stochastic) ConditionsChanged(s *State) {}

// step evolves one sub-interval: degrade the steady state by the dose
// deposited during the interval, then relax the polarization toward the
// effective steady state for the current frequency.
func (m *Stochastic) step(s *State, dt float64) {
	m.decaySteadyState(s, dt)

	negative := s.Frequency > posNegDifferentiator

	var ideal float64
	if negative {
		ideal = OptimalFreqNeg(s.Dose, s.Field)
	} else {
		ideal = OptimalFreqPos(s.Dose, s.Field)
	}
	if s.FollowIdealFrequency {
		s.Frequency = ideal
	}

	// How close the applied frequency is to the ideal, as a fraction of
	// the useful window. Inside half the window the polarization grows
	// toward the steady state; outside it decays toward zero.
	percentIdeal := 1 - math.Abs(ideal-s.Frequency)/freqRange

	var target, k float64
	if percentIdeal >= 0.5 {
		dev := deviationIncreasing(ideal - s.Frequency)
		k = kMax * dev
		target = effectiveSteadyState(s, dev)
		if negative {
			target = -target
		}
	} else {
		k = kMax * (1 - deviationDecreasing(ideal-s.Frequency))
		if k > kMax {
			// Decay can never outpace growth.
			k = kMax
		}
		target = 0
	}

	s.KVal = k
	s.Polarization = target + (s.Polarization-target)*math.Exp(-k*dt)
}

// decaySteadyState degrades the steady state by the dose deposited over dt.
// The decay constant depends on how much dose has accumulated since the last
// anneal, stepping through the critical-dose ladder.
func (m *Stochastic) decaySteadyState(s *State, dt float64) {
	deltaDose := dt * s.DoseRate
	if deltaDose == 0 {
		return
	}

	// s.Dose is updated once per full Advance, so the ladder position is
	// fixed across all sub-steps of a step.
	sinceAnneal := s.Dose - s.LastAnnealDose
	critDose := criticalDoses[0]
	if sinceAnneal > cdoseThresholds[2] {
		critDose = criticalDoses[2]
	} else if sinceAnneal > cdoseThresholds[1] {
		critDose = criticalDoses[1]
	}

	s.SteadyState *= math.Exp(-deltaDose / critDose)
}

// deviationIncreasing is the Lorentzian-like proximity factor used while
// growing: near 1 at the ideal frequency, falling off sharply with distance.
func deviationIncreasing(freqDiff float64) float64 {
	return 1/(1+30000.0*freqDiff*freqDiff) - 0.05
}

// deviationDecreasing is the companion curve used while decaying, offset
// slightly from the ideal.
func deviationDecreasing(freqDiff float64) float64 {
	d := freqDiff - 0.025
	return 1/(1+30000.0*d*d) - 0.05
}

// effectiveSteadyState lowers the reachable steady state as the frequency
// deviates from the ideal.
func effectiveSteadyState(s *State, deviation float64) float64 {
	return s.SteadyState - 0.05*(0.95-math.Abs(deviation))/0.95
}

// jitter perturbs the polarization by a random fraction of itself, bounded
// so the magnitude cannot exceed (1+percent) times the maximum steady state.
// The fluctuation floor grows with the dose rate.
func (m *Stochastic) jitter(s *State) {
	bound := baseRandomness + int(1000000*s.DoseRate)
	percent := float64(m.rng.Intn(bound)) / 1000000.0

	newPol := s.Polarization * (1 + percent)
	if m.rng.Intn(2) == 0 {
		newPol = s.Polarization * (1 - percent)
	}

	if math.Abs(newPol) < (1+percent)*s.MaxSteadyState {
		s.Polarization = newPol
	}
}
