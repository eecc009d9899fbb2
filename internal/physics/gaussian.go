package physics

import "math"

// Gaussian is the closed-form polarization model. The steady state is the
// difference of two Gaussians in frequency centered on the ideal positive
// and negative frequencies; the relaxation rate lambda is a Gaussian
// centered at their midpoint. Polarization follows
//
//	P(t) = P_inf - A * exp(-lambda * t)
//
// where A anchors the curve to the polarization at the moment the operating
// conditions last changed.
type Gaussian struct {
	aParam float64
}

// NewGaussian creates the closed-form model. The A parameter starts at 1 so
// a fresh target polarizes from zero.
func NewGaussian() *Gaussian {
	return &Gaussian{aParam: 1.0}
}

// Name implements Model.
func (m *Gaussian) Name() string { return "gaussian" }

// Advance implements Model by evaluating the closed form at the new time.
func (m *Gaussian) Advance(s *State, dt float64) {
	lambda := m.lambda(s)
	s.KVal = lambda
	s.Polarization = m.SteadyState(s) - m.aParam*math.Exp(-lambda*s.Time)
}

// SteadyState implements Model: a pair of Gaussians with standard deviation
// 0.1 GHz around the ideal positive and negative frequencies.
func (m *Gaussian) SteadyState(s *State) float64 {
	posDiff := s.Frequency - OptimalFreqPos(s.Dose, s.Field)
	negDiff := s.Frequency - OptimalFreqNeg(s.Dose, s.Field)
	return math.Exp(-posDiff*posDiff/0.02) - math.Exp(-negDiff*negDiff/0.02)
}

// ReferenceValue implements Model: the steady state for the current
// conditions.
func (m *Gaussian) ReferenceValue(s *State) float64 { return m.SteadyState(s) }

// RateValue implements Model: the relaxation rate lambda.
func (m *Gaussian) RateValue(s *State) float64 { return s.KVal }

// ConditionsChanged implements Model: re-anchor A so the curve passes
// through the current polarization at the current time. Must run after
// every frequency, field, or temperature change or the closed form would
// jump discontinuously.
func (m *Gaussian) ConditionsChanged(s *State) {
	m.aParam = math.Exp(m.lambda(s)*s.Time) * (m.SteadyState(s) - s.Polarization)
}

// lambda is the relaxation rate: a Gaussian with standard deviation
// 0.15 GHz centered at the midpoint of the two ideal frequencies.
func (m *Gaussian) lambda(s *State) float64 {
	mid := 0.5 * (OptimalFreqPos(s.Dose, s.Field) + OptimalFreqNeg(s.Dose, s.Field))
	dev := s.Frequency - mid
	return 0.005 * math.Exp(-dev*dev/0.045)
}
