package physics

import (
	"math"
	"math/rand"
	"testing"
)

func TestStochastic_GrowsTowardSteadyState(t *testing.T) {
	// Near the ideal positive frequency, with randomness off and no beam,
	// polarization should climb monotonically toward the steady state.
	e := newTestEngine(t, NewStochastic(nil))
	e.SetFrequency(140.145)

	prev := e.Polarization()
	for i := 0; i < 600; i++ {
		e.Advance(1.0)
		pol := e.Polarization()
		if pol < prev-1e-12 {
			t.Fatalf("polarization fell from %f to %f at step %d", prev, pol, i)
		}
		prev = pol
	}

	s := e.Snapshot()
	if prev <= 0.5 {
		t.Errorf("polarization after 600 s = %f, want well on its way to %f", prev, s.SteadyState)
	}
	if prev > s.SteadyState {
		t.Errorf("polarization %f overshot steady state %f", prev, s.SteadyState)
	}
}

func TestStochastic_NegativeFrequencyPolarizesNegative(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	// Above the differentiator and near the ideal negative frequency.
	e.SetFrequency(OptimalFreqNeg(0, 5.0))

	for i := 0; i < 600; i++ {
		e.Advance(1.0)
	}

	if pol := e.Polarization(); pol >= 0 {
		t.Errorf("polarization = %f, want negative above %g GHz", pol, posNegDifferentiator)
	}
}

func TestStochastic_FarFromIdealDecays(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetFrequency(140.145)
	for i := 0; i < 300; i++ {
		e.Advance(1.0)
	}
	peak := e.Polarization()
	if peak <= 0.1 {
		t.Fatalf("setup failed: polarization only reached %f", peak)
	}

	// Detune well outside the useful window (but still positive side).
	e.SetFrequency(140.25)
	for i := 0; i < 300; i++ {
		e.Advance(1.0)
	}

	if pol := e.Polarization(); pol >= peak {
		t.Errorf("polarization = %f, want decay below peak %f when detuned", pol, peak)
	}
}

func TestStochastic_KValCapped(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))

	for _, freq := range []float64{140.10, 140.145, 140.2, 140.29, 140.31, 140.45, 140.6} {
		e.SetFrequency(freq)
		e.Advance(1.0)
		if k := e.Snapshot().KVal; k > kMax {
			t.Errorf("k_val at %g GHz = %f, want at most %f", freq, k, kMax)
		}
	}
}

func TestStochastic_SteadyStateDecaysWithDose(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetBeam(true)

	before := e.Snapshot().SteadyState
	for i := 0; i < 200; i++ {
		e.Advance(1.0)
	}
	after := e.Snapshot().SteadyState

	if after >= before {
		t.Errorf("steady state did not decay under beam: %f -> %f", before, after)
	}
}

func TestCriticalDoseLadder(t *testing.T) {
	// Decay is fastest on a fresh target and slows as dose accumulates
	// past each threshold: measure the per-step decay ratio at points on
	// either side of the thresholds.
	decayAt := func(sinceAnneal float64) float64 {
		m := NewStochastic(nil)
		s := &State{
			Dose:           sinceAnneal,
			LastAnnealDose: 0,
			DoseRate:       0.0002,
			SteadyState:    0.9,
		}
		before := s.SteadyState
		m.decaySteadyState(s, 1.0)
		return s.SteadyState / before
	}

	fresh := decayAt(0.1)  // below 0.3: critical dose 1.0
	mid := decayAt(0.5)    // between 0.3 and 1.2: critical dose 4.1
	late := decayAt(2.0)   // above 1.2: critical dose 30.0

	if !(fresh < mid && mid < late) {
		t.Errorf("decay ratios fresh=%v mid=%v late=%v, want fresh < mid < late", fresh, mid, late)
	}
}

func TestStochastic_FollowIdealFrequency(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetFrequency(140.2) // positive side, off the ideal
	e.SetFollowIdealFrequency(true)

	e.Advance(1.0)

	s := e.Snapshot()
	want := OptimalFreqPos(s.Dose, s.Field)
	if math.Abs(s.Frequency-want) > 1e-9 {
		t.Errorf("frequency = %f, want tracked to ideal %f", s.Frequency, want)
	}
}

func TestStochastic_JitterBounded(t *testing.T) {
	e := newTestEngine(t, NewStochastic(rand.New(rand.NewSource(42))))
	e.SetRandomness(true)
	e.SetFrequency(140.145)

	for i := 0; i < 500; i++ {
		e.Advance(1.0)
		s := e.Snapshot()
		// The jitter guard keeps the magnitude below roughly
		// (1+percent)*max; percent is under 1% at zero dose rate.
		if math.Abs(s.Polarization) > 1.01*s.MaxSteadyState {
			t.Fatalf("polarization %f escaped jitter bound at step %d", s.Polarization, i)
		}
	}
}

func TestDeviationCurves(t *testing.T) {
	// At zero offset the growth proximity factor is at its peak of 0.95.
	if got := deviationIncreasing(0); math.Abs(got-0.95) > 1e-12 {
		t.Errorf("deviationIncreasing(0) = %f, want 0.95", got)
	}
	// Far off the ideal it goes slightly negative (the -0.05 floor).
	if got := deviationIncreasing(1.0); got >= 0 {
		t.Errorf("deviationIncreasing(1.0) = %f, want below 0", got)
	}
	// The decay curve peaks offset by 0.025 GHz.
	if got := deviationDecreasing(0.025); math.Abs(got-0.95) > 1e-12 {
		t.Errorf("deviationDecreasing(0.025) = %f, want 0.95", got)
	}
}

func TestOptimalFrequencies(t *testing.T) {
	// Fresh target at 5 T: the published SANE endpoints.
	pos := OptimalFreqPos(0, 5.0)
	if math.Abs(pos-140.145) > 1e-9 {
		t.Errorf("OptimalFreqPos(0, 5) = %f, want 140.145", pos)
	}
	neg := OptimalFreqNeg(0, 5.0)
	if math.Abs(neg-140.47) > 1e-9 {
		t.Errorf("OptimalFreqNeg(0, 5) = %f, want 140.470", neg)
	}

	// Positive curve falls and negative curve rises with dose.
	if OptimalFreqPos(4, 5.0) >= pos {
		t.Error("positive ideal frequency should drift down with dose")
	}
	if OptimalFreqNeg(4, 5.0) <= neg {
		t.Error("negative ideal frequency should drift up with dose")
	}

	// Frequencies scale with the field ratio to the 5 T reference.
	if got := OptimalFreqPos(0, 2.5); math.Abs(got-pos/2) > 1e-9 {
		t.Errorf("OptimalFreqPos(0, 2.5) = %f, want %f", got, pos/2)
	}
}
