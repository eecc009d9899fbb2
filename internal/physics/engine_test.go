package physics

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
)

func testConfig() Config {
	return Config{
		DeltaT:         1.0,
		MaxDoseRate:    0.0002,
		Field:          5.0,
		Temperature:    1.0,
		Frequency:      140.145,
		MaxSteadyState: 0.95,
		Randomness:     false,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, model Model) *Engine {
	t.Helper()
	return NewEngine(model, testConfig(), testLogger())
}

func TestResetSteadyState(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		want float64
	}{
		{"1 K yields the maximum", 1.0, 0.95},
		{"1.62 K yields about 72%", 1.62, 0.72},
		{"below 1 K clamps to the maximum", 0.5, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, NewStochastic(nil))
			e.SetTemperature(tt.temp)

			got := e.Snapshot().SteadyState
			if math.Abs(got-tt.want) > 0.005 {
				t.Errorf("steady state at %g K = %f, want about %f", tt.temp, got, tt.want)
			}
		})
	}
}

func TestResetSteadyState_ClampedToOne(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetMaxSteadyState(2.0)
	e.SetTemperature(1.0)

	if ss := e.Snapshot().SteadyState; ss > 1.0 {
		t.Errorf("steady state = %f, want clamped to at most 1.0", ss)
	}
}

func TestDoseMonotonicity(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))

	// Beam off: dose stays flat.
	for i := 0; i < 10; i++ {
		e.Advance(1.0)
	}
	if d := e.Snapshot().Dose; d != 0 {
		t.Errorf("dose with beam off = %f, want 0", d)
	}

	// Beam on: dose grows at the configured rate, never decreasing.
	e.SetBeam(true)
	prev := 0.0
	for i := 0; i < 50; i++ {
		e.Advance(1.0)
		d := e.Snapshot().Dose
		if d < prev {
			t.Fatalf("dose decreased from %f to %f at step %d", prev, d, i)
		}
		prev = d
	}
	want := 0.0002 * 50
	if math.Abs(prev-want) > 1e-9 {
		t.Errorf("dose after 50 s of beam = %f, want %f", prev, want)
	}

	// Beam off again: flat from here.
	e.SetBeam(false)
	e.Advance(25.0)
	if d := e.Snapshot().Dose; d != prev {
		t.Errorf("dose changed with beam off: %f -> %f", prev, d)
	}
}

func TestSteadyStateBound(t *testing.T) {
	e := newTestEngine(t, NewStochastic(rand.New(rand.NewSource(7))))
	e.SetRandomness(true)
	e.SetBeam(true)

	check := func(op string) {
		s := e.Snapshot()
		if s.SteadyState > s.MaxSteadyState {
			t.Fatalf("after %s: steady state %f exceeds maximum %f", op, s.SteadyState, s.MaxSteadyState)
		}
	}

	for i := 0; i < 20; i++ {
		e.Advance(1.0)
		check("advance")
	}
	e.BeginTrip()
	check("trip begin")
	e.Advance(5.0)
	check("trip half")
	e.RecoverTrip()
	e.EndTrip()
	check("trip end")
	if err := e.Anneal(60, 80); err != nil {
		t.Fatalf("Anneal failed: %v", err)
	}
	check("anneal")
}

func TestAnnealBookkeeping(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetBeam(true)
	for i := 0; i < 100; i++ {
		e.Advance(1.0)
	}

	before := e.Snapshot()
	if err := e.Anneal(120, 80); err != nil {
		t.Fatalf("Anneal failed: %v", err)
	}
	after := e.Snapshot()

	if after.AnnealCount != before.AnnealCount+1 {
		t.Errorf("anneal count = %d, want %d", after.AnnealCount, before.AnnealCount+1)
	}
	if after.LastAnnealDose != after.Dose {
		t.Errorf("last anneal dose = %f, want %f (dose at anneal)", after.LastAnnealDose, after.Dose)
	}
	if after.Polarization != before.Polarization {
		t.Errorf("polarization after anneal = %f, want restored to %f", after.Polarization, before.Polarization)
	}
	if after.Time < before.Time+120 {
		t.Errorf("time advanced to %f, want at least %f", after.Time, before.Time+120)
	}
}

func TestAnneal_EmitsRows(t *testing.T) {
	rows := 0
	cfg := testConfig()
	cfg.EmitRow = func() error {
		rows++
		return nil
	}
	e := NewEngine(NewStochastic(nil), cfg, testLogger())

	if err := e.Anneal(10, 80); err != nil {
		t.Fatalf("Anneal failed: %v", err)
	}
	if rows != 10 {
		t.Errorf("anneal emitted %d rows, want 10 (one per time step)", rows)
	}
}

func TestTripRestoresParameters(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))
	e.SetBeam(true)
	e.Advance(10.0)

	before := e.Snapshot()

	// The interpreter's trip sequence: off + boost, half the duration,
	// beam restored, the other half.
	const tripLen = 20.0
	e.BeginTrip()

	mid := e.Snapshot()
	if mid.BeamOn {
		t.Error("beam still on after trip begin")
	}
	if mid.SteadyState <= before.SteadyState && before.SteadyState*tripBoostFactor <= before.MaxSteadyState {
		t.Errorf("steady state not boosted: %f -> %f", before.SteadyState, mid.SteadyState)
	}
	if mid.MaxPolRate != before.MaxPolRate*10 {
		t.Errorf("max rate = %f, want %f", mid.MaxPolRate, before.MaxPolRate*10)
	}

	e.Advance(tripLen / 2)
	e.RecoverTrip()
	e.Advance(tripLen / 2)
	e.EndTrip()

	after := e.Snapshot()
	if after.SteadyState != before.SteadyState {
		t.Errorf("steady state = %f, want pre-trip %f", after.SteadyState, before.SteadyState)
	}
	if after.MaxPolRate != before.MaxPolRate {
		t.Errorf("max rate = %f, want pre-trip %f", after.MaxPolRate, before.MaxPolRate)
	}
	if !after.BeamOn {
		t.Error("beam off after trip completed")
	}
	if got, want := after.Time, before.Time+tripLen; math.Abs(got-want) > 1e-9 {
		t.Errorf("time = %f, want %f", got, want)
	}

	// Dose accrues only during the on-half.
	wantDose := before.Dose + 0.0002*tripLen/2
	if math.Abs(after.Dose-wantDose) > 1e-12 {
		t.Errorf("dose = %f, want %f (on-half only)", after.Dose, wantDose)
	}
}

func TestExternalRateNotOverwritten(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))

	e.SetPolarizationRate(0.042)
	e.Advance(1.0)

	if r := e.Snapshot().PolarizationRate; r != 0.042 {
		t.Errorf("polarization rate = %f, want controller-supplied 0.042", r)
	}
}

func TestDerivedRateMatchesStep(t *testing.T) {
	e := newTestEngine(t, NewStochastic(nil))

	before := e.Polarization()
	e.Advance(1.0)
	after := e.Polarization()

	want := (after - before) / 1.0
	if r := e.Snapshot().PolarizationRate; math.Abs(r-want) > 1e-12 {
		t.Errorf("derived rate = %g, want %g", r, want)
	}
}
