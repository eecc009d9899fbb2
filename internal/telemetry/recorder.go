package telemetry

import "github.com/uva-target/polsim/internal/physics"

// Recorder snapshots the engine into rows and writes them to a sink.
type Recorder struct {
	engine *physics.Engine
	sink   Sink

	lastTime float64
	wrote    bool
}

// NewRecorder creates a recorder over the given engine and sink.
func NewRecorder(engine *physics.Engine, sink Sink) *Recorder {
	return &Recorder{engine: engine, sink: sink}
}

// Emit writes a row for the current state, unless simulated time has not
// moved since the previous row. Batch-mode spans emit a closing row at
// their target time and an opening row at their start; without this guard
// every span boundary would appear twice in the log.
func (r *Recorder) Emit() error {
	if r.wrote && r.engine.Time() == r.lastTime {
		return nil
	}
	return r.EmitAlways()
}

// EmitAlways writes a row for the current state unconditionally. Used in
// paced mode, where the controller decides when a row is complete and
// repeated times are legitimate.
func (r *Recorder) EmitAlways() error {
	s := r.engine.Snapshot()
	m := r.engine.Model()

	row := Row{
		Time:             s.Time,
		Frequency:        s.Frequency,
		Polarization:     s.Polarization,
		Dose:             s.Dose,
		PolarizationRate: s.PolarizationRate,
		ReferenceValue:   m.ReferenceValue(&s),
		Direction:        s.Direction,
		HasDirection:     s.HasDirection,
		RateConstant:     m.RateValue(&s),
	}

	if err := r.sink.WriteRow(row); err != nil {
		return err
	}
	r.lastTime = s.Time
	r.wrote = true
	return nil
}
