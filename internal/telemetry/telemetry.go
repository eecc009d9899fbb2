// Package telemetry provides the sinks that record one row per completed
// simulation step.
package telemetry

import "strconv"

// Row is an immutable snapshot of one completed simulation step. Rows are
// written in emission order; the log has no other index.
type Row struct {
	// Time is the simulated time in seconds.
	Time float64

	// Frequency is the applied microwave frequency in GHz.
	Frequency float64

	// Polarization is the polarization fraction (not scaled).
	Polarization float64

	// Dose is the accumulated dose in 10^15 e-/cm^2.
	Dose float64

	// PolarizationRate is the polarization rate in 1/s.
	PolarizationRate float64

	// ReferenceValue is the model-specific sixth column: ideal positive
	// frequency (stochastic) or steady state (gaussian).
	ReferenceValue float64

	// Direction is the last motor direction from the controller box.
	// Ignored unless HasDirection.
	Direction float64

	// HasDirection reports whether a controller has supplied a direction.
	HasDirection bool

	// RateConstant is the model-specific last column: k_val (stochastic)
	// or lambda (gaussian).
	RateConstant float64
}

// DirectionString formats the direction column, with the placeholder used
// when no controller is attached.
func (r Row) DirectionString() string {
	if !r.HasDirection {
		return "N/A"
	}
	return strconv.FormatFloat(r.Direction, 'f', 6, 64)
}

// Sink records telemetry rows. Implementations are not safe for concurrent
// use; there is exactly one writer per run.
type Sink interface {
	// WriteRow appends one row. A write failure invalidates the run and
	// must be treated as fatal by the caller.
	WriteRow(row Row) error

	// Close flushes and releases the sink.
	Close() error
}
