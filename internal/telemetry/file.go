package telemetry

import (
	"bufio"
	"fmt"
	"os"
)

// fileHeader names the columns of the text output. The scaled columns match
// what the analysis scripts downstream expect.
const fileHeader = "#Time    Frequency    Polarization*100    Dose    Polarization_rate*100    Optimal_freq_positive    Direction   k_val\n"

// FileSink writes whitespace-separated rows to a text file, one line per
// completed step. Each row is flushed immediately: a partial log is worth
// more than a fast one if the run dies.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

// NewFileSink creates (or truncates) the output file and writes the header.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	s := &FileSink{f: f, w: bufio.NewWriter(f)}
	if _, err := s.w.WriteString(fileHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing output header: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing output header: %w", err)
	}
	return s, nil
}

// WriteRow implements Sink.
func (s *FileSink) WriteRow(row Row) error {
	_, err := fmt.Fprintf(s.w, "%f %f %f %f %f %f %s %f\n",
		row.Time,
		row.Frequency,
		100*row.Polarization,
		row.Dose,
		100*row.PolarizationRate,
		row.ReferenceValue,
		row.DirectionString(),
		row.RateConstant,
	)
	if err != nil {
		return fmt.Errorf("writing telemetry row: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing telemetry row: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("flushing telemetry: %w", err)
	}
	return s.f.Close()
}
