package telemetry

// MemorySink captures rows in memory for tests.
type MemorySink struct {
	Rows []Row
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// WriteRow implements Sink.
func (s *MemorySink) WriteRow(row Row) error {
	s.Rows = append(s.Rows, row)
	return nil
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }

// MultiSink fans each row out to every wrapped sink. The first write
// failure wins; later sinks are skipped for that row.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink wraps the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// WriteRow implements Sink.
func (m *MultiSink) WriteRow(row Row) error {
	for _, s := range m.sinks {
		if err := s.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every wrapped sink, returning the first error.
func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
