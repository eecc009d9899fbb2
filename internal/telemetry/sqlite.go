package telemetry

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// rowSchema holds one run per database file; seq preserves emission order.
const rowSchema = `
CREATE TABLE IF NOT EXISTS rows (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    time REAL NOT NULL,
    frequency REAL NOT NULL,
    polarization REAL NOT NULL,
    dose REAL NOT NULL,
    polarization_rate REAL NOT NULL,
    reference_value REAL NOT NULL,
    direction REAL,              -- NULL until the controller reports one
    rate_constant REAL NOT NULL
);
`

// SQLiteSink mirrors telemetry rows into a SQLite database for analysis
// tooling that prefers SQL over the text log.
type SQLiteSink struct {
	db     *sql.DB
	insert *sql.Stmt
}

// NewSQLiteSink opens (or creates) the database at path and prepares the
// row insert.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening telemetry database: %w", err)
	}

	// Single writer for the process lifetime.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(rowSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing telemetry schema: %w", err)
	}

	insert, err := db.Prepare(`INSERT INTO rows
		(time, frequency, polarization, dose, polarization_rate, reference_value, direction, rate_constant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing telemetry insert: %w", err)
	}

	return &SQLiteSink{db: db, insert: insert}, nil
}

// WriteRow implements Sink.
func (s *SQLiteSink) WriteRow(row Row) error {
	var direction any
	if row.HasDirection {
		direction = row.Direction
	}

	_, err := s.insert.Exec(
		row.Time,
		row.Frequency,
		row.Polarization,
		row.Dose,
		row.PolarizationRate,
		row.ReferenceValue,
		direction,
		row.RateConstant,
	)
	if err != nil {
		return fmt.Errorf("inserting telemetry row: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	s.insert.Close()
	return s.db.Close()
}

// RowCount returns the number of rows recorded so far.
func (s *SQLiteSink) RowCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting telemetry rows: %w", err)
	}
	return n, nil
}
