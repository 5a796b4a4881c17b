package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteStore persists readings and sessions in the local SQLite database.
//
// The schema lives in migrations/ (sessions and readings tables).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open SQLite connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// StartSession inserts a new session row.
func (s *SQLiteStore) StartSession(ctx context.Context, sessionID, benchID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, bench_id, started_at) VALUES (?, ?, ?)",
		sessionID,
		benchID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// EndSession stamps the session's end time.
func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET ended_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUnknownSession
	}

	return nil
}

// Record inserts one reading row. Implements Sink.
func (s *SQLiteStore) Record(ctx context.Context, reading Reading) error {
	if reading.InstrumentID == "" {
		return ErrEmptyInstrument
	}
	if reading.SessionID == "" {
		return ErrEmptySession
	}

	var numeric any
	if reading.Numeric != nil {
		numeric = *reading.Numeric
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (session_id, instrument_id, property, op, value, numeric_value, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reading.SessionID,
		reading.InstrumentID,
		reading.Property,
		reading.Op,
		reading.Value,
		numeric,
		reading.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	return nil
}

// History returns recent readings for an instrument, newest first.
// The limit defaults to 50 and is clamped to 200.
func (s *SQLiteStore) History(ctx context.Context, instrumentID string, limit int) ([]Reading, error) {
	if instrumentID == "" {
		return nil, ErrEmptyInstrument
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, instrument_id, property, op, value, numeric_value, recorded_at
		 FROM readings
		 WHERE instrument_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		instrumentID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows, limit)
}

// SessionReadings returns every reading in a session, oldest first, the
// order they were taken in.
func (s *SQLiteStore) SessionReadings(ctx context.Context, sessionID string) ([]Reading, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, instrument_id, property, op, value, numeric_value, recorded_at
		 FROM readings
		 WHERE session_id = ?
		 ORDER BY recorded_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows, 0)
}

// Prune deletes readings older than the given duration.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM readings WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting readings: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return affected, nil
}

func scanReadings(rows *sql.Rows, capacity int) ([]Reading, error) {
	readings := make([]Reading, 0, capacity)
	for rows.Next() {
		var reading Reading
		var numeric sql.NullFloat64
		var recordedAt string

		err := rows.Scan(
			&reading.ID,
			&reading.SessionID,
			&reading.InstrumentID,
			&reading.Property,
			&reading.Op,
			&reading.Value,
			&numeric,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}

		if numeric.Valid {
			reading.Numeric = ptr(numeric.Float64)
		}

		timestamp, err := parseReadingTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		reading.RecordedAt = timestamp

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return readings, nil
}

// parseReadingTimestamp parses a timestamp stored in SQLite. Rows inserted
// by the store are RFC3339; rows using the column default come back in
// SQLite's "YYYY-MM-DD HH:MM:SS" form.
func parseReadingTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
}
