package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
)

// SQLiteStore is the single-file Store used for local runs and tests.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS flights (
		fa_flight_id TEXT PRIMARY KEY,
		ident TEXT,
		registration TEXT,
		direction TEXT NOT NULL,
		aircraft_type TEXT,
		aircraft_category TEXT NOT NULL DEFAULT 'unknown',
		operator TEXT,
		operation_date TEXT NOT NULL,
		operation_hour_et INTEGER NOT NULL DEFAULT 0,
		is_curfew_period INTEGER NOT NULL DEFAULT 0,
		is_weekend INTEGER NOT NULL DEFAULT 0,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_flights_date ON flights(operation_date);
	CREATE INDEX IF NOT EXISTS idx_flights_operator ON flights(operator);
	CREATE INDEX IF NOT EXISTS idx_flights_category ON flights(aircraft_category);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS alert_acks (
		alert_id TEXT PRIMARY KEY,
		acknowledged_at TEXT DEFAULT (datetime('now'))
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// InsertFlights upserts flights keyed by fa_flight_id. Records without an id
// are skipped. Returns the number written.
func (s *SQLiteStore) InsertFlights(ctx context.Context, flights []flight.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flights (fa_flight_id, ident, registration, direction, aircraft_type, aircraft_category, operator, operation_date, operation_hour_et, is_curfew_period, is_weekend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fa_flight_id) DO UPDATE SET
			ident = excluded.ident,
			registration = excluded.registration,
			direction = excluded.direction,
			aircraft_type = excluded.aircraft_type,
			aircraft_category = excluded.aircraft_category,
			operator = excluded.operator,
			operation_date = excluded.operation_date,
			operation_hour_et = excluded.operation_hour_et,
			is_curfew_period = excluded.is_curfew_period,
			is_weekend = excluded.is_weekend
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	for _, f := range flights {
		if f.ID == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx, f.ID, f.Ident, f.Registration, string(f.Direction), f.AircraftType,
			string(f.AircraftCategory), f.Operator, f.OperationDate, f.Hour(), boolInt(f.IsCurfewPeriod), boolInt(f.IsWeekend))
		if err != nil {
			return n, fmt.Errorf("insert flight %s: %w", f.ID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// QueryFlights returns flights matching q ordered by date, hour and id.
func (s *SQLiteStore) QueryFlights(ctx context.Context, q FlightQuery) ([]flight.Record, error) {
	var conditions []string
	var args []interface{}

	if q.Start != "" {
		conditions = append(conditions, "operation_date >= ?")
		args = append(args, q.Start)
	}
	if q.End != "" {
		conditions = append(conditions, "operation_date <= ?")
		args = append(args, q.End)
	}
	if q.Category != "" {
		conditions = append(conditions, "aircraft_category = ?")
		args = append(args, string(q.Category))
	}
	if q.Operator != "" {
		conditions = append(conditions, "operator = ?")
		args = append(args, q.Operator)
	}

	query := `SELECT fa_flight_id, ident, registration, direction, aircraft_type, aircraft_category,
			operator, operation_date, operation_hour_et, is_curfew_period, is_weekend
			FROM flights`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY operation_date, operation_hour_et, fa_flight_id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []flight.Record{}
	for rows.Next() {
		var f flight.Record
		var ident, reg, acType, operator sql.NullString
		var direction, category string
		var hour, curfew, weekend int

		if err := rows.Scan(&f.ID, &ident, &reg, &direction, &acType, &category,
			&operator, &f.OperationDate, &hour, &curfew, &weekend); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		f.Ident = ident.String
		f.Registration = reg.String
		f.AircraftType = acType.String
		f.Operator = operator.String
		f.Direction = flight.Direction(direction)
		f.AircraftCategory = flight.Category(category)
		f.OperationHour = flight.FlexInt(hour)
		f.IsCurfewPeriod = curfew == 1
		f.IsWeekend = weekend == 1
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) putSetting(ctx context.Context, key string, v any) error {
	value, err := encodeSetting(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

// LoadThresholds returns the saved thresholds, or nil if none were saved.
func (s *SQLiteStore) LoadThresholds(ctx context.Context) ([]biodiversity.Threshold, error) {
	raw, ok, err := s.getSetting(ctx, settingThresholds)
	if err != nil || !ok {
		return nil, err
	}
	return decodeThresholds(raw)
}

// SaveThresholds replaces the saved thresholds.
func (s *SQLiteStore) SaveThresholds(ctx context.Context, thresholds []biodiversity.Threshold) error {
	return s.putSetting(ctx, settingThresholds, thresholds)
}

// LoadAlertRules returns the saved rules, or nil if none were saved.
func (s *SQLiteStore) LoadAlertRules(ctx context.Context) ([]alerts.Rule, error) {
	raw, ok, err := s.getSetting(ctx, settingAlertRules)
	if err != nil || !ok {
		return nil, err
	}
	return decodeRules(raw)
}

// SaveAlertRules replaces the saved rules.
func (s *SQLiteStore) SaveAlertRules(ctx context.Context, rules []alerts.Rule) error {
	return s.putSetting(ctx, settingAlertRules, rules)
}

// AcknowledgedAlerts returns the set of acknowledged alert ids.
func (s *SQLiteStore) AcknowledgedAlerts(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alert_id FROM alert_acks`)
	if err != nil {
		return nil, fmt.Errorf("query acks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	acks := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ack: %w", err)
		}
		acks[id] = true
	}
	return acks, rows.Err()
}

// AcknowledgeAlert records an acknowledgement. Repeating it is a no-op.
func (s *SQLiteStore) AcknowledgeAlert(ctx context.Context, alertID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO alert_acks (alert_id) VALUES (?)`, alertID)
	if err != nil {
		return fmt.Errorf("acknowledge %s: %w", alertID, err)
	}
	return nil
}

// UnacknowledgeAlert removes an acknowledgement.
func (s *SQLiteStore) UnacknowledgeAlert(ctx context.Context, alertID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alert_acks WHERE alert_id = ?`, alertID)
	if err != nil {
		return fmt.Errorf("unacknowledge %s: %w", alertID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
