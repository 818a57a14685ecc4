package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PostgresStore is the shared Store used by deployed services.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresStore) Close() error {
	d.pool.Close()
	return nil
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresStore) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS flights (
		fa_flight_id        TEXT PRIMARY KEY,
		ident               TEXT,
		registration        TEXT,
		direction           TEXT NOT NULL,
		aircraft_type       TEXT,
		aircraft_category   TEXT NOT NULL DEFAULT 'unknown',
		operator            TEXT,
		operation_date      DATE NOT NULL,
		operation_hour_et   SMALLINT NOT NULL DEFAULT 0,
		is_curfew_period    BOOLEAN NOT NULL DEFAULT FALSE,
		is_weekend          BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_flights_date ON flights(operation_date);
	CREATE INDEX IF NOT EXISTS idx_flights_operator ON flights(operator);

	CREATE TABLE IF NOT EXISTS settings (
		key         TEXT PRIMARY KEY,
		value       JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS alert_acks (
		alert_id         TEXT PRIMARY KEY,
		acknowledged_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := d.pool.Exec(ctx, schema)
	return err
}

// InsertFlights upserts flights keyed by fa_flight_id. Records without an id
// or with an unparseable date are skipped.
func (d *PostgresStore) InsertFlights(ctx context.Context, flights []flight.Record) (int, error) {
	batch := &pgx.Batch{}
	for _, f := range flights {
		date, ok := f.Date()
		if f.ID == "" || !ok {
			continue
		}
		batch.Queue(`
			INSERT INTO flights (fa_flight_id, ident, registration, direction, aircraft_type, aircraft_category, operator, operation_date, operation_hour_et, is_curfew_period, is_weekend)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (fa_flight_id) DO UPDATE SET
				ident = EXCLUDED.ident,
				registration = EXCLUDED.registration,
				direction = EXCLUDED.direction,
				aircraft_type = EXCLUDED.aircraft_type,
				aircraft_category = EXCLUDED.aircraft_category,
				operator = EXCLUDED.operator,
				operation_date = EXCLUDED.operation_date,
				operation_hour_et = EXCLUDED.operation_hour_et,
				is_curfew_period = EXCLUDED.is_curfew_period,
				is_weekend = EXCLUDED.is_weekend
		`, f.ID, f.Ident, f.Registration, string(f.Direction), f.AircraftType, string(f.AircraftCategory),
			f.Operator, date, f.Hour(), f.IsCurfewPeriod, f.IsWeekend)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := d.pool.SendBatch(ctx, batch)
	n := 0
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return n, fmt.Errorf("insert flight: %w", err)
		}
		n++
	}
	if err := br.Close(); err != nil {
		return n, fmt.Errorf("close batch: %w", err)
	}
	return n, nil
}

// QueryFlights returns flights matching q ordered by date, hour and id.
func (d *PostgresStore) QueryFlights(ctx context.Context, q FlightQuery) ([]flight.Record, error) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Start != "" {
		conditions = append(conditions, "operation_date >= "+arg(q.Start)+"::date")
	}
	if q.End != "" {
		conditions = append(conditions, "operation_date <= "+arg(q.End)+"::date")
	}
	if q.Category != "" {
		conditions = append(conditions, "aircraft_category = "+arg(string(q.Category)))
	}
	if q.Operator != "" {
		conditions = append(conditions, "operator = "+arg(q.Operator))
	}

	query := `SELECT fa_flight_id, COALESCE(ident, ''), COALESCE(registration, ''), direction,
			COALESCE(aircraft_type, ''), aircraft_category, COALESCE(operator, ''),
			to_char(operation_date, 'YYYY-MM-DD'), operation_hour_et, is_curfew_period, is_weekend
			FROM flights`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY operation_date, operation_hour_et, fa_flight_id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()

	out := []flight.Record{}
	for rows.Next() {
		var f flight.Record
		var direction, category string
		var hour int16

		if err := rows.Scan(&f.ID, &f.Ident, &f.Registration, &direction, &f.AircraftType, &category,
			&f.Operator, &f.OperationDate, &hour, &f.IsCurfewPeriod, &f.IsWeekend); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		f.Direction = flight.Direction(direction)
		f.AircraftCategory = flight.Category(category)
		f.OperationHour = flight.FlexInt(hour)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (d *PostgresStore) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.pool.QueryRow(ctx, `SELECT value::text FROM settings WHERE key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (d *PostgresStore) putSetting(ctx context.Context, key string, v any) error {
	value, err := encodeSetting(v)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

// LoadThresholds returns the saved thresholds, or nil if none were saved.
func (d *PostgresStore) LoadThresholds(ctx context.Context) ([]biodiversity.Threshold, error) {
	raw, ok, err := d.getSetting(ctx, settingThresholds)
	if err != nil || !ok {
		return nil, err
	}
	return decodeThresholds(raw)
}

// SaveThresholds replaces the saved thresholds.
func (d *PostgresStore) SaveThresholds(ctx context.Context, thresholds []biodiversity.Threshold) error {
	return d.putSetting(ctx, settingThresholds, thresholds)
}

// LoadAlertRules returns the saved rules, or nil if none were saved.
func (d *PostgresStore) LoadAlertRules(ctx context.Context) ([]alerts.Rule, error) {
	raw, ok, err := d.getSetting(ctx, settingAlertRules)
	if err != nil || !ok {
		return nil, err
	}
	return decodeRules(raw)
}

// SaveAlertRules replaces the saved rules.
func (d *PostgresStore) SaveAlertRules(ctx context.Context, rules []alerts.Rule) error {
	return d.putSetting(ctx, settingAlertRules, rules)
}

// AcknowledgedAlerts returns the set of acknowledged alert ids.
func (d *PostgresStore) AcknowledgedAlerts(ctx context.Context) (map[string]bool, error) {
	rows, err := d.pool.Query(ctx, `SELECT alert_id FROM alert_acks`)
	if err != nil {
		return nil, fmt.Errorf("query acks: %w", err)
	}
	defer rows.Close()

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
func (d *PostgresStore) AcknowledgeAlert(ctx context.Context, alertID string) error {
	_, err := d.pool.Exec(ctx, `INSERT INTO alert_acks (alert_id) VALUES ($1) ON CONFLICT (alert_id) DO NOTHING`, alertID)
	if err != nil {
		return fmt.Errorf("acknowledge %s: %w", alertID, err)
	}
	return nil
}

// UnacknowledgeAlert removes an acknowledgement.
func (d *PostgresStore) UnacknowledgeAlert(ctx context.Context, alertID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM alert_acks WHERE alert_id = $1`, alertID)
	if err != nil {
		return fmt.Errorf("unacknowledge %s: %w", alertID, err)
	}
	return nil
}
