package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ClickHouseArchive stores every evaluation run's violations and alerts for
// trend analysis.
type ClickHouseArchive struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseArchive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseArchive{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (a *ClickHouseArchive) Close() error {
	return a.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (a *ClickHouseArchive) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS violation_history (
			run_id              String,
			archived_at         DateTime64(3),
			violation_id        String,
			flight_id           String,
			registration        LowCardinality(String),
			operator            LowCardinality(String),
			aircraft_type       LowCardinality(String),
			aircraft_category   LowCardinality(String),
			direction           LowCardinality(String),
			operation_date      Date,
			operation_hour      UInt8,
			estimated_noise_db  Int16,
			overall_severity    LowCardinality(String),
			threshold_ids       Array(String),
			species_affected    Array(String),
			habitats_affected   Array(String)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(operation_date)
		ORDER BY (operation_date, operator, flight_id, run_id)`,

		`CREATE TABLE IF NOT EXISTS alert_history (
			run_id          String,
			archived_at     DateTime64(3),
			alert_id        String,
			rule_id         LowCardinality(String),
			rule_name       String,
			priority        LowCardinality(String),
			message         String,
			alert_time      String,
			flight_ident    String,
			operator        LowCardinality(String),
			details         String,
			acknowledged    Bool
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(archived_at)
		ORDER BY (rule_id, alert_time, alert_id, run_id)`,
	}

	for _, q := range queries {
		if err := a.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// violationRow returns the column values for one violation. ok is false
// when the operation date cannot be parsed.
func violationRow(runID string, at time.Time, v *biodiversity.Violation) ([]any, bool) {
	date, ok := flight.ParseDate(v.OperationDate)
	if !ok {
		return nil, false
	}

	thresholdIDs := make([]string, 0, len(v.ViolatedThresholds))
	for _, m := range v.ViolatedThresholds {
		thresholdIDs = append(thresholdIDs, m.ThresholdID)
	}
	species := v.SpeciesAffected
	if species == nil {
		species = []string{}
	}
	habitats := v.HabitatsAffected
	if habitats == nil {
		habitats = []string{}
	}

	return []any{
		runID, at, v.ID, v.FlightID, v.Registration, v.Operator, v.AircraftType,
		string(v.AircraftCategory), string(v.Direction), date, uint8(v.OperationHour),
		int16(v.EstimatedNoiseDB), string(v.OverallSeverity), thresholdIDs, species, habitats,
	}, true
}

// ArchiveViolations appends a run's violations in one batch. Violations with
// unparseable dates are skipped. Returns the number archived.
func (a *ClickHouseArchive) ArchiveViolations(ctx context.Context, runID string, violations []biodiversity.Violation) (int, error) {
	if len(violations) == 0 {
		return 0, nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `INSERT INTO violation_history`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	n := 0
	for i := range violations {
		row, ok := violationRow(runID, now, &violations[i])
		if !ok {
			continue
		}
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("append to batch: %w", err)
		}
		n++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}
	return n, nil
}

// ArchiveAlerts appends a run's alerts in one batch.
func (a *ClickHouseArchive) ArchiveAlerts(ctx context.Context, runID string, list []alerts.Triggered) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `INSERT INTO alert_history`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	for _, al := range list {
		err := batch.Append(runID, now, al.ID, al.RuleID, al.RuleName, string(al.Priority), al.Message,
			al.Timestamp, al.FlightIdent, al.Operator, al.Details, al.Acknowledged)
		if err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}
	return len(list), nil
}

// DailyCount is the number of distinct violating flights on a day.
type DailyCount struct {
	Date       string `json:"date"`
	Violations uint64 `json:"violations"`
	Critical   uint64 `json:"critical"`
}

// DailyViolationCounts returns per-day counts between start and end
// (YYYY-MM-DD, inclusive), across all archived runs.
func (a *ClickHouseArchive) DailyViolationCounts(ctx context.Context, start, end string) ([]DailyCount, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT
			toString(operation_date) AS day,
			uniqExact(flight_id) AS violations,
			uniqExactIf(flight_id, overall_severity = 'critical') AS critical
		FROM violation_history
		WHERE operation_date BETWEEN toDate(?) AND toDate(?)
		GROUP BY operation_date
		ORDER BY operation_date
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Date, &c.Violations, &c.Critical); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
