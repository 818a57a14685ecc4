// Package storage persists flights, threshold and rule settings, and alert
// acknowledgements, and archives evaluation history for analytics.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
)

// Setting keys in the settings table.
const (
	settingThresholds = "thresholds"
	settingAlertRules = "alert_rules"
)

// FlightQuery filters stored flights. Zero values match everything.
type FlightQuery struct {
	Start    string          // First operation date (YYYY-MM-DD), inclusive.
	End      string          // Last operation date (YYYY-MM-DD), inclusive.
	Category flight.Category // Exact aircraft category.
	Operator string          // Exact operator name.
	Limit    int             // Max results (0 = no limit).
}

// Store is the persistence contract used by the report service and API.
// Load methods return nil, nil when nothing has been saved.
type Store interface {
	InsertFlights(ctx context.Context, flights []flight.Record) (int, error)
	QueryFlights(ctx context.Context, q FlightQuery) ([]flight.Record, error)

	LoadThresholds(ctx context.Context) ([]biodiversity.Threshold, error)
	SaveThresholds(ctx context.Context, thresholds []biodiversity.Threshold) error
	LoadAlertRules(ctx context.Context) ([]alerts.Rule, error)
	SaveAlertRules(ctx context.Context, rules []alerts.Rule) error

	AcknowledgedAlerts(ctx context.Context) (map[string]bool, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
	UnacknowledgeAlert(ctx context.Context, alertID string) error

	Close() error
}

// Config holds connection settings for every backend.
type Config struct {
	Driver     string           `yaml:"driver"` // "sqlite" or "postgres".
	SQLitePath string           `yaml:"sqlite_path"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: "jpx_flights.db",
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "jpx",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "jpx",
			User:     "jpx",
			Password: "jpx",
		},
	}
}

// OpenStore opens the store selected by cfg.Driver and ensures its schema.
func OpenStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres", "postgresql":
		pg, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.CreateSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func encodeSetting(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal setting: %w", err)
	}
	return string(b), nil
}

func decodeThresholds(raw string) ([]biodiversity.Threshold, error) {
	var out []biodiversity.Threshold
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode thresholds: %w", err)
	}
	if out == nil {
		out = []biodiversity.Threshold{}
	}
	return out, nil
}

func decodeRules(raw string) ([]alerts.Rule, error) {
	var out []alerts.Rule
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode alert rules: %w", err)
	}
	if out == nil {
		out = []alerts.Rule{}
	}
	return out, nil
}
