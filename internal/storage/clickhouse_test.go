package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
)

func sampleViolation() biodiversity.Violation {
	return biodiversity.Violation{
		ID:               "viol-a",
		FlightID:         "a",
		Registration:     "N1",
		Operator:         "NetJets",
		AircraftType:     "GLF5",
		AircraftCategory: flight.Jet,
		Direction:        flight.Departure,
		OperationDate:    "2025-06-14",
		OperationHour:    22,
		EstimatedNoiseDB: 92,
		ViolatedThresholds: []biodiversity.Match{
			{ThresholdID: "noise", Severity: severity.Critical},
			{ThresholdID: "night", Severity: severity.High},
		},
		OverallSeverity: severity.Critical,
		SpeciesAffected: []string{"Osprey"},
	}
}

func TestViolationRow(t *testing.T) {
	at := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	v := sampleViolation()

	row, ok := violationRow("run-1", at, &v)
	require.True(t, ok)
	require.Len(t, row, 16)
	assert.Equal(t, "run-1", row[0])
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), row[9])
	assert.Equal(t, uint8(22), row[10])
	assert.Equal(t, int16(92), row[11])
	assert.Equal(t, "critical", row[12])
	assert.Equal(t, []string{"noise", "night"}, row[13])
	assert.Equal(t, []string{}, row[15])

	v.OperationDate = "bad"
	_, ok = violationRow("run-1", at, &v)
	assert.False(t, ok)
}

// setupTestClickHouse returns nil when no server is reachable.
func setupTestClickHouse(t *testing.T) *ClickHouseArchive {
	t.Helper()

	host := os.Getenv("CLICKHOUSE_HOST")
	if host == "" {
		host = "localhost"
	}

	ctx := context.Background()
	ch, err := OpenClickHouse(ctx, ClickHouseConfig{
		Host:     host,
		Port:     9000,
		Database: "default",
		User:     "default",
	})
	if err != nil {
		return nil
	}
	if err := ch.CreateSchema(ctx); err != nil {
		_ = ch.Close()
		return nil
	}
	return ch
}

func TestClickHouseArchive(t *testing.T) {
	ch := setupTestClickHouse(t)
	if ch == nil {
		t.Skip("No ClickHouse connection available")
	}
	defer ch.Close()

	ctx := context.Background()
	runID := uuid.NewString()

	n, err := ch.ArchiveViolations(ctx, runID, []biodiversity.Violation{sampleViolation()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ch.ArchiveAlerts(ctx, runID, []alerts.Triggered{{ID: "alert-r-a", RuleID: "r", Priority: alerts.Critical, Timestamp: "2025-06-14T22:00:00"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err := ch.DailyViolationCounts(ctx, "2025-06-14", "2025-06-14")
	require.NoError(t, err)
	require.NotEmpty(t, counts)
	assert.Equal(t, "2025-06-14", counts[0].Date)
	assert.GreaterOrEqual(t, counts[0].Critical, uint64(1))
}

func TestArchiveEmpty(t *testing.T) {
	var a ClickHouseArchive
	n, err := a.ArchiveViolations(context.Background(), "run", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = a.ArchiveAlerts(context.Background(), "run", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
