package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/cache"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
	"jpx_compliance/internal/storage"
)

func testFlights() []flight.Record {
	return []flight.Record{
		{ID: "a", Ident: "N1", Registration: "N1", Operator: "NetJets", AircraftType: "GLF5", AircraftCategory: flight.Jet, Direction: flight.Departure, OperationDate: "2025-06-14", OperationHour: 22, IsCurfewPeriod: true, IsWeekend: true},
		{ID: "b", Ident: "N2", Registration: "N2", AircraftType: "C172", AircraftCategory: flight.FixedWing, Direction: flight.Departure, OperationDate: "2025-06-20", OperationHour: 12},
		{ID: "c", Ident: "N3", Registration: "N3", AircraftType: "C172", AircraftCategory: flight.FixedWing, Direction: flight.Departure, OperationDate: "2025-07-02", OperationHour: 12},
	}
}

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.InsertFlights(context.Background(), testFlights())
	require.NoError(t, err)

	svc := NewService(store, cache.NewInMemory())
	return svc, store
}

func TestBuildWithDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	rep, err := svc.Build(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Flights)
	require.Len(t, rep.Violations, 1)
	v := rep.Violations[0]
	assert.Equal(t, "viol-a", v.ID)
	assert.Equal(t, severity.Critical, v.OverallSeverity)
	assert.Equal(t, 1, rep.Summary.TotalViolations)

	ids := make([]string, 0, len(rep.Alerts))
	for _, a := range rep.Alerts {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "alert-curfew-violations-a")
	assert.Contains(t, ids, "alert-loud-operations-a")
	assert.Contains(t, ids, "alert-high-species-impact-a")
	assert.Equal(t, len(rep.Alerts), rep.AlertSummary.Total)
	assert.Equal(t, rep.AlertSummary.Total, rep.AlertSummary.Unacknowledged)
}

func TestBuildDateRange(t *testing.T) {
	svc, _ := newTestService(t)

	rep, err := svc.Build(context.Background(), Query{Start: "2025-06-15", End: "2025-06-30"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Flights)
	assert.Empty(t, rep.Violations)
	assert.NotNil(t, rep.Violations)
}

func TestBuildUsesSavedConfiguration(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Saving an empty list disables every threshold and rule.
	require.NoError(t, store.SaveThresholds(ctx, []biodiversity.Threshold{}))
	require.NoError(t, store.SaveAlertRules(ctx, []alerts.Rule{}))

	rep, err := svc.Build(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, rep.Violations)
	assert.Empty(t, rep.Alerts)

	th, err := svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Empty(t, th)
}

func TestBuildCaches(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.Build(ctx, Query{})
	require.NoError(t, err)

	now = now.Add(time.Minute)
	second, err := svc.Build(ctx, Query{})
	require.NoError(t, err)
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))

	// An acknowledgement changes the inputs, so the report is rebuilt.
	require.NoError(t, store.AcknowledgeAlert(ctx, "alert-curfew-violations-a"))
	third, err := svc.Build(ctx, Query{})
	require.NoError(t, err)
	assert.True(t, third.GeneratedAt.Equal(now))
	assert.Equal(t, third.AlertSummary.Total-1, third.AlertSummary.Unacknowledged)
}

func TestBuildWithoutCache(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Cache = nil

	rep, err := svc.Build(context.Background(), Query{Category: flight.FixedWing})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Flights)
}

func TestCompute(t *testing.T) {
	rep := Compute(Query{}, nil, biodiversity.DefaultThresholds(), alerts.DefaultRules(), nil, time.Time{})
	assert.Equal(t, 0, rep.Flights)
	assert.NotNil(t, rep.Violations)
	assert.Empty(t, rep.Alerts)
}
