package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
)

func TestWriteViolationsCSV(t *testing.T) {
	v := biodiversity.Violation{
		ID:               "viol-a",
		FlightID:         "a",
		Ident:            "N1",
		Registration:     "N1",
		Operator:         "NetJets",
		AircraftType:     "GLF5",
		AircraftCategory: flight.Jet,
		Direction:        flight.Departure,
		OperationDate:    "2025-06-14",
		OperationHour:    22,
		EstimatedNoiseDB: 92,
		ViolatedThresholds: []biodiversity.Match{
			{ThresholdID: "nesting-season-noise", ExceedanceDB: 12},
			{ThresholdID: "jet-departure-noise", ExceedanceDB: 2},
		},
		OverallSeverity:  severity.Critical,
		SpeciesAffected:  []string{"Piping Plover", "Osprey"},
		HabitatsAffected: []string{},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteViolationsCSV(&buf, []biodiversity.Violation{v}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "violation_id,fa_flight_id,ident,"))
	assert.Contains(t, lines[1], "nesting-season-noise; jet-departure-noise")
	assert.Contains(t, lines[1], ",critical,")
	assert.Contains(t, lines[1], ",12,Piping Plover; Osprey,")
}

func TestWriteViolationsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteViolationsCSV(&buf, nil))
	assert.Contains(t, buf.String(), "violation_id")
}
