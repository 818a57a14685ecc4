package biodiversity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
)

func TestLoadThresholdsYAML(t *testing.T) {
	doc := `
thresholds:
  - id: night
    label: Night operations
    enabled: true
    type: time_of_day
    violationSeverity: High
    activeHours: {start: 20, end: 8}
    protectedSpeciesGroups: [mammals]
  - id: heli
    label: Helicopters
    enabled: false
    type: noise_level
    violationSeverity: moderate
    noiseThresholdDb: 82
    applicableAircraftCategories: [helicopter]
`
	got, err := LoadThresholds(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, severity.High, got[0].ViolationSeverity)
	require.NotNil(t, got[0].ActiveHours)
	assert.Equal(t, HourRange{Start: 20, End: 8}, *got[0].ActiveHours)
	assert.Equal(t, []SpeciesGroup{Mammals}, got[0].ProtectedSpeciesGroups)

	assert.False(t, got[1].Enabled)
	require.NotNil(t, got[1].NoiseThresholdDB)
	assert.Equal(t, 82, *got[1].NoiseThresholdDB)
	assert.Equal(t, []flight.Category{flight.Helicopter}, got[1].ApplicableAircraftCategories)
}

func TestLoadThresholdsJSONList(t *testing.T) {
	data, err := json.Marshal(DefaultThresholds())
	require.NoError(t, err)

	got, err := LoadThresholds(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), got)
}

func TestLoadThresholdsErrors(t *testing.T) {
	got, err := LoadThresholds(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = LoadThresholds(strings.NewReader("- id: x\n  violationSeverity: extreme\n"))
	assert.Error(t, err)
}
