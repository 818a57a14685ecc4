package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jpx_compliance/internal/flight"
)

func TestLookupKnownType(t *testing.T) {
	p := Lookup("glf5")
	assert.Equal(t, "GLF5", p.TypeCode)
	assert.Equal(t, 92, p.TakeoffDB)
	assert.Equal(t, 88, p.ApproachDB)
	assert.Equal(t, SourceCertified, p.Source)
}

func TestLookupCategoryFallback(t *testing.T) {
	// G650 is a classified jet with no table entry.
	p := Lookup("G650")
	assert.Equal(t, flight.Jet, p.Category)
	assert.Equal(t, 88, p.TakeoffDB)
	assert.Equal(t, 84, p.ApproachDB)
	assert.Equal(t, SourceCategoryEstimate, p.Source)

	p = Lookup("B06")
	assert.Equal(t, 84, p.TakeoffDB)
	assert.Equal(t, 80, p.ApproachDB)
}

func TestLookupDefault(t *testing.T) {
	for _, code := range []string{"", "ZZZZ"} {
		p := Lookup(code)
		assert.Equal(t, DefaultProfile.TakeoffDB, p.TakeoffDB, code)
		assert.Equal(t, DefaultProfile.ApproachDB, p.ApproachDB, code)
		assert.Equal(t, flight.Unknown, p.Category, code)
	}
	assert.Equal(t, "ZZZZ", Lookup("ZZZZ").TypeCode)
}

func TestEstimateDBDirection(t *testing.T) {
	dep := &flight.Record{AircraftType: "GLF5", Direction: flight.Departure}
	arr := &flight.Record{AircraftType: "GLF5", Direction: flight.Arrival}

	assert.Equal(t, 92, EstimateDB(dep))
	assert.Equal(t, 88, EstimateDB(arr))
}

func TestAtAltitude(t *testing.T) {
	tests := []struct {
		name     string
		source   float64
		altitude float64
		want     float64
	}{
		{"reference distance", 88, 1000, 88},
		{"double distance", 88, 2000, 82},
		{"floor at 100 ft", 88, 10, 108},
		{"never negative", 10, 100000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AtAltitude(tt.source, tt.altitude), 0.05)
		})
	}
}
