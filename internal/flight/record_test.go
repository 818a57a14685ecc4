package flight

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{`{"operation_hour_et": 22}`, 22},
		{`{"operation_hour_et": "7"}`, 7},
		{`{"operation_hour_et": " 13 "}`, 13},
		{`{"operation_hour_et": null}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var r Record
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))
			assert.Equal(t, tt.want, r.Hour())
		})
	}
}

func TestFlexIntRejectsJunk(t *testing.T) {
	for _, input := range []string{
		`{"operation_hour_et": "unknown"}`,
		`{"operation_hour_et": ""}`,
		`{"operation_hour_et": true}`,
	} {
		var r Record
		assert.Error(t, json.Unmarshal([]byte(input), &r), input)
	}
}

func TestValidHour(t *testing.T) {
	assert.True(t, ValidHour(0))
	assert.True(t, ValidHour(23))
	assert.False(t, ValidHour(-1))
	assert.False(t, ValidHour(24))
}

func TestRecordHelpers(t *testing.T) {
	r := Record{Registration: "N123AB", OperationDate: "2025-07-04"}

	assert.Equal(t, UnknownOperator, r.OperatorName())
	assert.Equal(t, "N123AB", r.DisplayIdent())
	assert.Equal(t, 7, r.Month())

	r.Operator = "  Blade  "
	r.Ident = "BLD12"
	assert.Equal(t, "Blade", r.OperatorName())
	assert.Equal(t, "BLD12", r.DisplayIdent())

	r.OperationDate = "04/07/2025"
	assert.Equal(t, 0, r.Month())
}

func TestIsNamedOperator(t *testing.T) {
	assert.False(t, IsNamedOperator(""))
	assert.False(t, IsNamedOperator("Unknown"))
	assert.False(t, IsNamedOperator("Private"))
	assert.True(t, IsNamedOperator("NetJets"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want Category
	}{
		{"S76", Helicopter},
		{"r44", Helicopter},
		{"GLF5", Jet},
		{" C56X ", Jet},
		{"C172", FixedWing},
		{"PC12", FixedWing},
		{"ZZZZ", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.code); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, Jet, ParseCategory("JET"))
	assert.Equal(t, FixedWing, ParseCategory("fixed_wing"))
	assert.Equal(t, Unknown, ParseCategory("blimp"))
}

func TestHourInWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		hour       int
		want       bool
	}{
		{"wrap late evening", 20, 8, 22, true},
		{"wrap early morning", 20, 8, 3, true},
		{"wrap start inclusive", 20, 8, 20, true},
		{"wrap end exclusive", 20, 8, 8, false},
		{"wrap afternoon", 20, 8, 14, false},
		{"plain inside", 6, 9, 7, true},
		{"plain end exclusive", 6, 9, 9, false},
		{"empty window", 5, 5, 5, false},
		{"negative hour", 20, 8, -1, false},
		{"hour past 23", 20, 8, 24, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HourInWindow(tt.hour, tt.start, tt.end))
		})
	}
}

func TestDefaultCurfew(t *testing.T) {
	assert.True(t, DefaultCurfew.Contains(21))
	assert.True(t, DefaultCurfew.Contains(0))
	assert.True(t, DefaultCurfew.Contains(6))
	assert.False(t, DefaultCurfew.Contains(7))
	assert.False(t, DefaultCurfew.Contains(20))
}
