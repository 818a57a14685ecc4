// Package biodiversity evaluates flights against user-defined habitat and
// wildlife protection thresholds and summarises the resulting violations.
package biodiversity

import (
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
)

// ThresholdType selects the type-specific test a threshold applies.
type ThresholdType string

const (
	NoiseLevel       ThresholdType = "noise_level"
	TimeOfDay        ThresholdType = "time_of_day"
	Seasonal         ThresholdType = "seasonal"
	HabitatProximity ThresholdType = "habitat_proximity"
)

// HourRange is an hour-of-day window [Start, End) that wraps past midnight
// when Start > End.
type HourRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Contains reports whether hour falls in the range.
func (h HourRange) Contains(hour int) bool {
	return flight.HourInWindow(hour, h.Start, h.End)
}

// Threshold is a user-editable protection rule evaluated per flight.
type Threshold struct {
	ID                           string             `json:"id" yaml:"id"`
	Label                        string             `json:"label" yaml:"label"`
	Description                  string             `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled                      bool               `json:"enabled" yaml:"enabled"`
	Type                         ThresholdType      `json:"type" yaml:"type"`
	ViolationSeverity            severity.Level     `json:"violationSeverity" yaml:"violationSeverity"`
	NoiseThresholdDB             *int               `json:"noiseThresholdDb,omitempty" yaml:"noiseThresholdDb,omitempty"`
	ActiveHours                  *HourRange         `json:"activeHours,omitempty" yaml:"activeHours,omitempty"`
	ActiveMonths                 []int              `json:"activeMonths,omitempty" yaml:"activeMonths,omitempty"`
	ApplicableAircraftCategories []flight.Category  `json:"applicableAircraftCategories,omitempty" yaml:"applicableAircraftCategories,omitempty"`
	ApplicableDirections         []flight.Direction `json:"applicableDirections,omitempty" yaml:"applicableDirections,omitempty"`
	ProtectedHabitatTypes        []HabitatType      `json:"protectedHabitatTypes,omitempty" yaml:"protectedHabitatTypes,omitempty"`
	ProtectedSpeciesGroups       []SpeciesGroup     `json:"protectedSpeciesGroups,omitempty" yaml:"protectedSpeciesGroups,omitempty"`
}

// appliesTo reports whether the category and direction filters admit f.
// Empty filter lists admit everything.
func (t *Threshold) appliesTo(f *flight.Record) bool {
	if len(t.ApplicableAircraftCategories) > 0 && !contains(t.ApplicableAircraftCategories, f.AircraftCategory) {
		return false
	}
	if len(t.ApplicableDirections) > 0 && !contains(t.ApplicableDirections, f.Direction) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intPtr(i int) *int { return &i }

// DefaultThresholds is the bundled threshold set used when no thresholds
// have been persisted.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{
			ID:                     "nesting-season-noise",
			Label:                  "Shorebird nesting season noise",
			Description:            "Operations above 80 dB while piping plovers and terns are nesting on the ocean beaches.",
			Enabled:                true,
			Type:                   Seasonal,
			ViolationSeverity:      severity.High,
			NoiseThresholdDB:       intPtr(80),
			ActiveMonths:           []int{4, 5, 6, 7, 8},
			ProtectedHabitatTypes:  []HabitatType{CoastalDune, Wetland},
			ProtectedSpeciesGroups: []SpeciesGroup{Birds},
		},
		{
			ID:                     "night-wildlife-disturbance",
			Label:                  "Night-time wildlife disturbance",
			Description:            "Operations between 8 PM and 6 AM when bats and amphibians are active.",
			Enabled:                true,
			Type:                   TimeOfDay,
			ViolationSeverity:      severity.Moderate,
			ActiveHours:            &HourRange{Start: 20, End: 6},
			ProtectedSpeciesGroups: []SpeciesGroup{Mammals, Amphibians},
		},
		{
			ID:                           "helicopter-noise-ceiling",
			Label:                        "Helicopter noise ceiling",
			Description:                  "Helicopter operations at or above 85 dB.",
			Enabled:                      true,
			Type:                         NoiseLevel,
			ViolationSeverity:            severity.High,
			NoiseThresholdDB:             intPtr(85),
			ApplicableAircraftCategories: []flight.Category{flight.Helicopter},
		},
		{
			ID:                           "jet-departure-noise",
			Label:                        "Jet departure noise",
			Description:                  "Jet departures at or above 90 dB.",
			Enabled:                      true,
			Type:                         NoiseLevel,
			ViolationSeverity:            severity.Critical,
			NoiseThresholdDB:             intPtr(90),
			ApplicableAircraftCategories: []flight.Category{flight.Jet},
			ApplicableDirections:         []flight.Direction{flight.Departure},
		},
		{
			ID:                    "wetland-buffer",
			Label:                 "Wetland habitat buffer",
			Description:           "Low arrivals over the Long Pond Greenbelt wetlands above 78 dB.",
			Enabled:               true,
			Type:                  HabitatProximity,
			ViolationSeverity:     severity.Moderate,
			NoiseThresholdDB:      intPtr(78),
			ApplicableDirections:  []flight.Direction{flight.Arrival},
			ProtectedHabitatTypes: []HabitatType{Wetland, Pond},
		},
		{
			ID:                     "pine-barrens-summer",
			Label:                  "Pine barrens breeding season",
			Description:            "Summer operations over the pine barrens during songbird breeding.",
			Enabled:                false,
			Type:                   Seasonal,
			ViolationSeverity:      severity.Low,
			ActiveMonths:           []int{5, 6, 7},
			ProtectedHabitatTypes:  []HabitatType{PineBarrens, Woodland},
			ProtectedSpeciesGroups: []SpeciesGroup{Birds, Insects},
		},
	}
}
