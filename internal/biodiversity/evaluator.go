package biodiversity

import (
	"fmt"

	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/noise"
	"jpx_compliance/internal/severity"
)

// Match records one threshold a flight broke.
type Match struct {
	ThresholdID  string         `json:"thresholdId"`
	Label        string         `json:"label"`
	Severity     severity.Level `json:"severity"`
	ExceedanceDB int            `json:"exceedanceDb"`
	Reason       string         `json:"reason"`
}

// Violation aggregates every threshold a single flight broke.
type Violation struct {
	ID                 string           `json:"id"`
	FlightID           string           `json:"flightId"`
	Ident              string           `json:"ident"`
	Registration       string           `json:"registration"`
	Operator           string           `json:"operator"`
	AircraftType       string           `json:"aircraftType"`
	AircraftCategory   flight.Category  `json:"aircraftCategory"`
	Direction          flight.Direction `json:"direction"`
	OperationDate      string           `json:"operationDate"`
	OperationHour      int              `json:"operationHour"`
	EstimatedNoiseDB   int              `json:"estimatedNoiseDb"`
	ViolatedThresholds []Match          `json:"violatedThresholds"`
	OverallSeverity    severity.Level   `json:"overallSeverity"`
	SpeciesAffected    []string         `json:"speciesAffected"`
	HabitatsAffected   []string         `json:"habitatsAffected"`
}

// Evaluate tests f against every threshold and returns a Violation when at
// least one enabled, applicable threshold matches. It returns nil otherwise.
func Evaluate(f *flight.Record, thresholds []Threshold) *Violation {
	if f == nil {
		return nil
	}

	estimated := noise.EstimateDB(f)

	var matches []Match
	var groups []SpeciesGroup
	var habitats []HabitatType

	for i := range thresholds {
		t := &thresholds[i]
		if !t.Enabled || !t.appliesTo(f) {
			continue
		}

		m, ok := match(t, f, estimated)
		if !ok {
			continue
		}
		matches = append(matches, m)
		groups = appendUnique(groups, t.ProtectedSpeciesGroups...)
		habitats = appendUnique(habitats, t.ProtectedHabitatTypes...)
	}

	if len(matches) == 0 {
		return nil
	}

	overall := matches[0].Severity
	for _, m := range matches[1:] {
		overall = severity.Max(overall, m.Severity)
	}

	v := &Violation{
		ID:                 "viol-" + f.ID,
		FlightID:           f.ID,
		Ident:              f.Ident,
		Registration:       f.Registration,
		Operator:           f.OperatorName(),
		AircraftType:       f.AircraftType,
		AircraftCategory:   f.AircraftCategory,
		Direction:          f.Direction,
		OperationDate:      f.OperationDate,
		OperationHour:      f.Hour(),
		EstimatedNoiseDB:   estimated,
		ViolatedThresholds: matches,
		OverallSeverity:    overall,
		SpeciesAffected:    []string{},
		HabitatsAffected:   []string{},
	}

	for _, s := range AffectedSpecies(estimated, groups) {
		v.SpeciesAffected = append(v.SpeciesAffected, s.CommonName)
	}
	for _, h := range AffectedHabitats(estimated, habitats) {
		v.HabitatsAffected = append(v.HabitatsAffected, h.Name)
	}

	return v
}

// match applies the type-specific test for t. Missing type-specific fields
// never match.
func match(t *Threshold, f *flight.Record, estimated int) (Match, bool) {
	m := Match{
		ThresholdID: t.ID,
		Label:       t.Label,
		Severity:    t.ViolationSeverity,
	}

	switch t.Type {
	case NoiseLevel:
		if t.NoiseThresholdDB == nil || estimated < *t.NoiseThresholdDB {
			return m, false
		}
		m.ExceedanceDB = estimated - *t.NoiseThresholdDB
		m.Reason = fmt.Sprintf("Estimated %d dB meets or exceeds the %d dB limit", estimated, *t.NoiseThresholdDB)

	case TimeOfDay:
		if t.ActiveHours == nil || !t.ActiveHours.Contains(f.Hour()) {
			return m, false
		}
		m.Reason = fmt.Sprintf("Operation at %02d:00 falls within the protected window %02d:00-%02d:00",
			f.Hour(), t.ActiveHours.Start, t.ActiveHours.End)

	case Seasonal:
		month := f.Month()
		if month == 0 || !contains(t.ActiveMonths, month) {
			return m, false
		}
		m.Reason = fmt.Sprintf("Operation in %s falls within the protected season", monthName(month))
		if t.NoiseThresholdDB != nil {
			if estimated < *t.NoiseThresholdDB {
				return m, false
			}
			m.ExceedanceDB = estimated - *t.NoiseThresholdDB
			m.Reason += fmt.Sprintf(" at %d dB (limit %d dB)", estimated, *t.NoiseThresholdDB)
		}

	case HabitatProximity:
		m.Reason = "Operation passes over protected habitat"
		if t.NoiseThresholdDB != nil {
			if estimated < *t.NoiseThresholdDB {
				return m, false
			}
			m.ExceedanceDB = estimated - *t.NoiseThresholdDB
			m.Reason += fmt.Sprintf(" at %d dB (limit %d dB)", estimated, *t.NoiseThresholdDB)
		}

	default:
		return m, false
	}

	return m, true
}

func appendUnique[T comparable](list []T, items ...T) []T {
	for _, item := range items {
		if !contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return "unknown month"
	}
	return [...]string{"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December"}[m-1]
}
