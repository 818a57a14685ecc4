package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"jpx_compliance/internal/biodiversity"
)

// violationRow is the flat CSV form of a violation. List fields are joined
// with "; ".
type violationRow struct {
	ID               string `csv:"violation_id"`
	FlightID         string `csv:"fa_flight_id"`
	Ident            string `csv:"ident"`
	Registration     string `csv:"registration"`
	Operator         string `csv:"operator"`
	AircraftType     string `csv:"aircraft_type"`
	AircraftCategory string `csv:"aircraft_category"`
	Direction        string `csv:"direction"`
	OperationDate    string `csv:"operation_date"`
	OperationHour    int    `csv:"operation_hour_et"`
	EstimatedNoiseDB int    `csv:"estimated_noise_db"`
	OverallSeverity  string `csv:"overall_severity"`
	Thresholds       string `csv:"violated_thresholds"`
	MaxExceedanceDB  int    `csv:"max_exceedance_db"`
	Species          string `csv:"species_affected"`
	Habitats         string `csv:"habitats_affected"`
}

func toRow(v *biodiversity.Violation) violationRow {
	ids := make([]string, 0, len(v.ViolatedThresholds))
	maxExceed := 0
	for _, m := range v.ViolatedThresholds {
		ids = append(ids, m.ThresholdID)
		if m.ExceedanceDB > maxExceed {
			maxExceed = m.ExceedanceDB
		}
	}
	return violationRow{
		ID:               v.ID,
		FlightID:         v.FlightID,
		Ident:            v.Ident,
		Registration:     v.Registration,
		Operator:         v.Operator,
		AircraftType:     v.AircraftType,
		AircraftCategory: string(v.AircraftCategory),
		Direction:        string(v.Direction),
		OperationDate:    v.OperationDate,
		OperationHour:    v.OperationHour,
		EstimatedNoiseDB: v.EstimatedNoiseDB,
		OverallSeverity:  string(v.OverallSeverity),
		Thresholds:       strings.Join(ids, "; "),
		MaxExceedanceDB:  maxExceed,
		Species:          strings.Join(v.SpeciesAffected, "; "),
		Habitats:         strings.Join(v.HabitatsAffected, "; "),
	}
}

// WriteViolationsCSV writes one row per violation with a header row.
func WriteViolationsCSV(w io.Writer, violations []biodiversity.Violation) error {
	rows := make([]violationRow, 0, len(violations))
	for i := range violations {
		rows = append(rows, toRow(&violations[i]))
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode violations csv: %w", err)
	}
	_, err = w.Write(data)
	return err
}
