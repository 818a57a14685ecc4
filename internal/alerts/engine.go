package alerts

import (
	"fmt"
	"sort"
	"strings"

	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/noise"
)

// MaxSampleIdents bounds the flights listed in a high-volume alert.
const MaxSampleIdents = 5

// Triggered is an alert produced by a rule.
type Triggered struct {
	ID           string   `json:"id"`
	RuleID       string   `json:"ruleId"`
	RuleName     string   `json:"ruleName"`
	Priority     Priority `json:"priority"`
	Message      string   `json:"message"`
	Timestamp    string   `json:"timestamp"`
	FlightIdent  string   `json:"flightIdent,omitempty"`
	Operator     string   `json:"operator,omitempty"`
	Details      string   `json:"details,omitempty"`
	Acknowledged bool     `json:"acknowledged"`
}

// Evaluate runs every enabled rule over flights and violations. The result
// holds one alert per id, newest timestamp first. acknowledged is only read.
func Evaluate(flights []flight.Record, violations []biodiversity.Violation, rules []Rule, acknowledged map[string]bool) []Triggered {
	var candidates []Triggered

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled || rule.Trigger == nil {
			continue
		}

		switch trig := rule.Trigger.(type) {
		case CurfewTrigger:
			candidates = append(candidates, curfewAlerts(rule, flights)...)
		case NoiseTrigger:
			candidates = append(candidates, noiseAlerts(rule, trig, flights)...)
		case SpeciesImpactTrigger:
			candidates = append(candidates, speciesAlerts(rule, trig, violations)...)
		case HighVolumeTrigger:
			candidates = append(candidates, highVolumeAlerts(rule, trig, flights)...)
		case RepeatOffenderTrigger:
			candidates = append(candidates, repeatOffenderAlerts(rule, trig, violations)...)
		}
	}

	out := dedupe(candidates)
	for i := range out {
		out[i].Acknowledged = acknowledged[out[i].ID]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// dedupe keeps the first alert for each id.
func dedupe(alerts []Triggered) []Triggered {
	seen := make(map[string]bool, len(alerts))
	out := make([]Triggered, 0, len(alerts))
	for _, a := range alerts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

// AlertID builds the deterministic id for a rule and subject.
func AlertID(ruleID, subject string) string {
	return "alert-" + ruleID + "-" + subject
}

// Timestamp formats a local date and hour as a fixed-width sortable string.
// Hours outside 0-23 are clamped.
func Timestamp(date string, hour int) string {
	if hour < 0 {
		hour = 0
	} else if hour > 23 {
		hour = 23
	}
	return fmt.Sprintf("%sT%02d:00:00", date, hour)
}

func newAlert(rule *Rule, subject string) Triggered {
	return Triggered{
		ID:       AlertID(rule.ID, subject),
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Priority: rule.Priority,
	}
}

func curfewAlerts(rule *Rule, flights []flight.Record) []Triggered {
	var out []Triggered
	for i := range flights {
		f := &flights[i]
		if !f.IsCurfewPeriod {
			continue
		}
		a := newAlert(rule, f.ID)
		a.Message = fmt.Sprintf("%s %s at %02d:00 during curfew", f.DisplayIdent(), f.Direction, f.Hour())
		a.Timestamp = Timestamp(f.OperationDate, f.Hour())
		a.FlightIdent = f.DisplayIdent()
		a.Operator = f.OperatorName()
		a.Details = fmt.Sprintf("%s %s operated by %s", f.AircraftType, f.AircraftCategory, f.OperatorName())
		out = append(out, a)
	}
	return out
}

func noiseAlerts(rule *Rule, trig NoiseTrigger, flights []flight.Record) []Triggered {
	var out []Triggered
	for i := range flights {
		f := &flights[i]
		db := noise.EstimateDB(f)
		if db < trig.MinDB {
			continue
		}
		a := newAlert(rule, f.ID)
		a.Message = fmt.Sprintf("%s estimated at %d dB (limit %d dB)", f.DisplayIdent(), db, trig.MinDB)
		a.Timestamp = Timestamp(f.OperationDate, f.Hour())
		a.FlightIdent = f.DisplayIdent()
		a.Operator = f.OperatorName()
		a.Details = fmt.Sprintf("%s %s, %d dB over limit", f.AircraftType, f.Direction, db-trig.MinDB)
		out = append(out, a)
	}
	return out
}

func speciesAlerts(rule *Rule, trig SpeciesImpactTrigger, violations []biodiversity.Violation) []Triggered {
	var out []Triggered
	for i := range violations {
		v := &violations[i]
		if !v.OverallSeverity.AtLeast(trig.MinSeverity) {
			continue
		}
		ident := v.Ident
		if ident == "" {
			ident = v.Registration
		}
		a := newAlert(rule, v.FlightID)
		a.Message = fmt.Sprintf("%s broke %d biodiversity threshold(s), overall severity %s",
			ident, len(v.ViolatedThresholds), v.OverallSeverity)
		a.Timestamp = Timestamp(v.OperationDate, v.OperationHour)
		a.FlightIdent = ident
		a.Operator = v.Operator
		if len(v.SpeciesAffected) > 0 {
			a.Details = "Species affected: " + strings.Join(v.SpeciesAffected, ", ")
		}
		out = append(out, a)
	}
	return out
}

type hourKey struct {
	date string
	hour int
}

func highVolumeAlerts(rule *Rule, trig HighVolumeTrigger, flights []flight.Record) []Triggered {
	var order []hourKey
	groups := make(map[hourKey][]*flight.Record)
	for i := range flights {
		f := &flights[i]
		k := hourKey{f.OperationDate, f.Hour()}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	var out []Triggered
	for _, k := range order {
		group := groups[k]
		if len(group) <= trig.MaxFlightsPerHour {
			continue
		}

		var idents []string
		for _, f := range group {
			if len(idents) == MaxSampleIdents {
				break
			}
			idents = append(idents, f.DisplayIdent())
		}
		details := "Flights: " + strings.Join(idents, ", ")
		if extra := len(group) - len(idents); extra > 0 {
			details += fmt.Sprintf(" +%d more", extra)
		}

		a := newAlert(rule, fmt.Sprintf("%s-%02d", k.date, k.hour))
		a.Message = fmt.Sprintf("%d operations on %s at %02d:00 (limit %d per hour)",
			len(group), k.date, k.hour, trig.MaxFlightsPerHour)
		a.Timestamp = Timestamp(k.date, k.hour)
		a.Details = details
		out = append(out, a)
	}
	return out
}
