package biodiversity

import (
	"sort"

	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/severity"
)

// MaxTopOffenders caps Summary.TopOffenders.
const MaxTopOffenders = 10

// EvaluateAllFlights returns one Violation per violating flight, in input
// order.
func EvaluateAllFlights(flights []flight.Record, thresholds []Threshold) []Violation {
	out := []Violation{}
	for i := range flights {
		if v := Evaluate(&flights[i], thresholds); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Offender is an aircraft ranked by violation count.
type Offender struct {
	Registration   string `json:"registration"`
	Operator       string `json:"operator"`
	ViolationCount int    `json:"violationCount"`
}

// Summary aggregates a violation list.
type Summary struct {
	TotalViolations            int                     `json:"totalViolations"`
	TotalFlightsWithViolations int                     `json:"totalFlightsWithViolations"`
	ByAircraftCategory         map[flight.Category]int `json:"byAircraftCategory"`
	BySeverity                 map[severity.Level]int  `json:"bySeverity"`
	TopOffenders               []Offender              `json:"topOffenders"`
}

// GenerateViolationSummary reduces violations to counts and a ranked
// offender list. Offenders are keyed by registration, falling back to ident,
// and ties keep first-seen order.
func GenerateViolationSummary(violations []Violation) Summary {
	s := Summary{
		TotalViolations:            len(violations),
		TotalFlightsWithViolations: len(violations),
		ByAircraftCategory:         make(map[flight.Category]int),
		BySeverity:                 make(map[severity.Level]int),
		TopOffenders:               []Offender{},
	}

	index := make(map[string]int)
	for _, v := range violations {
		s.ByAircraftCategory[v.AircraftCategory]++
		s.BySeverity[v.OverallSeverity]++

		key := v.Registration
		if key == "" {
			key = v.Ident
		}
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			s.TopOffenders[i].ViolationCount++
			continue
		}
		index[key] = len(s.TopOffenders)
		s.TopOffenders = append(s.TopOffenders, Offender{
			Registration:   key,
			Operator:       v.Operator,
			ViolationCount: 1,
		})
	}

	sort.SliceStable(s.TopOffenders, func(i, j int) bool {
		return s.TopOffenders[i].ViolationCount > s.TopOffenders[j].ViolationCount
	})
	if len(s.TopOffenders) > MaxTopOffenders {
		s.TopOffenders = s.TopOffenders[:MaxTopOffenders]
	}
	return s
}
