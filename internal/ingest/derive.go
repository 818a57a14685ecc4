package ingest

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // airport zone must resolve on hosts without zoneinfo

	"jpx_compliance/internal/flight"
)

// DefaultAirportCodes are the ICAO/IATA codes the airport has used.
var DefaultAirportCodes = []string{"KJPX", "JPX", "KHTO", "HTO"}

// Deriver resolves UTC operation times to the airport's local calendar.
type Deriver struct {
	Location *time.Location
	Curfew   flight.CurfewWindow
	Airports []string
}

// NewDeriver loads the time zone and returns a Deriver. Empty codes use
// DefaultAirportCodes.
func NewDeriver(timezone string, curfew flight.CurfewWindow, codes []string) (*Deriver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if len(codes) == 0 {
		codes = DefaultAirportCodes
	}
	upper := make([]string, 0, len(codes))
	for _, c := range codes {
		upper = append(upper, strings.ToUpper(strings.TrimSpace(c)))
	}
	return &Deriver{Location: loc, Curfew: curfew, Airports: upper}, nil
}

// IsAirport reports whether code names the configured airport.
func (d *Deriver) IsAirport(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false
	}
	for _, a := range d.Airports {
		if a == code {
			return true
		}
	}
	return false
}

// Apply fills the local date, hour, curfew and weekend fields of r from the
// UTC operation time.
func (d *Deriver) Apply(r *flight.Record, opTime time.Time) {
	local := opTime.In(d.Location)
	r.OperationDate = local.Format(flight.DateLayout)
	r.OperationHour = flight.FlexInt(local.Hour())
	r.IsCurfewPeriod = d.Curfew.Contains(local.Hour())
	wd := local.Weekday()
	r.IsWeekend = wd == time.Saturday || wd == time.Sunday
}

// ParseTimestamp parses an ISO 8601 timestamp. A trailing Z or an explicit
// offset are both accepted.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
