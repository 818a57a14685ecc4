package ingest

import (
	"bytes"
	"encoding/json"
	"strings"

	"jpx_compliance/internal/flight"
)

// RecordDecoder accepts records already resolved to the local calendar, as
// exported by the flights table.
type RecordDecoder struct{}

func (RecordDecoder) Name() string  { return "record" }
func (RecordDecoder) Priority() int { return 10 }

func (RecordDecoder) QuickCheck(line []byte) bool {
	return bytes.Contains(line, []byte(`"operation_date"`))
}

func (RecordDecoder) Decode(line []byte, _ *Deriver) *flight.Record {
	var r flight.Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil
	}
	if strings.TrimSpace(r.OperationDate) == "" || (r.ID == "" && r.Ident == "") {
		return nil
	}
	if !flight.ValidHour(r.Hour()) {
		return nil
	}
	Normalize(&r)
	return &r
}

// AeroAPIDecoder accepts raw FlightAware AeroAPI flight objects.
type AeroAPIDecoder struct{}

type aeroAirport struct {
	Code     string `json:"code"`
	CodeICAO string `json:"code_icao"`
	CodeIATA string `json:"code_iata"`
}

type aeroFlight struct {
	FaFlightID   string       `json:"fa_flight_id"`
	Ident        string       `json:"ident"`
	Registration string       `json:"registration"`
	AircraftType string       `json:"aircraft_type"`
	Operator     string       `json:"operator"`
	Origin       *aeroAirport `json:"origin"`
	Destination  *aeroAirport `json:"destination"`
	ScheduledOff string       `json:"scheduled_off"`
	ActualOff    string       `json:"actual_off"`
	ScheduledOn  string       `json:"scheduled_on"`
	ActualOn     string       `json:"actual_on"`
}

func (AeroAPIDecoder) Name() string  { return "aeroapi" }
func (AeroAPIDecoder) Priority() int { return 20 }

func (AeroAPIDecoder) QuickCheck(line []byte) bool {
	return bytes.Contains(line, []byte(`"fa_flight_id"`)) &&
		(bytes.Contains(line, []byte(`"origin"`)) || bytes.Contains(line, []byte(`"destination"`)))
}

func (AeroAPIDecoder) Decode(line []byte, d *Deriver) *flight.Record {
	if d == nil {
		return nil
	}
	var f aeroFlight
	if err := json.Unmarshal(line, &f); err != nil {
		return nil
	}

	var dir flight.Direction
	switch {
	case f.Destination != nil && d.matches(f.Destination):
		dir = flight.Arrival
	case f.Origin != nil && d.matches(f.Origin):
		dir = flight.Departure
	default:
		return nil
	}

	// Actual runway time, falling back to schedule.
	ts := f.ActualOff
	if ts == "" {
		ts = f.ScheduledOff
	}
	if dir == flight.Arrival {
		ts = f.ActualOn
		if ts == "" {
			ts = f.ScheduledOn
		}
	}
	opTime, ok := ParseTimestamp(ts)
	if !ok {
		return nil
	}

	r := &flight.Record{
		ID:           f.FaFlightID,
		Ident:        f.Ident,
		Registration: f.Registration,
		Operator:     f.Operator,
		AircraftType: f.AircraftType,
		Direction:    dir,
	}
	d.Apply(r, opTime)
	Normalize(r)
	return r
}

func (d *Deriver) matches(a *aeroAirport) bool {
	return d.IsAirport(a.Code) || d.IsAirport(a.CodeICAO) || d.IsAirport(a.CodeIATA)
}

// Normalize fills a missing or non-canonical category from the type code
// and upper-cases the type code.
func Normalize(r *flight.Record) {
	r.AircraftType = strings.ToUpper(strings.TrimSpace(r.AircraftType))
	cat := flight.ParseCategory(string(r.AircraftCategory))
	if cat == flight.Unknown {
		cat = flight.Classify(r.AircraftType)
	}
	r.AircraftCategory = cat
	r.Direction = flight.Direction(strings.ToLower(strings.TrimSpace(string(r.Direction))))
}
