// Package flight provides the aircraft operation record consumed by the
// compliance evaluators, plus the classification and curfew helpers used by
// the data layer to populate it.
package flight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for operation dates.
const DateLayout = "2006-01-02"

// Direction is the kind of operation relative to the airport.
type Direction string

const (
	Arrival   Direction = "arrival"
	Departure Direction = "departure"
)

// Category is the dashboard aircraft category.
type Category string

const (
	Helicopter Category = "helicopter"
	Jet        Category = "jet"
	FixedWing  Category = "fixed_wing"
	Unknown    Category = "unknown"
)

// Categories lists every category in display order.
var Categories = []Category{Helicopter, Jet, FixedWing, Unknown}

// Operator names that do not identify a real operator.
const (
	UnknownOperator = "Unknown"
	PrivateOperator = "Private"
)

// FlexInt handles JSON fields that can be either string or number.
// Strings that are not integers are rejected.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	// Try as number first
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*f = FlexInt(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flexint: %s is neither number nor string", data)
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("flexint: %w", err)
	}
	*f = FlexInt(i)
	return nil
}

// Record is one aircraft operation at the airport, already resolved to a
// local calendar date, local hour and curfew flag.
type Record struct {
	ID               string    `json:"fa_flight_id" csv:"fa_flight_id"`
	Ident            string    `json:"ident" csv:"ident"`
	Registration     string    `json:"registration" csv:"registration"`
	Operator         string    `json:"operator,omitempty" csv:"operator"`
	AircraftType     string    `json:"aircraft_type" csv:"aircraft_type"`
	AircraftCategory Category  `json:"aircraft_category" csv:"aircraft_category"`
	Direction        Direction `json:"direction" csv:"direction"`
	OperationDate    string    `json:"operation_date" csv:"operation_date"`
	OperationHour    FlexInt   `json:"operation_hour_et" csv:"operation_hour_et"`
	IsCurfewPeriod   bool      `json:"is_curfew_period" csv:"is_curfew_period"`
	IsWeekend        bool      `json:"is_weekend,omitempty" csv:"is_weekend"`
}

// OperatorName returns the operator, or "Unknown" when none was recorded.
func (r *Record) OperatorName() string {
	if op := strings.TrimSpace(r.Operator); op != "" {
		return op
	}
	return UnknownOperator
}

// ValidHour reports whether h is a clock hour, 0-23.
func ValidHour(h int) bool {
	return h >= 0 && h <= 23
}

// Hour returns the local operation hour.
func (r *Record) Hour() int {
	return int(r.OperationHour)
}

// DisplayIdent returns the ident, falling back to the registration.
func (r *Record) DisplayIdent() string {
	if r.Ident != "" {
		return r.Ident
	}
	return r.Registration
}

// Date parses the operation date. ok is false when it is missing or malformed.
func (r *Record) Date() (time.Time, bool) {
	return ParseDate(r.OperationDate)
}

// Month returns the calendar month (1-12) of the operation date, or 0 when
// the date cannot be parsed.
func (r *Record) Month() int {
	d, ok := r.Date()
	if !ok {
		return 0
	}
	return int(d.Month())
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsNamedOperator reports whether the operator identifies a real company
// rather than "Unknown" or "Private".
func IsNamedOperator(op string) bool {
	switch strings.TrimSpace(op) {
	case "", UnknownOperator, PrivateOperator:
		return false
	}
	return true
}
