// Package noise estimates source noise levels for aircraft operations from a
// static table of certification-derived profiles.
package noise

import (
	"math"
	"strings"

	"jpx_compliance/internal/flight"
)

// Data sources for a profile.
const (
	SourceCertified        = "EASA_CERTIFIED"
	SourceCategoryEstimate = "CATEGORY_ESTIMATE"
)

// CertificationReferenceFt is the reference distance for profile levels.
const CertificationReferenceFt = 1000

// Profile holds LAmax levels at the 1000 ft reference distance.
type Profile struct {
	TypeCode   string          `json:"type_code"`
	Category   flight.Category `json:"category"`
	TakeoffDB  int             `json:"takeoff_db"`
	ApproachDB int             `json:"approach_db"`
	Source     string          `json:"data_source"`
	Confidence string          `json:"confidence"`
}

// ForDirection returns the level that applies to an operation direction:
// approach for arrivals, takeoff for everything else.
func (p Profile) ForDirection(d flight.Direction) int {
	if d == flight.Arrival {
		return p.ApproachDB
	}
	return p.TakeoffDB
}

// DefaultProfile is used when a type code is neither in the table nor
// classifiable into a category.
var DefaultProfile = Profile{
	TypeCode:   "UNKN",
	Category:   flight.Unknown,
	TakeoffDB:  80,
	ApproachDB: 76,
	Source:     SourceCategoryEstimate,
	Confidence: "low",
}

// categoryTakeoffDB holds category average takeoff levels. Approach levels
// are 4 dB lower.
var categoryTakeoffDB = map[flight.Category]int{
	flight.Helicopter: 84,
	flight.Jet:        88,
	flight.FixedWing:  76,
	flight.Unknown:    80,
}

func certified(code string, cat flight.Category, takeoff, approach int) Profile {
	return Profile{
		TypeCode:   code,
		Category:   cat,
		TakeoffDB:  takeoff,
		ApproachDB: approach,
		Source:     SourceCertified,
		Confidence: "high",
	}
}

// profiles covers the types most often seen at JPX.
var profiles = func() map[string]Profile {
	list := []Profile{
		// Helicopters
		certified("R22", flight.Helicopter, 76, 73),
		certified("R44", flight.Helicopter, 78, 75),
		certified("R66", flight.Helicopter, 80, 77),
		certified("EC35", flight.Helicopter, 84, 81),
		certified("H135", flight.Helicopter, 84, 81),
		certified("EC45", flight.Helicopter, 85, 82),
		certified("H145", flight.Helicopter, 85, 82),
		certified("AS50", flight.Helicopter, 83, 80),
		certified("B407", flight.Helicopter, 85, 82),
		certified("B429", flight.Helicopter, 84, 81),
		certified("A109", flight.Helicopter, 86, 83),
		certified("A139", flight.Helicopter, 89, 86),
		certified("S76", flight.Helicopter, 88, 85),
		certified("S92", flight.Helicopter, 90, 87),
		// Jets
		certified("GLF4", flight.Jet, 93, 89),
		certified("GLF5", flight.Jet, 92, 88),
		certified("GLF6", flight.Jet, 91, 87),
		certified("GLEX", flight.Jet, 90, 86),
		certified("CL35", flight.Jet, 86, 82),
		certified("CL60", flight.Jet, 89, 85),
		certified("C56X", flight.Jet, 86, 82),
		certified("C680", flight.Jet, 85, 81),
		certified("C525", flight.Jet, 82, 78),
		certified("E55P", flight.Jet, 85, 81),
		certified("FA7X", flight.Jet, 88, 84),
		certified("LJ45", flight.Jet, 89, 85),
		certified("PC24", flight.Jet, 84, 80),
		// Fixed wing
		certified("C172", flight.FixedWing, 74, 70),
		certified("C182", flight.FixedWing, 76, 72),
		certified("C208", flight.FixedWing, 79, 75),
		certified("SR22", flight.FixedWing, 76, 72),
		certified("PA28", flight.FixedWing, 73, 69),
		certified("PC12", flight.FixedWing, 80, 76),
		certified("B350", flight.FixedWing, 82, 78),
		certified("TBM9", flight.FixedWing, 79, 75),
	}
	m := make(map[string]Profile, len(list))
	for _, p := range list {
		m[p.TypeCode] = p
	}
	return m
}()

// Lookup returns the profile for an ICAO type code. Codes missing from the
// table fall back to the average for their category, and unclassifiable
// codes to DefaultProfile.
func Lookup(typeCode string) Profile {
	code := strings.ToUpper(strings.TrimSpace(typeCode))
	if p, ok := profiles[code]; ok {
		return p
	}

	cat := flight.Classify(code)
	if cat == flight.Unknown {
		p := DefaultProfile
		if code != "" {
			p.TypeCode = code
		}
		return p
	}

	takeoff := categoryTakeoffDB[cat]
	return Profile{
		TypeCode:   code,
		Category:   cat,
		TakeoffDB:  takeoff,
		ApproachDB: takeoff - 4,
		Source:     SourceCategoryEstimate,
		Confidence: "low",
	}
}

// EstimateDB returns the direction-aware source level for an operation.
func EstimateDB(r *flight.Record) int {
	return Lookup(r.AircraftType).ForDirection(r.Direction)
}

// AtAltitude estimates the ground level directly below an aircraft at
// altitudeFt, using inverse-square spreading from the reference distance.
// Altitudes below 100 ft are treated as 100 ft.
func AtAltitude(sourceDB float64, altitudeFt float64) float64 {
	attenuation := 20 * math.Log10(math.Max(altitudeFt, 100)/CertificationReferenceFt)
	db := sourceDB - attenuation
	return math.Max(0, math.Round(db*10)/10)
}
