package flight

import "strings"

// helicopterTypes are rotorcraft ICAO type designators. Helicopters are the
// primary noise concern at JPX.
var helicopterTypes = setOf(
	// Robinson
	"R22", "R44", "R66",
	// Airbus Helicopters
	"EC20", "EC25", "EC30", "EC35", "EC45", "EC55", "EC75",
	"AS32", "AS33", "AS35", "AS50", "AS55", "AS65",
	"H125", "H130", "H135", "H145", "H155", "H160", "H175", "H215", "H225",
	// Bell
	"B06", "B06T", "B204", "B205", "B206", "B209", "B212", "B214",
	"B222", "B230", "B407", "B412", "B427", "B429", "B430", "B505", "B525",
	// Sikorsky
	"S58", "S61", "S64", "S70", "S76", "S76B", "S76C", "S76D", "S92", "H60", "S300",
	// Leonardo
	"A109", "A119", "A139", "A149", "A169", "A189", "AW09", "AW39", "AW69", "AW89",
	// MD, Enstrom, Schweizer/Hughes
	"MD52", "MD60", "EXPL", "NOTR", "H369", "H500", "EN28", "EN48", "S269", "S333", "H269",
	"HELI",
)

// jetTypes are turbine fixed-wing designators (mostly business jets).
var jetTypes = setOf(
	// Gulfstream
	"GLF2", "GLF3", "GLF4", "GLF5", "GLF6", "GLEX", "G150", "G200",
	"G280", "G350", "G450", "G500", "G550", "G600", "G650", "G700", "G800",
	// Bombardier
	"CL30", "CL35", "CL60", "BD70", "GL5T", "GL6T", "GL7T",
	"LJ23", "LJ24", "LJ25", "LJ28", "LJ31", "LJ35", "LJ36",
	"LJ40", "LJ45", "LJ55", "LJ60", "LJ70", "LJ75",
	// Cessna Citation
	"C500", "C501", "C510", "C525", "C526", "C550", "C551", "C560",
	"C56X", "C650", "C680", "C700", "C750",
	// Dassault Falcon
	"FA10", "FA20", "FA50", "FA7X", "FA8X", "F900", "F2TH", "FA6X",
	// Embraer
	"E135", "E145", "E170", "E190", "E195", "E50P", "E55P", "E35L", "E545", "E550",
	"PC24", "HDJT", "EA50", "SF50", "PRM1", "H25A", "H25B", "H25C",
	"AJET",
)

// fixedWingTypes are piston and turboprop designators common at GA airports.
var fixedWingTypes = setOf(
	// Cessna
	"C150", "C152", "C170", "C172", "C177", "C180", "C182", "C185",
	"C206", "C207", "C210", "C310", "C320", "C337", "C340", "C402", "C414",
	"C208", "C441",
	// Piper
	"P28A", "P28B", "P28R", "P28T", "PA18", "PA22", "PA23", "PA24",
	"PA27", "PA28", "PA30", "PA31", "PA32", "PA34", "PA38", "PA44", "PA46", "PA60",
	// Beechcraft
	"BE33", "BE35", "BE36", "BE55", "BE58", "BE76", "BE9L", "BE20", "BE30",
	"B200", "B300", "B350",
	// Mooney, Cirrus, Diamond
	"M20J", "M20K", "M20P", "M20R", "M20T", "M20U",
	"SR20", "SR22",
	"DA20", "DA40", "DA42", "DA50", "DA62",
	// Pilatus, Daher, de Havilland
	"PC12", "TBM", "TBM7", "TBM8", "TBM9", "DHC2", "DHC3", "DHC6",
)

func setOf(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// Classify maps an ICAO aircraft type designator to a dashboard category.
// Unrecognised or empty codes are Unknown.
func Classify(typeCode string) Category {
	code := strings.ToUpper(strings.TrimSpace(typeCode))
	switch {
	case code == "":
		return Unknown
	case helicopterTypes[code]:
		return Helicopter
	case jetTypes[code]:
		return Jet
	case fixedWingTypes[code]:
		return FixedWing
	}
	return Unknown
}

// ParseCategory normalises a category string. Anything unrecognised is Unknown.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Helicopter, Jet, FixedWing:
		return c
	}
	return Unknown
}

// CurfewWindow is a local-time hour window [StartHour, EndHour) that wraps
// past midnight when StartHour > EndHour.
type CurfewWindow struct {
	StartHour int `json:"start_hour" yaml:"start_hour"`
	EndHour   int `json:"end_hour" yaml:"end_hour"`
}

// DefaultCurfew is the voluntary JPX curfew, 9 PM to 7 AM local.
var DefaultCurfew = CurfewWindow{StartHour: 21, EndHour: 7}

// Contains reports whether hour falls within the window.
func (w CurfewWindow) Contains(hour int) bool {
	return HourInWindow(hour, w.StartHour, w.EndHour)
}

// HourInWindow reports whether hour is in [start, end), wrapping past
// midnight when start > end. start == end is an empty window. Hours outside
// 0-23 are never in a window.
func HourInWindow(hour, start, end int) bool {
	if !ValidHour(hour) {
		return false
	}
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
