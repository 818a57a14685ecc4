// Package severity defines the ordinal impact scale shared by the threshold
// and alert evaluators.
package severity

import (
	"fmt"
	"strings"
)

// Level is an impact rank: minimal < low < moderate < high < critical.
type Level string

const (
	Minimal  Level = "minimal"
	Low      Level = "low"
	Moderate Level = "moderate"
	High     Level = "high"
	Critical Level = "critical"
)

// Levels lists every level from lowest to highest rank.
var Levels = []Level{Minimal, Low, Moderate, High, Critical}

var rank = map[Level]int{
	Minimal:  0,
	Low:      1,
	Moderate: 2,
	High:     3,
	Critical: 4,
}

// Rank returns the integer rank of l. Unrecognised levels rank below Minimal.
func (l Level) Rank() int {
	if r, ok := rank[l]; ok {
		return r
	}
	return -1
}

// Valid reports whether l is one of the five known levels.
func (l Level) Valid() bool {
	_, ok := rank[l]
	return ok
}

// AtLeast reports whether l ranks at or above min.
func (l Level) AtLeast(min Level) bool {
	return l.Rank() >= min.Rank()
}

// Max returns the higher-ranked of a and b. Ties return a.
func Max(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Parse converts s to a Level, ignoring case and surrounding space.
func Parse(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return l, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so JSON and YAML inputs
// are validated on decode.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l), nil
}
