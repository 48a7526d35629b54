package domain

import (
	"fmt"
	"strings"
)

// FuelLevel is a quarter-tank reading taken at handoff and at return.
// Levels are ordered; comparisons use the ordinal value.
type FuelLevel int

const (
	FuelEmpty FuelLevel = iota
	FuelQuarter
	FuelHalf
	FuelThreeQuarters
	FuelFull
)

// String returns the display form used on check-in/check-out forms.
func (f FuelLevel) String() string {
	switch f {
	case FuelEmpty:
		return "EMPTY"
	case FuelQuarter:
		return "1/4"
	case FuelHalf:
		return "1/2"
	case FuelThreeQuarters:
		return "3/4"
	case FuelFull:
		return "FULL"
	default:
		return fmt.Sprintf("FuelLevel(%d)", int(f))
	}
}

// ParseFuelLevel parses a gauge reading submitted by a client.
func ParseFuelLevel(s string) (FuelLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EMPTY", "E", "0":
		return FuelEmpty, nil
	case "1/4", "QUARTER":
		return FuelQuarter, nil
	case "1/2", "HALF":
		return FuelHalf, nil
	case "3/4", "THREE_QUARTERS":
		return FuelThreeQuarters, nil
	case "FULL", "F":
		return FuelFull, nil
	default:
		return FuelEmpty, fmt.Errorf("unknown fuel level %q", s)
	}
}
