// Package transit contains the normalized vehicle model shared by every
// agency adapter, the static line/direction tables, and the adapters that
// convert the agencies' upstream payloads into normalized records.
package transit

import (
	"fmt"
	"strings"
)

// Agency identifies a transit operator with its own upstream data format.
type Agency string

const (
	// AgencySTM is the Montreal transit operator (JSON REST upstream).
	AgencySTM Agency = "STM"
	// AgencySTL is the Laval transit operator (scraped HTML/XML upstream).
	AgencySTL Agency = "STL"
)

// Agencies lists every supported agency.
var Agencies = []Agency{AgencySTM, AgencySTL}

// ParseAgency converts a request path segment to an Agency.
func ParseAgency(s string) (Agency, error) {
	switch strings.ToUpper(s) {
	case string(AgencySTM):
		return AgencySTM, nil
	case string(AgencySTL):
		return AgencySTL, nil
	}
	return "", fmt.Errorf("unknown agency %q", s)
}

// Color returns the marker and trail color used for the agency on the map.
func (a Agency) Color() string {
	switch a {
	case AgencySTM:
		return "#FF9800"
	case AgencySTL:
		return "#EB3D3D"
	}
	return "#888888"
}

// Direction is the direction a bus line runs.
type Direction int

const (
	North Direction = iota
	East
	West
	South
)

// String returns the single letter identifier for the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case West:
		return "W"
	case South:
		return "S"
	}
	return "?"
}

// QueryCode returns the letter the upstream agencies expect in queries.
// Both agencies use French direction letters, so West is "O" (Ouest) on the
// wire while everything else matches String.
func (d Direction) QueryCode() string {
	if d == West {
		return "O"
	}
	return d.String()
}

// ParseDirection converts a request path segment to a Direction. The French
// "O" is accepted as an alias for West since that is what the original map
// clients send.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "N":
		return North, nil
	case "E":
		return East, nil
	case "W", "O":
		return West, nil
	case "S":
		return South, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
