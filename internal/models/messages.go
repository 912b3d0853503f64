package models

import "github.com/gridlab/board-agent/internal/constants"

// RegistrationRequest is the board registration message carried on the wire.
type RegistrationRequest struct {
	// BoardID is the unique identifier claimed by the board.
	BoardID uint32

	// Name is the human-readable board name. On the wire it is limited to
	// 31 UTF-8 bytes; longer names are truncated by the codec.
	Name string

	// BoardType is the board category (solar, wind, ...), limited to 16 bytes.
	BoardType string
}

// RegistrationResponse is the server's reply to a registration request.
type RegistrationResponse struct {
	Success bool
	Message string
}

// PowerReading is a single generation/consumption sample in whole units
// (e.g. watts). The codec converts to milli-unit integers for transport.
type PowerReading struct {
	BoardID     uint32
	Generation  float64
	Consumption float64
	Timestamp   int64
}

// PollStatus is the fixed-layout board status returned by the poll endpoint.
type PollStatus struct {
	Round                uint32
	Score                int32
	GameActive           bool
	ExpectingData        bool
	RoundType            constants.RoundType
	Timestamp            uint32
	Generation           float64
	Consumption          float64
	BuildingTableVersion uint32
}

// CoefficientSet carries the server-computed production coefficients and
// building consumption values for the current round.
type CoefficientSet struct {
	// Production maps source type to its current production coefficient.
	Production map[constants.SourceType]float64

	// Consumption maps building type to its current consumption in whole units.
	Consumption map[constants.BuildingType]float64
}

// Empty reports whether the set carries no values at all. Clients treat an
// empty set as "no change", never as "zero everything".
func (c CoefficientSet) Empty() bool {
	return len(c.Production) == 0 && len(c.Consumption) == 0
}

// ProductionReport declares one connected power plant and its set power.
type ProductionReport struct {
	PlantID  uint32
	SetPower float64
}

// BuildingTable is the versioned per-building-type consumption table.
type BuildingTable struct {
	Version uint32
	Entries map[constants.BuildingType]float64
}
