// Package protocol implements the binary wire format spoken between boards
// and the CoreAPI service. All multi-byte integers are big-endian and all
// power and coefficient quantities travel as signed 32-bit integers scaled
// by 1000 (milli-units) to avoid floating-point serialization.
//
// Every function here is pure and stateless; pack/unpack calls are safe to
// issue from any number of goroutines without synchronization.
package protocol

import (
	"encoding/binary"
	"math"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/models"
)

// Fixed wire sizes in bytes.
const (
	boardNameField = 32 // 31 usable bytes plus a null terminator
	boardTypeField = 17 // 16 usable bytes plus a null terminator
	messageField   = 64

	RegistrationRequestSize  = 4 + boardNameField + boardTypeField
	RegistrationResponseSize = 1 + messageField
	PowerDataSize            = 16
	PowerValuesSize          = 8
	PollStatusSize           = 27

	coefficientEntrySize = 5
	productionEntrySize  = 8
	consumptionEntrySize = 4
	buildingEntrySize    = 5

	milliScale = 1000
)

// MaxListEntries caps every count-prefixed list; the prefix is a single byte.
const MaxListEntries = 255

// toMilli converts a whole-unit quantity to its int32 milli-unit wire form.
// Values whose scaled magnitude cannot be represented fail with an overflow
// error rather than silently wrapping.
func toMilli(field string, value float64) (int32, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, validationError(field, "value is not a finite number")
	}
	scaled := math.Round(value * milliScale)
	if scaled > math.MaxInt32 || scaled < math.MinInt32 {
		return 0, overflowError(field, value)
	}
	return int32(scaled), nil
}

// fromMilli converts an int32 milli-unit wire value back to whole units.
func fromMilli(value int32) float64 {
	return float64(value) / milliScale
}

// putPaddedString writes s into a fixed-width null-padded field, truncating
// to width-1 bytes so the terminator always survives. It returns the number
// of bytes of s actually written, so callers can observe truncation.
func putPaddedString(dst []byte, s string, width int) int {
	raw := []byte(s)
	n := len(raw)
	if n > width-1 {
		n = width - 1
	}
	copy(dst[:n], raw[:n])
	for i := n; i < width; i++ {
		dst[i] = 0
	}
	return n
}

// paddedString reads a null-padded fixed-width string field.
func paddedString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

// PackRegistrationRequest encodes a registration request into its fixed
// 53-byte frame. Names longer than 31 bytes and types longer than 16 bytes
// are truncated, not rejected; embedded clients with hard frame limits must
// always be able to register. The second return value is the number of name
// bytes written so callers can log when truncation happened.
func PackRegistrationRequest(boardID uint32, name, boardType string) ([]byte, int) {
	buf := make([]byte, RegistrationRequestSize)
	binary.BigEndian.PutUint32(buf[0:4], boardID)
	written := putPaddedString(buf[4:4+boardNameField], name, boardNameField)
	putPaddedString(buf[4+boardNameField:], boardType, boardTypeField)
	return buf, written
}

// UnpackRegistrationRequest decodes a registration request frame.
func UnpackRegistrationRequest(data []byte) (models.RegistrationRequest, error) {
	if len(data) < RegistrationRequestSize {
		return models.RegistrationRequest{}, truncationError("registration request", RegistrationRequestSize, len(data))
	}
	return models.RegistrationRequest{
		BoardID:   binary.BigEndian.Uint32(data[0:4]),
		Name:      paddedString(data[4 : 4+boardNameField]),
		BoardType: paddedString(data[4+boardNameField : RegistrationRequestSize]),
	}, nil
}

// PackRegistrationResponse encodes a success flag and a short status message.
// Messages longer than 63 bytes are truncated.
func PackRegistrationResponse(success bool, message string) []byte {
	buf := make([]byte, RegistrationResponseSize)
	if success {
		buf[0] = 1
	}
	putPaddedString(buf[1:], message, messageField)
	return buf
}

// UnpackRegistrationResponse decodes the server's registration reply.
func UnpackRegistrationResponse(data []byte) (models.RegistrationResponse, error) {
	if len(data) < RegistrationResponseSize {
		return models.RegistrationResponse{}, truncationError("registration response", RegistrationResponseSize, len(data))
	}
	return models.RegistrationResponse{
		Success: data[0] != 0,
		Message: paddedString(data[1:RegistrationResponseSize]),
	}, nil
}

// PackPowerData encodes a full power reading: board id, generation and
// consumption in milli-units and a Unix timestamp. Negative timestamps are
// rejected; zero is accepted and left to the caller's clock discipline.
func PackPowerData(reading models.PowerReading) ([]byte, error) {
	if reading.Timestamp < 0 {
		return nil, validationError("timestamp", "must not be negative")
	}
	if reading.Timestamp > math.MaxUint32 {
		return nil, validationError("timestamp", "does not fit in 32 bits")
	}
	gen, err := toMilli("generation", reading.Generation)
	if err != nil {
		return nil, err
	}
	cons, err := toMilli("consumption", reading.Consumption)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, PowerDataSize)
	binary.BigEndian.PutUint32(buf[0:4], reading.BoardID)
	binary.BigEndian.PutUint32(buf[4:8], uint32(gen))
	binary.BigEndian.PutUint32(buf[8:12], uint32(cons))
	binary.BigEndian.PutUint32(buf[12:16], uint32(reading.Timestamp))
	return buf, nil
}

// UnpackPowerData decodes a power reading frame.
func UnpackPowerData(data []byte) (models.PowerReading, error) {
	if len(data) < PowerDataSize {
		return models.PowerReading{}, truncationError("power data", PowerDataSize, len(data))
	}
	return models.PowerReading{
		BoardID:     binary.BigEndian.Uint32(data[0:4]),
		Generation:  fromMilli(int32(binary.BigEndian.Uint32(data[4:8]))),
		Consumption: fromMilli(int32(binary.BigEndian.Uint32(data[8:12]))),
		Timestamp:   int64(binary.BigEndian.Uint32(data[12:16])),
	}, nil
}

// PackPowerValues encodes the compact 8-byte generation/consumption pair used
// by the periodic post_vals cycle, where the board identity rides in the
// session token instead of the frame.
func PackPowerValues(generation, consumption float64) ([]byte, error) {
	gen, err := toMilli("generation", generation)
	if err != nil {
		return nil, err
	}
	cons, err := toMilli("consumption", consumption)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, PowerValuesSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(gen))
	binary.BigEndian.PutUint32(buf[4:8], uint32(cons))
	return buf, nil
}

// UnpackPollResponse decodes the fixed-layout board status frame.
func UnpackPollResponse(data []byte) (models.PollStatus, error) {
	if len(data) < PollStatusSize {
		return models.PollStatus{}, truncationError("poll response", PollStatusSize, len(data))
	}
	return models.PollStatus{
		Round:                binary.BigEndian.Uint32(data[0:4]),
		Score:                int32(binary.BigEndian.Uint32(data[4:8])),
		GameActive:           data[8] != 0,
		ExpectingData:        data[9] != 0,
		RoundType:            constants.RoundType(data[10]),
		Timestamp:            binary.BigEndian.Uint32(data[11:15]),
		Generation:           fromMilli(int32(binary.BigEndian.Uint32(data[15:19]))),
		Consumption:          fromMilli(int32(binary.BigEndian.Uint32(data[19:23]))),
		BuildingTableVersion: binary.BigEndian.Uint32(data[23:27]),
	}, nil
}

// UnpackPoll decodes a complete poll body: the fixed status frame followed
// by the variable coefficient payload.
func UnpackPoll(data []byte) (models.PollStatus, models.CoefficientSet, error) {
	status, err := UnpackPollResponse(data)
	if err != nil {
		return models.PollStatus{}, models.CoefficientSet{}, err
	}
	set, err := UnpackCoefficients(data[PollStatusSize:])
	if err != nil {
		return models.PollStatus{}, models.CoefficientSet{}, err
	}
	return status, set, nil
}

// PackCoefficients encodes the round coefficient payload: a count-prefixed
// list of (source, coefficient) pairs followed by a count-prefixed list of
// (building, consumption) pairs.
func PackCoefficients(set models.CoefficientSet) ([]byte, error) {
	if len(set.Production) > MaxListEntries {
		return nil, validationError("production count", "exceeds 255 entries")
	}
	if len(set.Consumption) > MaxListEntries {
		return nil, validationError("consumption count", "exceeds 255 entries")
	}

	buf := make([]byte, 0, 2+len(set.Production)*coefficientEntrySize+len(set.Consumption)*coefficientEntrySize)
	buf = append(buf, byte(len(set.Production)))
	for source, coeff := range set.Production {
		milli, err := toMilli("production coefficient", coeff)
		if err != nil {
			return nil, err
		}
		buf = append(buf, byte(source))
		buf = binary.BigEndian.AppendUint32(buf, uint32(milli))
	}
	buf = append(buf, byte(len(set.Consumption)))
	for building, cons := range set.Consumption {
		milli, err := toMilli("building consumption", cons)
		if err != nil {
			return nil, err
		}
		buf = append(buf, byte(building))
		buf = binary.BigEndian.AppendUint32(buf, uint32(milli))
	}
	return buf, nil
}

// UnpackCoefficients decodes the round coefficient payload. A count prefix
// that promises more entries than the buffer holds fails outright; no partial
// maps are ever returned.
func UnpackCoefficients(data []byte) (models.CoefficientSet, error) {
	if len(data) < 1 {
		return models.CoefficientSet{}, truncationError("production count", 1, 0)
	}

	offset := 0
	prodCount := int(data[offset])
	offset++
	if len(data) < offset+prodCount*coefficientEntrySize {
		return models.CoefficientSet{}, truncationError("production coefficients", offset+prodCount*coefficientEntrySize, len(data))
	}

	set := models.CoefficientSet{
		Production:  make(map[constants.SourceType]float64, prodCount),
		Consumption: map[constants.BuildingType]float64{},
	}
	for i := 0; i < prodCount; i++ {
		source := constants.SourceType(data[offset])
		milli := int32(binary.BigEndian.Uint32(data[offset+1 : offset+5]))
		set.Production[source] = fromMilli(milli)
		offset += coefficientEntrySize
	}

	if len(data) < offset+1 {
		return models.CoefficientSet{}, truncationError("consumption count", offset+1, len(data))
	}
	consCount := int(data[offset])
	offset++
	if len(data) < offset+consCount*coefficientEntrySize {
		return models.CoefficientSet{}, truncationError("building consumptions", offset+consCount*coefficientEntrySize, len(data))
	}
	for i := 0; i < consCount; i++ {
		building := constants.BuildingType(data[offset])
		milli := int32(binary.BigEndian.Uint32(data[offset+1 : offset+5]))
		set.Consumption[building] = fromMilli(milli)
		offset += coefficientEntrySize
	}
	return set, nil
}

// PackConnectedProduction encodes the connected power plant report: one byte
// of count followed by (plant id, set power) records.
func PackConnectedProduction(plants []models.ProductionReport) ([]byte, error) {
	if len(plants) > MaxListEntries {
		return nil, validationError("plant count", "exceeds 255 entries")
	}
	buf := make([]byte, 0, 1+len(plants)*productionEntrySize)
	buf = append(buf, byte(len(plants)))
	for _, plant := range plants {
		milli, err := toMilli("set power", plant.SetPower)
		if err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint32(buf, plant.PlantID)
		buf = binary.BigEndian.AppendUint32(buf, uint32(milli))
	}
	return buf, nil
}

// UnpackConnectedProduction decodes a connected power plant report.
func UnpackConnectedProduction(data []byte) ([]models.ProductionReport, error) {
	if len(data) < 1 {
		return nil, truncationError("plant count", 1, 0)
	}
	count := int(data[0])
	if len(data) < 1+count*productionEntrySize {
		return nil, truncationError("plant records", 1+count*productionEntrySize, len(data))
	}
	plants := make([]models.ProductionReport, 0, count)
	for i := 0; i < count; i++ {
		offset := 1 + i*productionEntrySize
		plants = append(plants, models.ProductionReport{
			PlantID:  binary.BigEndian.Uint32(data[offset : offset+4]),
			SetPower: fromMilli(int32(binary.BigEndian.Uint32(data[offset+4 : offset+8]))),
		})
	}
	return plants, nil
}

// PackConnectedConsumption encodes the connected consumer report: one byte of
// count followed by consumer ids.
func PackConnectedConsumption(consumers []uint32) ([]byte, error) {
	if len(consumers) > MaxListEntries {
		return nil, validationError("consumer count", "exceeds 255 entries")
	}
	buf := make([]byte, 0, 1+len(consumers)*consumptionEntrySize)
	buf = append(buf, byte(len(consumers)))
	for _, id := range consumers {
		buf = binary.BigEndian.AppendUint32(buf, id)
	}
	return buf, nil
}

// UnpackConnectedConsumption decodes a connected consumer report.
func UnpackConnectedConsumption(data []byte) ([]uint32, error) {
	if len(data) < 1 {
		return nil, truncationError("consumer count", 1, 0)
	}
	count := int(data[0])
	if len(data) < 1+count*consumptionEntrySize {
		return nil, truncationError("consumer records", 1+count*consumptionEntrySize, len(data))
	}
	consumers := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		offset := 1 + i*consumptionEntrySize
		consumers = append(consumers, binary.BigEndian.Uint32(data[offset:offset+4]))
	}
	return consumers, nil
}

// PackBuildingTable encodes the versioned per-building consumption table.
func PackBuildingTable(table models.BuildingTable) ([]byte, error) {
	if len(table.Entries) > MaxListEntries {
		return nil, validationError("building count", "exceeds 255 entries")
	}
	buf := make([]byte, 0, 5+len(table.Entries)*buildingEntrySize)
	buf = binary.BigEndian.AppendUint32(buf, table.Version)
	buf = append(buf, byte(len(table.Entries)))
	for building, cons := range table.Entries {
		milli, err := toMilli("building consumption", cons)
		if err != nil {
			return nil, err
		}
		buf = append(buf, byte(building))
		buf = binary.BigEndian.AppendUint32(buf, uint32(milli))
	}
	return buf, nil
}

// UnpackBuildingTable decodes the versioned building table. The version is a
// monotonically increasing integer boards compare against the version carried
// in poll responses to detect staleness without re-fetching.
func UnpackBuildingTable(data []byte) (models.BuildingTable, error) {
	if len(data) < 5 {
		return models.BuildingTable{}, truncationError("building table header", 5, len(data))
	}
	version := binary.BigEndian.Uint32(data[0:4])
	count := int(data[4])
	if len(data) < 5+count*buildingEntrySize {
		return models.BuildingTable{}, truncationError("building table entries", 5+count*buildingEntrySize, len(data))
	}
	table := models.BuildingTable{
		Version: version,
		Entries: make(map[constants.BuildingType]float64, count),
	}
	for i := 0; i < count; i++ {
		offset := 5 + i*buildingEntrySize
		building := constants.BuildingType(data[offset])
		milli := int32(binary.BigEndian.Uint32(data[offset+1 : offset+5]))
		table.Entries[building] = fromMilli(milli)
	}
	return table, nil
}
