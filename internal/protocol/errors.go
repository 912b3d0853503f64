package protocol

import "fmt"

// ErrorKind classifies codec failures so callers can decide between
// logging-and-retrying (truncation) and rejecting caller input (validation).
type ErrorKind int

const (
	// KindValidation marks malformed input handed to a pack call.
	KindValidation ErrorKind = iota

	// KindTruncation marks a buffer too short for the field being decoded.
	KindTruncation

	// KindOverflow marks a value that does not fit its wire representation.
	KindOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTruncation:
		return "truncation"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// ProtocolError is returned for every pack/unpack failure. It carries the
// field being processed and, for truncation, the expected and actual lengths
// so the caller can log enough context to diagnose a bad peer.
type ProtocolError struct {
	Kind     ErrorKind
	Field    string
	Expected int
	Actual   int
	Reason   string
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case KindTruncation:
		return fmt.Sprintf("protocol: truncated %s: need %d bytes, have %d", e.Field, e.Expected, e.Actual)
	case KindOverflow:
		return fmt.Sprintf("protocol: %s overflows int32 milli-units: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("protocol: invalid %s: %s", e.Field, e.Reason)
	}
}

func truncationError(field string, expected, actual int) *ProtocolError {
	return &ProtocolError{Kind: KindTruncation, Field: field, Expected: expected, Actual: actual}
}

func validationError(field, reason string) *ProtocolError {
	return &ProtocolError{Kind: KindValidation, Field: field, Reason: reason}
}

func overflowError(field string, value float64) *ProtocolError {
	return &ProtocolError{Kind: KindOverflow, Field: field, Reason: fmt.Sprintf("%g", value)}
}
