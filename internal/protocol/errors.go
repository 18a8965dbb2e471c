package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a protocol failure
type ErrorType int

const (
	// ErrTypeMalformed indicates a frame that is too short or outside the length bounds
	ErrTypeMalformed ErrorType = iota
	// ErrTypeUnknownType indicates a frame with an unrecognised type byte
	ErrTypeUnknownType
	// ErrTypeForeignSystem indicates a main-unit frame from a different iBoost system
	ErrTypeForeignSystem
	// ErrTypeNoAddress indicates a control frame was requested before any system address was learned
	ErrTypeNoAddress
	// ErrTypeTransmit indicates the radio is missing or the send failed
	ErrTypeTransmit
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeMalformed:
		return "Malformed Frame"
	case ErrTypeUnknownType:
		return "Unknown Packet Type"
	case ErrTypeForeignSystem:
		return "Foreign System"
	case ErrTypeNoAddress:
		return "No System Address"
	case ErrTypeTransmit:
		return "Transmit Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinel errors for errors.Is checks. Every *ProtocolError matches the
// sentinel of its Type.
var (
	ErrFrameTooShort       = errors.New("frame too short to contain address and type")
	ErrFrameLength         = errors.New("frame outside protocol length bounds")
	ErrUnknownPacketType   = errors.New("unknown packet type")
	ErrForeignSystem       = errors.New("frame from a different iBoost system")
	ErrNoSystemAddress     = errors.New("no system address discovered yet")
	ErrTransmitUnavailable = errors.New("no radio configured for transmit")
)

// ProtocolError carries the classification and context of a dropped frame or request
type ProtocolError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	Length     int       // Frame length (if applicable)
	PacketType byte      // Type byte (if known)
	Err        error     // Underlying sentinel or cause
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err classifies a malformed or unknown frame
func IsMalformed(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Type == ErrTypeMalformed || pe.Type == ErrTypeUnknownType
	}
	return false
}

// ErrorTypeOf returns the ErrorType of err, and false if err is not a *ProtocolError
func ErrorTypeOf(err error) (ErrorType, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Type, true
	}
	return 0, false
}

func malformed(sentinel error, length int, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeMalformed,
		Message: fmt.Sprintf(format, args...),
		Length:  length,
		Err:     sentinel,
	}
}
