package protocol

import (
	"fmt"
)

// Control frame constructor for frames we send to the iBoost main unit.
// We impersonate a buddy unit, so the frames carry the buddy packet type.

// ControlFrameSize is the exact length of every outbound control frame
const ControlFrameSize = 29

// Control frame command bytes (offset 3)
const (
	CommandRequestData = 0x08 // Request group data
	CommandSetBoost    = 0x18 // Set boost time (0 minutes cancels)
)

// controlConstants are the fixed protocol bytes of a control frame
var controlConstants = map[int]byte{
	2:  PacketTypeBuddy,
	4:  0x92,
	5:  0x07,
	8:  0x24,
	10: 0xA0,
	11: 0xA0,
	14: 0xA0,
	15: 0xA0,
	16: 0xC8,
}

// Control frame offsets
const (
	offsetCommand     = 3
	offsetRequestCode = 12
	offsetBoostTime   = 17
)

// ControlAction selects what a control frame asks the main unit to do
type ControlAction int

const (
	ActionRequestData ControlAction = iota
	ActionBoostStart
	ActionBoostCancel
)

// String returns a human-readable action name
func (a ControlAction) String() string {
	switch a {
	case ActionRequestData:
		return "Request Data"
	case ActionBoostStart:
		return "Start Boost"
	case ActionBoostCancel:
		return "Cancel Boost"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseControlAction maps CLI/API names to actions
func ParseControlAction(s string) (ControlAction, error) {
	switch s {
	case "request", "request-data":
		return ActionRequestData, nil
	case "boost", "boost-start", "start":
		return ActionBoostStart, nil
	case "cancel", "boost-cancel":
		return ActionBoostCancel, nil
	default:
		return 0, fmt.Errorf("unknown control action %q (want request, boost or cancel)", s)
	}
}

// BuildControlFrame constructs a control frame for the system held in reg.
//
// Frame Structure:
//
//	[0-1]   addr           System address from the registry
//	[2]     0x21           Buddy packet type
//	[3]     command        0x08 request data, 0x18 set boost time
//	[4]     0x92
//	[5]     0x07
//	[8]     0x24
//	[10-11] 0xA0 0xA0
//	[12]    request code   Next code from cycle (request data only)
//	[14-15] 0xA0 0xA0
//	[16]    0xC8
//	[17]    minutes        Boost minutes (0 = cancel)
//
// Only ActionRequestData advances cycle. Remaining bytes are zero.
func BuildControlFrame(reg *AddressRegistry, cycle *RequestCycle, action ControlAction, boostMinutes uint8) ([]byte, error) {
	addr, ok := reg.Address()
	if !ok {
		return nil, &ProtocolError{
			Type:    ErrTypeNoAddress,
			Message: fmt.Sprintf("cannot build %s frame: waiting for system address discovery", action),
			Err:     ErrNoSystemAddress,
		}
	}

	frame := make([]byte, ControlFrameSize)
	frame[0] = addr[0]
	frame[1] = addr[1]
	for offset, value := range controlConstants {
		frame[offset] = value
	}

	switch action {
	case ActionRequestData:
		frame[offsetCommand] = CommandRequestData
		frame[offsetRequestCode] = byte(cycle.Next())
	case ActionBoostStart:
		frame[offsetCommand] = CommandSetBoost
		frame[offsetBoostTime] = boostMinutes
	case ActionBoostCancel:
		frame[offsetCommand] = CommandSetBoost
		frame[offsetBoostTime] = 0
	default:
		return nil, fmt.Errorf("unknown control action: %d", int(action))
	}

	return frame, nil
}

// ValidateControlFrame checks length and the fixed protocol bytes of an
// outbound frame. Used on the transmit path and by tests.
func ValidateControlFrame(frame []byte) error {
	if len(frame) != ControlFrameSize {
		return fmt.Errorf("control frame must be %d bytes, got %d", ControlFrameSize, len(frame))
	}

	for offset, want := range controlConstants {
		if frame[offset] != want {
			return fmt.Errorf("control frame byte %d = 0x%02x (expected 0x%02x)", offset, frame[offset], want)
		}
	}

	switch frame[offsetCommand] {
	case CommandRequestData:
		if !DataRequestCode(frame[offsetRequestCode]).Valid() {
			return fmt.Errorf("invalid data request code: 0x%02x", frame[offsetRequestCode])
		}
	case CommandSetBoost:
	default:
		return fmt.Errorf("unknown control command: 0x%02x", frame[offsetCommand])
	}

	return nil
}

// DescribeControlFrame returns a short description of an outbound frame for logs
func DescribeControlFrame(frame []byte) string {
	if len(frame) != ControlFrameSize {
		return fmt.Sprintf("Control{invalid len=%d}", len(frame))
	}
	addr := Address{frame[0], frame[1]}
	switch frame[offsetCommand] {
	case CommandRequestData:
		return fmt.Sprintf("Control{addr=%s, request=%s}", addr, DataRequestCode(frame[offsetRequestCode]))
	case CommandSetBoost:
		if frame[offsetBoostTime] == 0 {
			return fmt.Sprintf("Control{addr=%s, boost=cancel}", addr)
		}
		return fmt.Sprintf("Control{addr=%s, boost=%dmin}", addr, frame[offsetBoostTime])
	default:
		return fmt.Sprintf("Control{addr=%s, command=0x%02x}", addr, frame[offsetCommand])
	}
}

// ControlActionOf reports which action a control frame carries
func ControlActionOf(frame []byte) (ControlAction, bool) {
	if len(frame) != ControlFrameSize {
		return 0, false
	}
	switch frame[offsetCommand] {
	case CommandRequestData:
		return ActionRequestData, true
	case CommandSetBoost:
		if frame[offsetBoostTime] == 0 {
			return ActionBoostCancel, true
		}
		return ActionBoostStart, true
	default:
		return 0, false
	}
}
