package protocol

import (
	"fmt"
)

// Frame size limits. The radio strips the length byte, so every size below
// counts from the first address byte.
const (
	MinHeaderSize = 3  // addr0 + addr1 + packet type
	MinFrameSize  = 10 // Shortest frame any iBoost unit sends
	MaxFrameSize  = 62 // Longest frame the SX126x FIFO configuration delivers

	MinMainFrameSize   = 28 // iBoost main unit status frame
	MinBuddyFrameSize  = 28 // Buddy frame (29 bytes on air)
	MinSenderFrameSize = 44 // Sender CT clamp frame
)

// Packet type identifiers (byte 2 of every frame)
const (
	PacketTypeSender = 0x01 // Sender current-transformer unit
	PacketTypeBuddy  = 0x21 // Buddy relay/bridge unit; also used for our control frames
	PacketTypeMain   = 0x22 // iBoost main unit
)

// Role identifies which physical unit sent a frame
type Role int

const (
	RoleMain Role = iota
	RoleBuddy
	RoleSender
)

// String returns the unit name used in logs and sensor names
func (r Role) String() string {
	switch r {
	case RoleMain:
		return "iboost"
	case RoleBuddy:
		return "buddy"
	case RoleSender:
		return "sender"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// InboundFrame is a frame that passed length validation
type InboundFrame struct {
	Address Address // Candidate system address (bytes 0-1)
	Type    byte    // Packet type discriminator (byte 2)
	Raw     []byte  // Complete frame, starting at addr0
}

// Len returns the frame length in bytes
func (f *InboundFrame) Len() int {
	return len(f.Raw)
}

// String returns a debug representation of the frame
func (f *InboundFrame) String() string {
	return fmt.Sprintf("Frame{addr=%s, type=%s, len=%d}",
		f.Address, GetPacketTypeName(f.Type), len(f.Raw))
}

// ValidateFrame checks the length bounds of a received frame and extracts
// its address and type byte. It has no side effects.
func ValidateFrame(data []byte) (*InboundFrame, error) {
	if len(data) < MinHeaderSize {
		return nil, malformed(ErrFrameTooShort, len(data),
			"frame too short: %d bytes (minimum %d)", len(data), MinHeaderSize)
	}

	if len(data) < MinFrameSize || len(data) > MaxFrameSize {
		return nil, malformed(ErrFrameLength, len(data),
			"invalid frame length: %d bytes (allowed %d-%d)", len(data), MinFrameSize, MaxFrameSize)
	}

	return &InboundFrame{
		Address: Address{data[0], data[1]},
		Type:    data[2],
		Raw:     data,
	}, nil
}

// GetPacketTypeName returns a human-readable name for a packet type
func GetPacketTypeName(packetType byte) string {
	switch packetType {
	case PacketTypeSender:
		return "Sender"
	case PacketTypeBuddy:
		return "Buddy"
	case PacketTypeMain:
		return "iBoost"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", packetType)
	}
}
