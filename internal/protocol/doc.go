// Package protocol implements the iBoost sub-GHz radio protocol.
//
// This package classifies frames heard from an iBoost solar diverter system,
// learns the system address from traffic, decodes the per-unit payloads and
// builds the control frames a paired main unit accepts. The radio itself,
// telemetry sinks and the clock are collaborators passed in as interfaces.
//
// # Protocol Overview
//
// Frames arrive without the length byte and are 10-62 bytes long:
//   - Bytes 0-1: System address (addr0, addr1)
//   - Byte 2: Packet type
//   - Bytes 3+: Payload specific to the sending unit
//
// # Packet Types
//
// Three units share the channel:
//   - 0x22 iBoost main unit: heater status, power, import and energy totals (>= 28 bytes)
//   - 0x21 Buddy: relay/display unit, carries no measurements (>= 28 bytes)
//   - 0x01 Sender: current-transformer clamp with a battery flag (>= 44 bytes)
//
// # Address Learning
//
// There is no pairing. The first accepted frame of any unit pins the system
// address. A buddy or sender frame heard with a strictly stronger RSSI
// replaces it, which lets a neighbour's system lose to our own. Main-unit
// frames never replace a pinned address; a mismatching one is dropped as
// foreign.
//
// # Control Frames
//
// Outbound frames are 29 bytes and impersonate a buddy unit:
//
//	[0-1] addr  [2] 0x21  [3] 0x08 request / 0x18 boost  [12] request code  [17] boost minutes
//
// Each poll requests one of five energy totals in a fixed rotation:
// today, yesterday, last 7 days, last 28 days, all time.
//
// # Usage Example
//
//	engine := protocol.NewEngine(
//	    protocol.WithTransmitter(radio),
//	    protocol.WithPublisher(store),
//	    protocol.WithClock(time.Now),
//	)
//	engine.PublishInitialState()
//
//	// For each received frame
//	reading, err := engine.Process(pkt.Data, pkt.RSSI)
//
//	// On each poll tick
//	if err := engine.RequestData(ctx); errors.Is(err, protocol.ErrNoSystemAddress) {
//	    // try again next tick
//	}
//
// # Error Handling
//
// Nothing here is fatal. Every failure drops one frame or one request:
//   - Malformed: too short, out of bounds, unknown type
//   - Foreign system: main-unit frame from another address
//   - No address: control frame requested before discovery
//   - Transmit: no radio configured, or the send failed
//
// All errors are *ProtocolError values that match a sentinel via errors.Is.
//
// # Thread Safety
//
// Engine methods are safe for concurrent use. AddressRegistry and
// RequestCycle are not; the Engine owns and serialises them.
package protocol
