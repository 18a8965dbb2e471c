// Package radio connects the protocol engine to a sub-GHz transceiver.
//
// Two drivers implement Radio:
//
//   - SerialBridge talks to a small MCU that owns the SX126x and exchanges
//     ASCII lines over a serial port (go.bug.st/serial).
//   - ReplayRadio plays back a JSONL capture and swallows transmissions.
//
// # Bridge Line Protocol
//
//	RX -71.5 1234220000...   device -> host, one received frame
//	TX 1234210892...         host -> device, frame to send
//	OK                       device -> host, frame sent
//	ERR busy                 device -> host, frame refused
//
// The bridge strips the radio length byte, so the hex payload starts at the
// first address byte. Lines that match none of these are logged and dropped.
package radio
