// Package capture records radio frames to JSON Lines files and reads them back.
//
// Each line holds one frame with its direction, RSSI, packet type and a hex
// dump. The daemon writes captures when capture_dir is configured; the
// replay radio and tools/analyze-captures.go read them.
//
//	{"timestamp":"2025-06-01T12:30:05Z","message_num":1,"direction":"rx","rssi":-71.5,
//	 "length":29,"packet_type":34,"type_name":"iBoost","hex":"1234220000...","ascii":"..."}
package capture
