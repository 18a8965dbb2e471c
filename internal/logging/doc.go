// Package logging provides structured logging for the iBoost buddy.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used by the radio engine and its outer surfaces.
//
// # Log Levels
//
//   - Debug: Hex dumps, rejected frames, every transmitted control frame
//   - Info: Address capture, service start and stop, HTTP requests
//   - Warn: Frames from a foreign system, unknown packet types, status warnings
//   - Error: Transmission failures, missing radio
//
// # Structured Logging
//
//	logging.Info("RX: System address captured from Buddy",
//	    zap.String("address", "1234"),
//	    zap.Float64("rssi", -71.5),
//	)
//
// # Radio Logging
//
//	logging.LogPacket(logging.DirectionRX, frame, rssi)
//	logging.LogPacket(logging.DirectionTX, frame, 0)
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// IBOOST_LOG_LEVEL:
//
//	if err := logging.Initialize(cfg.LogLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
