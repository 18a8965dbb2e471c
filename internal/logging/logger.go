package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar selects the level when none is configured.
// Unset or empty keeps logging silent.
const LogLevelEnvVar = "IBOOST_LOG_LEVEL"

// Packet directions used by LogPacket
const (
	DirectionRX = "rx"
	DirectionTX = "tx"
)

// Radio frames are at most 62 bytes; anything longer is a bridge fault
const maxDumpBytes = 64

// Initialize installs the global logger at the given level. An empty level
// falls back to IBOOST_LOG_LEVEL, and to a no-op logger when that is unset.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	l, err := newConsoleLogger(ParseLevel(level))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// newConsoleLogger writes colored console lines to stderr; stdout carries
// command output.
func newConsoleLogger(level zapcore.Level) (*zap.Logger, error) {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	// Report the caller of Info/Debug/..., not this package
	return cfg.Build(zap.AddCallerSkip(1))
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger, a no-op until Initialize runs
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) { GetLogger().Info(msg, fields...) }

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) { GetLogger().Warn(msg, fields...) }

// Error logs an error message
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// LogStreamClient logs a WebSocket stream client event
func LogStreamClient(remoteAddr, event string) {
	Info("Stream client",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogHTTPRequest logs a served API request
func LogHTTPRequest(remoteAddr, method, path string, statusCode int) {
	Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
	)
}

// LogPacket logs a radio frame at debug level. rssi is ignored for TX.
func LogPacket(direction string, data []byte, rssi float64) {
	hexStr, _ := dump(data)
	fields := []zap.Field{
		zap.String("direction", direction),
		zap.Int("length", len(data)),
		zap.String("hex", hexStr),
	}
	if direction == DirectionRX {
		fields = append(fields, zap.Float64("rssi", rssi))
	}
	Debug("Radio packet", fields...)
}

// LogRawBytes logs bytes that did not come off the air, such as frames typed
// on the command line
func LogRawBytes(label string, data []byte) {
	hexStr, ascii := dump(data)
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexStr),
		zap.String("ascii", ascii),
	)
}

// dump renders data as hex and printable ASCII, truncated to maxDumpBytes
func dump(data []byte) (hexStr, ascii string) {
	truncated := len(data) > maxDumpBytes
	if truncated {
		data = data[:maxDumpBytes]
	}

	printable := make([]byte, len(data))
	for i, b := range data {
		if b < 32 || b > 126 {
			b = '.'
		}
		printable[i] = b
	}

	hexStr, ascii = hex.EncodeToString(data), string(printable)
	if truncated {
		hexStr += "..."
	}
	return hexStr, ascii
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
