// Package ui provides terminal output for the iboost-buddy CLI.
//
// Two styles of output live here. One-shot commands such as decode, encode
// and boost print a Header followed by a Result box through a Printer. The
// run command can instead open a live MonitorModel, a Bubble Tea program
// that follows the telemetry store and offers boost keys.
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Frame Decode", "iboost-buddy decode", params)
//	p.PrintReading(reading)
//
// The monitor needs a Feed (the telemetry store satisfies it) and an
// optional Controller for the boost keys:
//
//	err := ui.RunMonitor(ctx, store, svc.Engine(), os.Stdout)
//
// # Logging Integration
//
// Logging is silent unless IBOOST_LOG_LEVEL is set, so the curated output
// is not interleaved with zap lines. The monitor should only run when
// stdout is a terminal; see IsTerminal.
package ui
