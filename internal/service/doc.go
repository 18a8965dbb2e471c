// Package service runs the iBoost engine against a radio.
//
// A single goroutine selects over received packets and the poll ticker, so
// frame processing and data requests never interleave within the loop.
// Boost commands from the HTTP API call the engine directly and rely on its
// lock.
package service
