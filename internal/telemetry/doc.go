// Package telemetry receives decoded sensor values from the protocol engine.
//
// Store keeps the latest value per sensor for the HTTP API and TUI and
// streams updates to subscribers. PrometheusSink exports the same values
// together with frame, transmit and HTTP counters. Fanout feeds several
// sinks from the engine's single publisher slot.
//
//	store := telemetry.NewStore()
//	metrics, _ := telemetry.NewPrometheusSink(prometheus.DefaultRegisterer)
//	engine := protocol.NewEngine(protocol.WithPublisher(
//	    telemetry.Fanout{store, metrics, telemetry.LogSink{}},
//	))
//
// All publishers are non-blocking.
package telemetry
