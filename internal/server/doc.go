// Package server implements the daemon's HTTP API.
//
// The API is a gin router exposing engine status, boost control, Prometheus
// metrics and a WebSocket stream of sensor updates.
//
// # Endpoints
//
//	GET    /health       liveness, uptime and version
//	GET    /api/status   engine status and the latest value of every sensor
//	POST   /api/boost    {"minutes": 1..255} starts a boost
//	DELETE /api/boost    cancels a running boost
//	GET    /metrics      Prometheus exposition
//	GET    /ws           WebSocket stream (snapshot, then one message per update)
//
// # Control Errors
//
// Boost requests map engine errors to statuses:
//   - 409 Conflict: no system address has been learned yet
//   - 503 Service Unavailable: no radio is configured
//   - 502 Bad Gateway: the radio refused or failed to send the frame
//
// # Usage Example
//
//	srv := server.New(server.Config{Listen: ":8080"}, svc.Engine(), store,
//	    server.WithMetrics(sink, registry),
//	)
//	ln, err := srv.Listen()
//	if err != nil {
//	    return err
//	}
//	return srv.Serve(ctx, ln)
//
// # Graceful Shutdown
//
// When the context passed to Serve ends the server stops accepting requests,
// sends a going-away close frame to every stream and waits for the stream
// goroutines to finish.
package server
