// Package server wires the marker tracking service together.
//
// NewServer builds every component from configuration:
//   - Directory sensor, registry, session controller
//   - Popup display fanned out over the WebSocket hub
//   - Gin router with recovery, tracing, metrics, CORS and rate limiting
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger, metrics and tracer
//  3. Build the tracking pipeline and HTTP routes
//  4. Start tracking asynchronously; the HTTP API serves regardless
//  5. On shutdown stop tracking, close streams, drain HTTP
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
