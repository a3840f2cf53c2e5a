// Package http provides HTTP handlers for the marker tracking REST API.
//
// Handlers depend on small read-only interfaces, never on mutable registry
// state; every response is built from copies.
//
// Endpoints:
//   - Health: / and /health
//   - Markers: /markers, /markers/:id
//   - Display: /popup
//   - Session: /session
//
// Example Usage:
//
//	handlers := http.NewHandlers(reg, ctrl, popup, hub, metrics)
//	router.GET("/markers", handlers.ListMarkers)
package http
