// Package main is the entry point for the MarkerTrack server.
//
// The server watches a directory for marker events written by a scanner,
// tracks live markers, and shows a popup the first time each marker
// appears. Popups are streamed to connected clients over WebSocket.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -dir /var/lib/markertrack/events
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
