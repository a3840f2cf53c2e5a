/*
Package monitoring provides metrics collection for the marker tracking backend.

# Overview

This package implements Prometheus-based metrics collection, tracking HTTP
requests, sensor events, display notifications and the session controller
state. Every Metrics value owns its own prometheus.Registry, so several
instances can coexist in one process (tests construct one per case).

# Features

- HTTP request metrics (latency, status codes)
- Marker metrics (tracked gauge, events by kind, displays, rejected content)
- Session controller state gauge
- WebSocket connection metrics
- Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.Handler(metrics))

	manager := registry.NewManager().WithMetrics(metrics)
*/
package monitoring
