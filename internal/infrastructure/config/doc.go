// Package config provides 12-factor configuration management for the marker
// tracking backend.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sensor: Drop directory watched by the directory sensor
//   - Display: Per-client WebSocket send buffer
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Environment Variables:
//   - PORT, HOST
//   - SENSOR_DIR, SENSOR_CONSUME
//   - DISPLAY_BUFFER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
