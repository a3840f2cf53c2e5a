// Package middleware provides HTTP middleware for the marker API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - GlobalRateLimit: One bucket shared by every client
//
// Rate Limiting:
//   - Per-IP limiters are dropped after ten idle minutes
//   - Token bucket algorithm (golang.org/x/time/rate)
//   - Configurable RPS and burst capacity
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestsPerSecond: 100, Burst: 200}))
package middleware
