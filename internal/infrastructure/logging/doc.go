// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger and name themselves:
//
//	logger, err := logging.New(logging.Config{Service: "markertrack", Level: "info"})
//	ctrl := session.NewController(sensor, reg, popup, logger.Component("session"))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
