// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every long-lived component takes a *Logger and derives a named child
// (logger.Named("database")). A nil *Logger is tolerated by Named, With and
// OrNop, which fall back to a no-op logger.
//
// Example Usage:
//
//	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Server starting", zap.String("port", "3000"))
//	logger.Error("Failed to connect", zap.Error(err))
package logging
