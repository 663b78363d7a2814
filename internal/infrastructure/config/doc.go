// Package config provides 12-factor configuration management for the campus API.
//
// Configuration is loaded from environment variables with sensible defaults.
// Binaries load a .env file (if present) before calling Load.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Database: MongoDB URI, server selection timeout, retry policy
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: Allowed origins
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - MONGODB_URI, DB_SERVER_SELECTION_TIMEOUT, DB_MAX_RETRIES,
//     DB_RETRY_DELAY, DB_RECONNECT_DELAY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - RATE_LIMIT_GLOBAL_RPS, RATE_LIMIT_GLOBAL_BURST (0 disables the global cap)
//   - CORS_ORIGINS (comma separated)
package config
