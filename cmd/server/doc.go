// Package main is the entry point for the Student Management API server.
//
// The server exposes CRUD routes for faculties, students and courses backed
// by MongoDB. It starts listening immediately; the database connection is
// established in the background with bounded retries.
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	MONGODB_URI=mongodb://db:27017/students ./server -port 3000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
