// Package server assembles the Student Management API.
//
// Server Lifecycle:
//  1. Build the logger, metrics registry and tracer from configuration
//  2. Create the database connection manager and the typed stores
//  3. Install middleware (recovery, tracing, metrics, request log, CORS,
//     rate limit, body limit) and mount the routes
//  4. Run: start the first connection attempt in the background and listen
//  5. Shutdown: drain HTTP, close the manager, flush spans and logs
//
// The listener comes up even when MongoDB is down. Data routes answer 503
// until the manager reports a live handle.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server
