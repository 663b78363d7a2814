/*
Package monitoring provides Prometheus metrics for the campus API.

# Overview

Metrics live on a private registry created by NewMetrics and are exposed by
Metrics.Handler. Three groups are tracked:

- HTTP requests (count, latency, request and response size) by route template
- Database connection lifecycle (attempts, scheduled retries, disconnects,
  current state and retry count)
- Document store operations by collection and operation

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", metrics.Handler())

	timer := monitoring.NewTimer(metrics, "students", "find")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring
