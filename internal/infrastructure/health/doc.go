// Package health probes the service's /health endpoint over HTTP.
//
// The probe retries connection errors with backoff and treats a 503 as a
// definitive "degraded" answer. cmd/healthcheck uses it as a container
// health check.
package health
