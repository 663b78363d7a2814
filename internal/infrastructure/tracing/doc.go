/*
Package tracing provides lightweight request tracing.

Every request gets a span. The trace id is taken from the X-Trace-ID header
when present, otherwise a new UUID is generated; both ids are echoed back in
the response headers. Finished spans are logged by a background collector,
at debug level unless the request failed.

# Usage

	tracer := tracing.New("campus-api", logger.Logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Outgoing requests carry the current trace
	tracing.InjectTraceContext(ctx, req.Header)
*/
package tracing
