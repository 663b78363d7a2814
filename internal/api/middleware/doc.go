/*
Package middleware provides the gin middleware shared by every route.

  - CORS: gin-contrib/cors, any origin by default or a configured list
  - RateLimit / GlobalRateLimit: token buckets from golang.org/x/time/rate
  - RequestLogger: one zap line per request, tagged with the trace id
  - Recovery: panics become a JSON 500
  - BodyLimit: rejects oversized request bodies
*/
package middleware
