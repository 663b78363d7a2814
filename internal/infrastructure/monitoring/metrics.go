package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Database connection metrics
	DBConnectAttempts  *prometheus.CounterVec
	DBRetriesScheduled *prometheus.CounterVec
	DBDisconnects      prometheus.Counter
	DBState            prometheus.Gauge
	DBRetryCount       prometheus.Gauge

	// Document store metrics
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec

	startTime time.Time
}

// NewMetrics creates a metrics collector on its own registry, so several
// instances can coexist (one per test, for example).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Database connection metrics
		DBConnectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_db_connect_attempts_total",
				Help: "Database connection attempts by result",
			},
			[]string{"result"},
		),
		DBRetriesScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_db_retries_scheduled_total",
				Help: "Delayed connection attempts scheduled, by reason",
			},
			[]string{"reason"},
		),
		DBDisconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "campus_db_disconnects_total",
				Help: "Database disconnection events",
			},
		),
		DBState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_db_connection_state",
				Help: "Connection state: 0 disconnected, 1 connecting, 2 connected, 3 failed",
			},
		),
		DBRetryCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_db_retry_count",
				Help: "Consecutive connection failures since the last success",
			},
		),

		// Document store metrics
		StoreOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_store_operations_total",
				Help: "Document store operations",
			},
			[]string{"collection", "operation", "status"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_store_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"collection", "operation"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "campus_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordConnectAttempt records the outcome of one dial
func (m *Metrics) RecordConnectAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.DBConnectAttempts.WithLabelValues(result).Inc()
}

// RecordRetryScheduled records a delayed attempt; reason is "retry" or "reconnect"
func (m *Metrics) RecordRetryScheduled(reason string) {
	m.DBRetriesScheduled.WithLabelValues(reason).Inc()
}

// RecordDisconnect records a lost connection
func (m *Metrics) RecordDisconnect() {
	m.DBDisconnects.Inc()
}

// SetConnectionState publishes the connection state and retry count
func (m *Metrics) SetConnectionState(state int, retries int) {
	m.DBState.Set(float64(state))
	m.DBRetryCount.Set(float64(retries))
}

// RecordStoreOp records a document store operation
func (m *Metrics) RecordStoreOp(collection, operation, status string, duration time.Duration) {
	m.StoreOps.WithLabelValues(collection, operation, status).Inc()
	m.StoreDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}
