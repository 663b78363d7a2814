package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/database"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience/resiliencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downDialer struct{}

func (downDialer) Dial(ctx context.Context, uri string, onDisconnect func(*database.Conn)) (*database.Conn, error) {
	return nil, errors.New("connection refused")
}

func newTestServer(t *testing.T) (*Server, *resiliencetest.Scheduler) {
	t.Helper()
	return newTestServerWith(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = false
	})
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) (*Server, *resiliencetest.Scheduler) {
	t.Helper()

	cfg := config.Default()
	cfg.Logging.Development = true
	configure(cfg)

	sched := resiliencetest.New()
	srv, err := NewServer(cfg,
		WithLogger(logging.NewNop()),
		WithDialer(downDialer{}),
		WithScheduler(sched),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, sched
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServerNilConfig(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestServesWithoutDatabase(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusServiceUnavailable},
		{"/api/students", http.StatusServiceUnavailable},
		{"/api/faculties/64b7f0c2a1b2c3d4e5f60718", http.StatusServiceUnavailable},
		{"/api/courses/not-an-id", http.StatusBadRequest},
		{"/api/students/stats", http.StatusServiceUnavailable},
		{"/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(srv, httptest.NewRequest("GET", tt.path, http.NoBody))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHealthReflectsExhaustedRetries(t *testing.T) {
	srv, sched := newTestServer(t)

	srv.Manager().Connect(context.Background())
	sched.Advance(time.Minute)
	require.Equal(t, database.StateFailed, srv.Manager().State())

	w := serve(srv, httptest.NewRequest("GET", "/health", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"failed"`)
	assert.Contains(t, w.Body.String(), `"retries":3`)
}

func TestTraceHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, httptest.NewRequest("GET", "/", http.NoBody))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestBodyLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"name":"` + strings.Repeat("a", 2*1024*1024) + `"}`
	req := httptest.NewRequest("POST", "/api/faculties", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := serve(srv, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGlobalRateLimit(t *testing.T) {
	srv, _ := newTestServerWith(t, func(cfg *config.Config) {
		cfg.RateLimit.GlobalRequestsPerSecond = 1
		cfg.RateLimit.GlobalBurst = 2
	})

	codes := make([]int, 0, 3)
	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000", "10.0.0.3:1000"} {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.RemoteAddr = addr
		codes = append(codes, serve(srv, req).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestGlobalRateLimitOffByDefault(t *testing.T) {
	srv, _ := newTestServerWith(t, func(cfg *config.Config) {
		cfg.RateLimit.Burst = 10
	})

	for i, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000", "10.0.0.3:1000", "10.0.0.4:1000"} {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.RemoteAddr = addr
		assert.Equal(t, http.StatusOK, serve(srv, req).Code, "request %d", i+1)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	serve(srv, httptest.NewRequest("GET", "/", http.NoBody))

	w := serve(srv, httptest.NewRequest("GET", "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "campus_http_requests_total")
	assert.Contains(t, body, "campus_db_connection_state")
}

func TestMetricsCompressed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")

	w := serve(srv, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestShutdownClosesManager(t *testing.T) {
	srv, _ := newTestServer(t)

	require.NoError(t, srv.Shutdown(context.Background()))

	_, err := srv.Manager().Wait(context.Background())
	assert.ErrorIs(t, err, database.ErrClosed)
}
