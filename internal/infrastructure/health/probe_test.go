package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Retries: 2,
		MinWait: time.Millisecond,
		MaxWait: 5 * time.Millisecond,
		Timeout: time.Second,
	}
}

func TestCheckHealthy(t *testing.T) {
	traceIDs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceIDs <- r.Header.Get(tracing.TraceHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","database":{"state":"connected"},"uptime":"5s"}`))
	}))
	defer srv.Close()

	ctx := tracing.WithTrace(context.Background(), "trace-1", "span-1")
	report, err := NewProbe(testConfig(), nil).Check(ctx, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, report.StatusCode)
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "5s", report.Uptime)
	assert.JSONEq(t, `{"state":"connected"}`, string(report.Database))
	assert.Equal(t, "trace-1", <-traceIDs)
}

func TestCheckDegradedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	report, err := NewProbe(testConfig(), nil).Check(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhealthy)
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCheckRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	report, err := NewProbe(testConfig(), nil).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewProbe(testConfig(), nil).Check(context.Background(), url)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnhealthy)
}

func TestCheckNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	report, err := NewProbe(testConfig(), nil).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, report.StatusCode)
	assert.Empty(t, report.Status)
}
