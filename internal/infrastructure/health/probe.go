package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrUnhealthy is returned when the endpoint answers with a non-200 status
var ErrUnhealthy = errors.New("service unhealthy")

// Config controls how hard the probe tries
type Config struct {
	Retries int
	MinWait time.Duration
	MaxWait time.Duration
	Timeout time.Duration
}

// DefaultConfig returns settings suited to a container health check
func DefaultConfig() Config {
	return Config{
		Retries: 3,
		MinWait: 200 * time.Millisecond,
		MaxWait: 2 * time.Second,
		Timeout: 3 * time.Second,
	}
}

// Report is the decoded body of a /health response
type Report struct {
	StatusCode int             `json:"-"`
	Status     string          `json:"status"`
	Database   json.RawMessage `json:"database,omitempty"`
	Uptime     string          `json:"uptime,omitempty"`
}

// Probe polls a health endpoint with retries
type Probe struct {
	client *retryablehttp.Client
	logger *logging.Logger
}

// NewProbe creates a probe. Only connection errors and 5xx responses other
// than 503 are retried; 503 means the service is up and reporting degraded.
func NewProbe(cfg Config, logger *logging.Logger) *Probe {
	logger = logging.OrNop(logger).Named("health")

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = cfg.MinWait
	client.RetryWaitMax = cfg.MaxWait
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil
	client.CheckRetry = checkRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debug("Retrying health check",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
			)
		}
	}

	return &Probe{client: client, logger: logger}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Check fetches url and returns the report. The error wraps ErrUnhealthy
// when the service answered with anything but 200.
func (p *Probe) Check(ctx context.Context, url string) (*Report, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectTraceContext(ctx, req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("Health check failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	report := &Report{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > 0 {
		// A body that is not a health report still yields a status code
		_ = sonic.Unmarshal(body, report)
	}

	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("%w: %s answered %d", ErrUnhealthy, url, resp.StatusCode)
	}
	return report, nil
}
