package database

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultURI is dialed when Settings.URI is empty.
const DefaultURI = "mongodb://localhost:27017/students"

// Settings configures the connection manager
type Settings struct {
	URI            string
	MaxRetries     int
	RetryDelay     time.Duration
	ReconnectDelay time.Duration

	// OnStateChange is called with the manager lock held and must not call
	// back into the Manager.
	OnStateChange func(from, to State)
}

// DefaultSettings returns the documented retry policy
func DefaultSettings() Settings {
	return Settings{
		URI:            DefaultURI,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		ReconnectDelay: 5 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.URI == "" {
		s.URI = d.URI
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = d.MaxRetries
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = d.RetryDelay
	}
	if s.ReconnectDelay <= 0 {
		s.ReconnectDelay = d.ReconnectDelay
	}
	return s
}

// Manager owns the single database connection of the process. It retries
// failed attempts with a fixed delay, reconnects after a disconnect and
// gives up for good once the retry budget is spent.
type Manager struct {
	settings Settings
	dialer   Dialer
	tasks    *resilience.Group
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	// base context for attempts fired by the scheduler; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	retries int
	conn    *Conn
	lastErr error
	changed chan struct{}
	closed  bool
}

// NewManager creates a manager in the Disconnected state. No attempt is made
// until Connect is called.
func NewManager(settings Settings, dialer Dialer, scheduler resilience.Scheduler, logger *logging.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		settings: settings.withDefaults(),
		dialer:   dialer,
		tasks:    resilience.NewGroup(scheduler),
		logger:   logging.OrNop(logger).Named("database"),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateDisconnected,
		changed:  make(chan struct{}),
	}
}

// WithMetrics adds metrics collection to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	m.publish()
	return m
}

// Connect makes one connection attempt. On success the retry count resets
// and the handle is returned. On failure nil is returned and, while the
// retry budget lasts, another attempt is scheduled after RetryDelay.
// Failures are never returned as errors; they are logged and recorded.
func (m *Manager) Connect(ctx context.Context) *Conn {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	if m.conn == nil {
		m.setStateLocked(StateConnecting)
	}
	m.mu.Unlock()

	m.logger.Debug("connecting to database", zap.String("uri", redact(m.settings.URI)))

	conn, err := m.dialer.Dial(ctx, m.settings.URI, m.handleDisconnect)
	if err != nil {
		m.connectFailed(err)
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.release(conn)
		return nil
	}
	superseded := m.conn
	m.conn = conn
	m.retries = 0
	m.lastErr = nil
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordConnectAttempt(true)
	}
	if superseded != nil && superseded != conn {
		m.release(superseded)
	}

	m.logger.Info("MongoDB connected", zap.String("host", conn.Host()))
	return conn
}

func (m *Manager) connectFailed(err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	m.retries++
	retries := m.retries
	maxRetries := m.settings.MaxRetries

	if retries >= maxRetries {
		m.lastErr = fmt.Errorf("%w after %d attempts: %w", ErrConnectionExhausted, retries, err)
		if m.conn == nil {
			m.setStateLocked(StateFailed)
		} else {
			m.publishLocked()
		}
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.RecordConnectAttempt(false)
		}
		m.logger.Error("DB connection failed after retries",
			zap.Int("attempts", retries),
			zap.Error(err))
		return
	}

	m.lastErr = fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	m.tasks.Schedule(m.settings.RetryDelay, m.reconnect)
	m.publishLocked()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordConnectAttempt(false)
		m.metrics.RecordRetryScheduled("retry")
	}
	m.logger.Warn("Retrying connection...",
		zap.Int("retry", retries),
		zap.Int("max_retries", maxRetries),
		zap.Duration("delay", m.settings.RetryDelay),
		zap.Error(err))
}

// OnDisconnected reacts to loss of the current connection. While the retry
// budget lasts a reconnect is scheduled after ReconnectDelay; once it is
// spent the event is ignored and the manager stays Failed.
func (m *Manager) OnDisconnected() {
	m.handleDisconnect(nil)
}

// handleDisconnect is the dialer callback. Events from a handle that has
// already been replaced are ignored; nil means the current handle.
func (m *Manager) handleDisconnect(conn *Conn) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if conn != nil && conn != m.conn {
		m.mu.Unlock()
		m.logger.Debug("ignoring disconnect from superseded connection", zap.String("host", conn.Host()))
		return
	}
	if m.conn == nil {
		m.mu.Unlock()
		m.logger.Debug("ignoring disconnect while not connected")
		return
	}

	dropped := m.conn
	m.conn = nil
	m.lastErr = ErrDisconnected
	m.setStateLocked(StateDisconnected)

	retries := m.retries
	reconnect := retries < m.settings.MaxRetries
	if reconnect {
		m.tasks.Schedule(m.settings.ReconnectDelay, m.reconnect)
	} else {
		m.lastErr = fmt.Errorf("%w: %w", ErrConnectionExhausted, ErrDisconnected)
		m.setStateLocked(StateFailed)
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordDisconnect()
		if reconnect {
			m.metrics.RecordRetryScheduled("reconnect")
		}
	}
	// The dialer may invoke us from a driver goroutine
	go m.release(dropped)

	if reconnect {
		m.logger.Warn("MongoDB disconnected",
			zap.Int("retries", retries),
			zap.Duration("reconnect_in", m.settings.ReconnectDelay))
		return
	}
	m.logger.Error("MongoDB disconnected, retries exhausted; not reconnecting",
		zap.Int("retries", retries))
}

func (m *Manager) reconnect() {
	m.Connect(m.ctx)
}

func (m *Manager) release(conn *Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Disconnect(ctx); err != nil {
		m.logger.Warn("failed to close connection", zap.String("host", conn.Host()), zap.Error(err))
	}
}

// Conn returns the current handle, or nil when not connected
func (m *Manager) Conn() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// Database returns the current database handle, or nil when not connected
func (m *Manager) Database() *mongo.Database {
	conn := m.Conn()
	if conn == nil {
		return nil
	}
	return conn.Database()
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Retries returns the number of consecutive failed attempts
func (m *Manager) Retries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries
}

// Status returns a snapshot for health reporting
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		State:      m.state,
		Retries:    m.retries,
		MaxRetries: m.settings.MaxRetries,
	}
	if m.conn != nil {
		s.Host = m.conn.Host()
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// Wait blocks until a connection is available, the manager gives up, or ctx
// is done.
func (m *Manager) Wait(ctx context.Context) (*Conn, error) {
	for {
		m.mu.Lock()
		state, conn, changed, closed, lastErr := m.state, m.conn, m.changed, m.closed, m.lastErr
		m.mu.Unlock()

		switch {
		case closed:
			return nil, ErrClosed
		case conn != nil:
			return conn, nil
		case state == StateFailed:
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, ErrConnectionExhausted
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close cancels pending attempts and disconnects the current handle.
// Later calls to Connect are no-ops.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.conn = nil
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	cancelled := m.tasks.CancelAll()
	m.cancel()

	m.logger.Info("closing database connection manager", zap.Int("cancelled_tasks", cancelled))

	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect %s: %w", conn.Host(), err)
	}
	return nil
}

func (m *Manager) setStateLocked(to State) {
	from := m.state
	if from == to {
		m.publishLocked()
		return
	}
	m.state = to

	close(m.changed)
	m.changed = make(chan struct{})

	m.publishLocked()
	if m.settings.OnStateChange != nil {
		m.settings.OnStateChange(from, to)
	}
}

func (m *Manager) publish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishLocked()
}

func (m *Manager) publishLocked() {
	if m.metrics != nil {
		m.metrics.SetConnectionState(int(m.state), m.retries)
	}
}

// redact hides credentials before a URI is logged
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparseable uri>"
	}
	return u.Redacted()
}
