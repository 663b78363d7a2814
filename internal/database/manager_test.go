package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience/resiliencetest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

// mockDialer is a testify mock of Dialer that remembers disconnect callbacks
type mockDialer struct {
	mock.Mock

	mu        sync.Mutex
	callbacks map[*Conn]func(*Conn)
}

func newMockDialer() *mockDialer {
	return &mockDialer{callbacks: make(map[*Conn]func(*Conn))}
}

func (d *mockDialer) Dial(ctx context.Context, uri string, onDisconnect func(*Conn)) (*Conn, error) {
	args := d.Called(ctx, uri)
	var conn *Conn
	if c := args.Get(0); c != nil {
		conn = c.(*Conn)
		d.mu.Lock()
		d.callbacks[conn] = onDisconnect
		d.mu.Unlock()
	}
	return conn, args.Error(1)
}

// drop simulates the driver reporting that conn went away
func (d *mockDialer) drop(conn *Conn) {
	d.mu.Lock()
	cb := d.callbacks[conn]
	d.mu.Unlock()
	cb(conn)
}

func (d *mockDialer) attempts() int {
	return len(d.Calls)
}

func newTestManager(t *testing.T, dialer Dialer) (*Manager, *resiliencetest.Scheduler) {
	t.Helper()
	sched := resiliencetest.New()
	m := NewManager(Settings{}, dialer, sched, nil)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, sched
}

func TestConnectSuccess(t *testing.T) {
	dialer := newMockDialer()
	conn := NewConn(nil, nil, "localhost:27017")
	dialer.On("Dial", mock.Anything, DefaultURI).Return(conn, nil).Once()

	m, sched := newTestManager(t, dialer)

	got := m.Connect(context.Background())

	require.Same(t, conn, got)
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, 0, m.Retries())
	assert.Same(t, conn, m.Conn())
	assert.Empty(t, sched.Delays())
	dialer.AssertExpectations(t)
}

func TestConnectUsesDefaultURIWhenUnset(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, "mongodb://localhost:27017/students").Return(nil, errRefused)

	m, _ := newTestManager(t, dialer)
	m.Connect(context.Background())

	dialer.AssertCalled(t, "Dial", mock.Anything, "mongodb://localhost:27017/students")
}

func TestConnectRetryPolicy(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		succeeds      bool
		wantAttempts  int
		wantDelays    []time.Duration
		wantState     State
		wantRetries   int
		wantConnected bool
	}{
		{
			name:          "first attempt succeeds",
			failures:      0,
			succeeds:      true,
			wantAttempts:  1,
			wantDelays:    nil,
			wantState:     StateConnected,
			wantRetries:   0,
			wantConnected: true,
		},
		{
			name:          "one failure then success",
			failures:      1,
			succeeds:      true,
			wantAttempts:  2,
			wantDelays:    []time.Duration{2 * time.Second},
			wantState:     StateConnected,
			wantRetries:   0,
			wantConnected: true,
		},
		{
			name:          "two failures then success",
			failures:      2,
			succeeds:      true,
			wantAttempts:  3,
			wantDelays:    []time.Duration{2 * time.Second, 2 * time.Second},
			wantState:     StateConnected,
			wantRetries:   0,
			wantConnected: true,
		},
		{
			name:         "server never comes up",
			failures:     10,
			wantAttempts: 3,
			wantDelays:   []time.Duration{2 * time.Second, 2 * time.Second},
			wantState:    StateFailed,
			wantRetries:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := newMockDialer()
			if tt.failures > 0 {
				dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Times(tt.failures)
			}
			if tt.succeeds {
				dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()
			}

			m, sched := newTestManager(t, dialer)

			m.Connect(context.Background())
			for i := 0; i < 10; i++ {
				sched.Advance(2 * time.Second)
			}

			assert.Equal(t, tt.wantAttempts, dialer.attempts())
			assert.Equal(t, tt.wantDelays, sched.Delays())
			assert.Equal(t, tt.wantState, m.State())
			assert.Equal(t, tt.wantRetries, m.Retries())
			assert.Equal(t, tt.wantConnected, m.Conn() != nil)
			assert.Empty(t, sched.Pending())
		})
	}
}

func TestConnectReturnsNilOnFailure(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused)

	m, sched := newTestManager(t, dialer)

	assert.Nil(t, m.Connect(context.Background()))
	assert.Equal(t, 1, m.Retries())
	assert.Equal(t, StateConnecting, m.State())
	assert.Equal(t, []time.Duration{2 * time.Second}, sched.Pending())

	status := m.Status()
	assert.Contains(t, status.LastError, "connection refused")
	assert.Equal(t, 3, status.MaxRetries)
}

func TestThirdFailureStopsRetrying(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused)

	m, sched := newTestManager(t, dialer)
	ctx := context.Background()

	assert.Nil(t, m.Connect(ctx))
	assert.Nil(t, m.Connect(ctx))
	assert.Nil(t, m.Connect(ctx))

	assert.Equal(t, 3, m.Retries())
	assert.Equal(t, StateFailed, m.State())

	// the third failure scheduled nothing, and the two retries already
	// pending give up immediately
	assert.Len(t, sched.Delays(), 2)
	sched.Advance(time.Minute)
	assert.Equal(t, 5, dialer.attempts(), "two scheduled retries run, nothing more")
	assert.Len(t, sched.Delays(), 2)
}

func TestSuccessResetsRetryCount(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Twice()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil)

	m, sched := newTestManager(t, dialer)

	m.Connect(context.Background())
	assert.Equal(t, 1, m.Retries())
	sched.Advance(2 * time.Second)
	assert.Equal(t, 2, m.Retries())
	sched.Advance(2 * time.Second)

	assert.Equal(t, 0, m.Retries())
	assert.Equal(t, StateConnected, m.State())
	assert.Empty(t, m.Status().LastError)
}

func TestDisconnectSchedulesReconnect(t *testing.T) {
	dialer := newMockDialer()
	first := NewConn(nil, nil, "db:27017")
	second := NewConn(nil, nil, "db:27017")
	dialer.On("Dial", mock.Anything, mock.Anything).Return(first, nil).Once()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(second, nil).Once()

	m, sched := newTestManager(t, dialer)
	m.Connect(context.Background())

	m.mu.Lock()
	m.retries = 1
	m.mu.Unlock()

	m.OnDisconnected()

	assert.Equal(t, StateDisconnected, m.State())
	assert.Nil(t, m.Conn())
	assert.Nil(t, m.Database())
	assert.Equal(t, []time.Duration{5 * time.Second}, sched.Pending())

	sched.Advance(4 * time.Second)
	assert.Equal(t, 1, dialer.attempts())

	sched.Advance(time.Second)
	assert.Equal(t, 2, dialer.attempts())
	assert.Equal(t, StateConnected, m.State())
	assert.Same(t, second, m.Conn())
	assert.Equal(t, 0, m.Retries())
}

func TestDisconnectAfterExhaustionIsIgnored(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()

	m, sched := newTestManager(t, dialer)
	m.Connect(context.Background())

	m.mu.Lock()
	m.retries = 3
	m.mu.Unlock()

	m.OnDisconnected()

	assert.Equal(t, StateFailed, m.State())
	assert.Nil(t, m.Conn())
	assert.Empty(t, sched.Pending())
	assert.Empty(t, sched.Delays())

	// further disconnects change nothing
	m.OnDisconnected()
	assert.Empty(t, sched.Delays())
	assert.Equal(t, 1, dialer.attempts())
}

func TestDialerDisconnectCallback(t *testing.T) {
	dialer := newMockDialer()
	first := NewConn(nil, nil, "a:27017")
	second := NewConn(nil, nil, "b:27017")
	dialer.On("Dial", mock.Anything, mock.Anything).Return(first, nil).Once()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(second, nil).Once()

	m, sched := newTestManager(t, dialer)
	ctx := context.Background()

	m.Connect(ctx)
	m.Connect(ctx)
	require.Same(t, second, m.Conn())

	// the superseded handle reporting a drop must not affect the live one
	dialer.drop(first)
	assert.Equal(t, StateConnected, m.State())
	assert.Empty(t, sched.Pending())

	dialer.drop(second)
	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, []time.Duration{5 * time.Second}, sched.Pending())
}

func TestExplicitConnectLeavesFailed(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Times(3)
	dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()

	m, sched := newTestManager(t, dialer)
	m.Connect(context.Background())
	sched.Advance(10 * time.Second)
	require.Equal(t, StateFailed, m.State())

	conn := m.Connect(context.Background())
	require.NotNil(t, conn)
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, 0, m.Retries())
}

func TestStateTransitions(t *testing.T) {
	var transitions [][2]State

	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Once()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()

	sched := resiliencetest.New()
	m := NewManager(Settings{
		OnStateChange: func(from, to State) {
			transitions = append(transitions, [2]State{from, to})
		},
	}, dialer, sched, nil)
	defer m.Close(context.Background())

	m.Connect(context.Background())
	sched.Advance(2 * time.Second)
	m.OnDisconnected()

	assert.Equal(t, [][2]State{
		{StateDisconnected, StateConnecting},
		{StateConnecting, StateConnected},
		{StateConnected, StateDisconnected},
	}, transitions)
}

func TestWait(t *testing.T) {
	t.Run("returns once connected", func(t *testing.T) {
		dialer := newMockDialer()
		conn := NewConn(nil, nil, "db:27017")
		dialer.On("Dial", mock.Anything, mock.Anything).Return(conn, nil)

		m, _ := newTestManager(t, dialer)

		result := make(chan *Conn, 1)
		go func() {
			c, err := m.Wait(context.Background())
			assert.NoError(t, err)
			result <- c
		}()

		m.Connect(context.Background())

		select {
		case got := <-result:
			assert.Same(t, conn, got)
		case <-time.After(time.Second):
			t.Fatal("Wait did not return after connect")
		}
	})

	t.Run("fails once retries are exhausted", func(t *testing.T) {
		dialer := newMockDialer()
		dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused)

		m, sched := newTestManager(t, dialer)
		m.Connect(context.Background())
		sched.Advance(10 * time.Second)

		_, err := m.Wait(context.Background())
		assert.ErrorIs(t, err, ErrConnectionExhausted)
		assert.ErrorIs(t, err, errRefused)
	})

	t.Run("fails after a disconnect with no retries left", func(t *testing.T) {
		dialer := newMockDialer()
		dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()

		m, _ := newTestManager(t, dialer)
		m.Connect(context.Background())

		m.mu.Lock()
		m.retries = 3
		m.mu.Unlock()
		m.OnDisconnected()

		_, err := m.Wait(context.Background())
		assert.ErrorIs(t, err, ErrConnectionExhausted)
		assert.ErrorIs(t, err, ErrDisconnected)
		assert.Equal(t, StateFailed, m.State())
	})

	t.Run("honours context", func(t *testing.T) {
		m, _ := newTestManager(t, newMockDialer())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := m.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClose(t *testing.T) {
	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Once()

	sched := resiliencetest.New()
	m := NewManager(Settings{}, dialer, sched, nil)

	m.Connect(context.Background())
	require.Len(t, sched.Pending(), 1)

	require.NoError(t, m.Close(context.Background()))
	assert.Empty(t, sched.Pending())

	sched.Advance(time.Minute)
	assert.Equal(t, 1, dialer.attempts())

	assert.Nil(t, m.Connect(context.Background()))
	_, err := m.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, m.Close(context.Background()), "second close is a no-op")
}

func TestManagerMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()

	dialer := newMockDialer()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(nil, errRefused).Once()
	dialer.On("Dial", mock.Anything, mock.Anything).Return(NewConn(nil, nil, "db:27017"), nil).Once()

	sched := resiliencetest.New()
	m := NewManager(Settings{}, dialer, sched, nil).WithMetrics(metrics)
	defer m.Close(context.Background())

	m.Connect(context.Background())
	assert.Equal(t, float64(StateConnecting), testutil.ToFloat64(metrics.DBState))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBRetryCount))

	sched.Advance(2 * time.Second)
	m.OnDisconnected()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBConnectAttempts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBConnectAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBRetriesScheduled.WithLabelValues("retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBRetriesScheduled.WithLabelValues("reconnect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBDisconnects))
	assert.Equal(t, float64(StateDisconnected), testutil.ToFloat64(metrics.DBState))
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{}.withDefaults()
	assert.Equal(t, DefaultSettings().URI, s.URI)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, 2*time.Second, s.RetryDelay)
	assert.Equal(t, 5*time.Second, s.ReconnectDelay)

	custom := Settings{URI: "mongodb://db/x", MaxRetries: 5}.withDefaults()
	assert.Equal(t, "mongodb://db/x", custom.URI)
	assert.Equal(t, 5, custom.MaxRetries)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "mongodb://user:xxxxx@db:27017/students", redact("mongodb://user:secret@db:27017/students"))
	assert.Equal(t, "mongodb://localhost:27017/students", redact("mongodb://localhost:27017/students"))
}
