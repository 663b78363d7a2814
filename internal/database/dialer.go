package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Dialer opens connections. onDisconnect is called at most once per
// returned Conn, when the connection is lost after a successful dial.
type Dialer interface {
	Dial(ctx context.Context, uri string, onDisconnect func(*Conn)) (*Conn, error)
}

// Conn is a live connection handle. Readers treat it as read-only.
type Conn struct {
	client  *mongo.Client
	db      *mongo.Database
	host    string
	monitor *heartbeatMonitor
}

// NewConn wraps an established client. client and db may be nil in tests.
func NewConn(client *mongo.Client, db *mongo.Database, host string) *Conn {
	return &Conn{client: client, db: db, host: host}
}

// Host returns the address the connection was established to
func (c *Conn) Host() string {
	return c.host
}

// Database returns the database handle
func (c *Conn) Database() *mongo.Database {
	return c.db
}

// Client returns the underlying driver client
func (c *Conn) Client() *mongo.Client {
	return c.client
}

// Disconnect closes the connection and silences its disconnect callback
func (c *Conn) Disconnect(ctx context.Context) error {
	if c.monitor != nil {
		c.monitor.disarm()
	}
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// MongoDialer dials MongoDB with the write and selection options the API
// depends on: retryable writes, majority write concern and a bounded
// server-selection timeout.
type MongoDialer struct {
	DatabaseName           string
	ServerSelectionTimeout time.Duration
}

// NewMongoDialer creates a dialer for the named database
func NewMongoDialer(databaseName string, serverSelectionTimeout time.Duration) *MongoDialer {
	if serverSelectionTimeout <= 0 {
		serverSelectionTimeout = 5 * time.Second
	}
	return &MongoDialer{
		DatabaseName:           databaseName,
		ServerSelectionTimeout: serverSelectionTimeout,
	}
}

// ClientOptions builds the driver options used by Dial
func (d *MongoDialer) ClientOptions(uri string, monitor *event.ServerMonitor) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetServerSelectionTimeout(d.ServerSelectionTimeout)
	if monitor != nil {
		opts.SetServerMonitor(monitor)
	}
	return opts
}

// Dial connects and pings the primary. The connection is only returned once
// the ping succeeds; until then no disconnect is reported.
func (d *MongoDialer) Dial(ctx context.Context, uri string, onDisconnect func(*Conn)) (*Conn, error) {
	conn := &Conn{}
	monitor := newHeartbeatMonitor(func() {
		if onDisconnect != nil {
			onDisconnect(conn)
		}
	})

	opts := d.ClientOptions(uri, monitor.serverMonitor())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, d.ServerSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, abandon(fmt.Errorf("ping: %w", err), client.Disconnect)
	}

	conn.client = client
	conn.db = client.Database(d.DatabaseName)
	conn.host = strings.Join(opts.Hosts, ",")
	conn.monitor = monitor
	monitor.arm()

	return conn, nil
}

// abandon releases a client that never became usable. A failed release is
// reported alongside cause.
func abandon(cause error, disconnect func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := disconnect(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("disconnect: %w", err))
	}
	return cause
}

// heartbeatMonitor turns per-server heartbeat events into a single
// "connection lost" signal: it fires once the last healthy server fails.
type heartbeatMonitor struct {
	mu      sync.Mutex
	healthy map[string]bool
	armed   bool
	fired   bool
	fire    func()
}

func newHeartbeatMonitor(fire func()) *heartbeatMonitor {
	return &heartbeatMonitor{
		healthy: make(map[string]bool),
		fire:    fire,
	}
}

func (h *heartbeatMonitor) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(e *event.ServerHeartbeatSucceededEvent) {
			h.succeeded(e.ConnectionID)
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			h.failed(e.ConnectionID)
		},
	}
}

func (h *heartbeatMonitor) arm() {
	h.mu.Lock()
	h.armed = true
	h.mu.Unlock()
}

func (h *heartbeatMonitor) disarm() {
	h.mu.Lock()
	h.armed = false
	h.mu.Unlock()
}

func (h *heartbeatMonitor) succeeded(server string) {
	h.mu.Lock()
	h.healthy[server] = true
	h.mu.Unlock()
}

func (h *heartbeatMonitor) failed(server string) {
	h.mu.Lock()
	delete(h.healthy, server)
	if !h.armed || h.fired || len(h.healthy) > 0 {
		h.mu.Unlock()
		return
	}
	h.fired = true
	h.mu.Unlock()

	// Driver monitor goroutines must not block on our reconnect logic
	go h.fire()
}
