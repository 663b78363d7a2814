package database

import "errors"

// State represents the connection lifecycle state
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON bodies and logs
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrConnectionFailure wraps a single failed attempt. It is retried.
	ErrConnectionFailure = errors.New("database connection failed")
	// ErrConnectionExhausted is recorded once the retry budget is spent.
	ErrConnectionExhausted = errors.New("database connection retries exhausted")
	// ErrDisconnected is recorded when an established connection drops.
	ErrDisconnected = errors.New("database disconnected")
	// ErrClosed is returned by Wait after Close.
	ErrClosed = errors.New("connection manager closed")
)

// Status is a point-in-time view of the manager, safe to serialise
type Status struct {
	State      State  `json:"state"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"max_retries"`
	Host       string `json:"host,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}
