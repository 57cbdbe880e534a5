// Package storehandle owns the single physical session to MongoDB.
//
// A Handle connects, reports liveness from the driver's own heartbeat
// monitor, and publishes lifecycle events (connected, disconnected, error)
// to subscribers. It never reconnects on its own; the connection
// supervisor decides when a new attempt is made.
package storehandle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Options configures a connect attempt.
type Options struct {
	// Database is the logical database handed to resource handlers.
	Database string

	// AppName is reported to the server in the handshake.
	AppName string

	// ServerSelectionTimeout bounds how long a connect waits to find a
	// reachable server.
	ServerSelectionTimeout time.Duration

	// SocketTimeout closes idle or stuck socket reads and writes.
	SocketTimeout time.Duration

	// MaxPoolSize caps concurrent physical sockets.
	MaxPoolSize uint64

	// RetryDelay is the minimum spacing between connect attempts after a
	// failure. It is enforced by the supervisor, not the handle.
	RetryDelay time.Duration

	// HeartbeatInterval is the driver's liveness-probe cadence.
	HeartbeatInterval time.Duration
}

// Default option values.
const (
	DefaultServerSelectionTimeout = 5 * time.Second
	DefaultSocketTimeout          = 45 * time.Second
	DefaultMaxPoolSize            = 100
	DefaultRetryDelay             = 1 * time.Second
	DefaultHeartbeatInterval      = 10 * time.Second
)

// DefaultOptions returns Options populated with the default values.
func DefaultOptions() Options {
	return Options{
		ServerSelectionTimeout: DefaultServerSelectionTimeout,
		SocketTimeout:          DefaultSocketTimeout,
		MaxPoolSize:            DefaultMaxPoolSize,
		RetryDelay:             DefaultRetryDelay,
		HeartbeatInterval:      DefaultHeartbeatInterval,
	}
}

// withDefaults fills zero-valued fields.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = d.ServerSelectionTimeout
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = d.SocketTimeout
	}
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = d.MaxPoolSize
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = d.HeartbeatInterval
	}
	return o
}

// EventKind identifies a lifecycle transition reported by a Handle.
type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification.
type Event struct {
	Kind EventKind
	Err  error
	At   time.Time
}

// Listener receives lifecycle events. Listeners run on the driver's
// monitoring goroutine and must not block.
type Listener func(Event)

// Handle is the physical connection to the document store.
type Handle interface {
	// Connect dials uri and verifies the session with a ping.
	// Any previous session is closed first.
	Connect(ctx context.Context, uri string, opts Options) error

	// IsHealthy reports liveness as last observed by the heartbeat monitor.
	// It never performs I/O.
	IsHealthy() bool

	// Subscribe registers a lifecycle listener.
	Subscribe(l Listener)

	// Database returns the configured database, or nil when no session
	// has been established.
	Database() *mongo.Database

	// Disconnect closes the current session, if any.
	Disconnect(ctx context.Context) error
}

// Reason classifies a ConnectError.
type Reason string

const (
	ReasonUnreachable Reason = "unreachable"
	ReasonAuth        Reason = "auth"
	ReasonMalformed   Reason = "malformed"
)

// ConnectError is returned by Connect when a session cannot be established.
type ConnectError struct {
	Reason Reason
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("store connect (%s): %v", e.Reason, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a ConnectError caused by a bad address.
func IsMalformed(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce) && ce.Reason == ReasonMalformed
}

// MongoDB error code for AuthenticationFailed.
const codeAuthFailed = 18

// classify wraps a driver error in a ConnectError.
func classify(err error) *ConnectError {
	if err == nil {
		return nil
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeAuthFailed) {
		return &ConnectError{Reason: ReasonAuth, Err: err}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "authentication failed") || strings.Contains(msg, "auth error") {
		return &ConnectError{Reason: ReasonAuth, Err: err}
	}
	return &ConnectError{Reason: ReasonUnreachable, Err: err}
}
