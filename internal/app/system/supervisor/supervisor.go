// Package supervisor owns the lifecycle of the shared store connection.
//
// A Supervisor is the only component that changes the connection state.
// It connects lazily on the first EnsureConnected call, lets at most one
// physical connect run at a time, and moves to Errored when the store
// handle reports a disconnect it did not initiate. There is no background
// reconnect loop: a failed or lost connection is retried by the next
// caller.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Hook runs after every successful connect, with the freshly connected
// database. Hook errors are logged and do not fail the connection.
type Hook func(ctx context.Context, db *mongo.Database) error

// Config configures a Supervisor.
type Config struct {
	// URI is the store address. Empty or invalid makes every
	// EnsureConnected call fail with ReasonMisconfigured.
	URI string

	Options storehandle.Options

	// HookTimeout bounds each OnConnected hook. Zero means 30s.
	HookTimeout time.Duration

	Logger  *zap.Logger
	Metrics metrics.Collector
	Tracer  trace.Tracer

	// Now overrides the clock in tests.
	Now func() time.Time
}

// attempt is one in-flight physical connect. done is closed once err is
// final; waiters read err only after done is closed.
type attempt struct {
	done    chan struct{}
	err     error
	started time.Time
}

// resolved is handed to callers that find the connection already up once
// they hold the lock.
var resolved = func() *attempt {
	a := &attempt{done: make(chan struct{})}
	close(a.done)
	return a
}()

// Supervisor serializes connects to a single store handle.
type Supervisor struct {
	handle      storehandle.Handle
	uri         string
	opts        storehandle.Options
	hookTimeout time.Duration
	log         *zap.Logger
	metrics     metrics.Collector
	tracer      trace.Tracer
	now         func() time.Time

	state atomic.Int32

	mu            sync.Mutex
	current       *attempt
	misconfig     *Error
	lastErr       *Error
	lastFailure   time.Time
	lastAttempt   time.Time
	lastConnected time.Time
	attempts      uint64
	failures      uint64
	hooks         []Hook
	closed        bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Supervisor around h. It does not dial; the first
// EnsureConnected call does.
func New(h storehandle.Handle, cfg Config) *Supervisor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/dalemusser/stratagate/supervisor")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HookTimeout <= 0 {
		cfg.HookTimeout = 30 * time.Second
	}
	if cfg.Options.ServerSelectionTimeout <= 0 {
		cfg.Options.ServerSelectionTimeout = storehandle.DefaultServerSelectionTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		handle:      h,
		uri:         cfg.URI,
		opts:        cfg.Options,
		hookTimeout: cfg.HookTimeout,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
		now:         cfg.Now,
		baseCtx:     ctx,
		cancel:      cancel,
	}

	switch {
	case cfg.URI == "":
		s.misconfig = misconfiguredError(errors.New("mongo_uri is not set"))
	default:
		if err := wafflemongo.ValidateURI(cfg.URI); err != nil {
			s.misconfig = misconfiguredError(err)
		}
	}
	if s.misconfig != nil {
		s.log.Error("store address is misconfigured; requests will be refused", zap.Error(s.misconfig.Err))
	}

	s.metrics.SetConnectionState(Disconnected.String())
	h.Subscribe(s.handleEvent)
	return s
}

// OnConnected registers a hook run after every successful connect.
func (s *Supervisor) OnConnected(h Hook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// setState must be called with s.mu held.
func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	s.metrics.SetConnectionState(st.String())
}

// EnsureConnected returns nil once the store connection is up.
//
// If a connect is already in flight the caller waits for it instead of
// starting another. ctx bounds only this caller's wait: when it expires
// the caller gets ReasonTimeout and the attempt keeps running for everyone
// else.
func (s *Supervisor) EnsureConnected(ctx context.Context) error {
	if s.State() == Connected && s.handle.IsHealthy() {
		return nil
	}

	a, err := s.acquire()
	if err != nil {
		return err
	}

	// Prefer a resolved outcome over an expired deadline.
	select {
	case <-a.done:
		return a.err
	default:
	}
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return timeoutError(ctx.Err())
	}
}

// acquire joins the in-flight attempt or starts a new one.
func (s *Supervisor) acquire() (*attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.misconfig != nil {
		return nil, s.misconfig
	}
	if s.closed {
		return nil, unreachableError(ErrClosed)
	}
	if s.current != nil {
		return s.current, nil
	}
	if s.State() == Connected && s.handle.IsHealthy() {
		return resolved, nil
	}
	if s.lastErr != nil && !s.lastFailure.IsZero() && s.now().Sub(s.lastFailure) < s.opts.RetryDelay {
		return nil, s.lastErr
	}

	a := &attempt{done: make(chan struct{}), started: s.now()}
	s.current = a
	s.attempts++
	s.lastAttempt = a.started
	s.setState(Connecting)

	s.wg.Add(1)
	go s.run(a)
	return a, nil
}

// run performs one physical connect and releases every waiter.
func (s *Supervisor) run(a *attempt) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.ServerSelectionTimeout)
	ctx, span := s.tracer.Start(ctx, "store.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.DBSystemMongoDB, attribute.String("db.name", s.opts.Database)),
	)
	err := s.handle.Connect(ctx, s.uri, s.opts)
	cancel()

	var gerr *Error
	if err != nil {
		if storehandle.IsMalformed(err) {
			gerr = misconfiguredError(err)
		} else {
			gerr = unreachableError(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(gerr.Reason))
	}
	span.End()

	s.mu.Lock()
	now := s.now()
	if gerr == nil {
		s.setState(Connected)
		s.lastConnected = now
		s.lastErr = nil
		s.lastFailure = time.Time{}
	} else {
		s.setState(Errored)
		s.failures++
		s.lastErr = gerr
		s.lastFailure = now
		a.err = gerr
		if gerr.Reason == ReasonMisconfigured {
			s.misconfig = gerr
		}
	}
	s.current = nil
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	close(a.done)

	elapsed := now.Sub(a.started)
	if gerr != nil {
		s.metrics.IncConnectAttempt("failure")
		s.log.Warn("store connect failed",
			zap.String("reason", string(gerr.Reason)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncConnectAttempt("success")
	s.log.Info("store connected",
		zap.String("database", s.opts.Database),
		zap.Duration("elapsed", elapsed),
	)
	s.runHooks(hooks)
}

func (s *Supervisor) runHooks(hooks []Hook) {
	db := s.handle.Database()
	for _, h := range hooks {
		ctx, cancel := context.WithTimeout(s.baseCtx, s.hookTimeout)
		if err := h(ctx, db); err != nil {
			s.log.Error("post-connect hook failed", zap.Error(err))
		}
		cancel()
	}
}

// handleEvent keeps the state in line with what the handle observes.
func (s *Supervisor) handleEvent(ev storehandle.Event) {
	switch ev.Kind {
	case storehandle.EventDisconnected, storehandle.EventError:
		s.mu.Lock()
		demoted := false
		if s.current == nil && s.State() == Connected {
			s.setState(Errored)
			s.lastErr = unreachableError(ev.Err)
			demoted = true
		}
		s.mu.Unlock()
		if demoted {
			s.log.Warn("store connection lost",
				zap.String("event", ev.Kind.String()),
				zap.Error(ev.Err),
			)
		}
	case storehandle.EventConnected:
		s.log.Debug("store handle reports connected")
	}
}

// Reconcile demotes a Connected state the handle no longer backs. It
// covers lifecycle events the driver never delivered and reports whether
// the state changed.
func (s *Supervisor) Reconcile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil || s.State() != Connected || s.handle.IsHealthy() {
		return false
	}
	s.setState(Errored)
	s.lastErr = unreachableError(errors.New("store handle unhealthy"))
	s.log.Warn("store handle unhealthy; connection marked errored")
	return true
}

// Database returns the store database while Connected, nil otherwise.
// Handlers call it per request; they must not cache the result.
func (s *Supervisor) Database() *mongo.Database {
	if s.State() != Connected {
		return nil
	}
	return s.handle.Database()
}

// Healthy reports whether the connection is up without dialing.
func (s *Supervisor) Healthy() bool {
	return s.State() == Connected && s.handle.IsHealthy()
}

// Snapshot is a point-in-time view for status endpoints.
type Snapshot struct {
	State         string     `json:"state"`
	Healthy       bool       `json:"healthy"`
	Attempts      uint64     `json:"attempts"`
	Failures      uint64     `json:"failures"`
	InFlight      bool       `json:"in_flight"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttempt   *time.Time `json:"last_attempt,omitempty"`
	LastConnected *time.Time `json:"last_connected,omitempty"`
}

// Snapshot returns the current supervisor status.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:    s.State().String(),
		Healthy:  s.handle.IsHealthy(),
		Attempts: s.attempts,
		Failures: s.failures,
		InFlight: s.current != nil,
	}
	if s.misconfig != nil {
		snap.LastError = s.misconfig.Error()
	} else if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	if !s.lastAttempt.IsZero() {
		t := s.lastAttempt
		snap.LastAttempt = &t
	}
	if !s.lastConnected.IsZero() {
		t := s.lastConnected
		snap.LastConnected = &t
	}
	return snap
}

// Close stops new attempts, waits for an in-flight attempt, and
// disconnects the handle.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.setState(Disconnected)
	s.mu.Unlock()
	return s.handle.Disconnect(ctx)
}
