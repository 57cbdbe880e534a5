// Package timeouts holds the process-wide deadlines for store work.
//
// Resource handlers bound every query with QueryContext; the supervisor
// bounds its post-connect hooks with Hook. Values are set once at boot by
// Configure and read lock-free afterwards.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults apply until Configure is called.
const (
	DefaultQuery = 15 * time.Second
	DefaultHook  = 30 * time.Second
)

// Config is a set of store deadlines.
type Config struct {
	Query time.Duration // one handler query
	Hook  time.Duration // each post-connect hook
}

func defaults() *Config { return &Config{Query: DefaultQuery, Hook: DefaultHook} }

var current atomic.Pointer[Config]

func init() { current.Store(defaults()) }

// Configure overlays the positive fields of cfg on the current values.
func Configure(cfg Config) {
	next := *current.Load()
	if cfg.Query > 0 {
		next.Query = cfg.Query
	}
	if cfg.Hook > 0 {
		next.Hook = cfg.Hook
	}
	current.Store(&next)
}

// Reset puts the defaults back. Tests use it in t.Cleanup.
func Reset() { current.Store(defaults()) }

// Current returns a copy of the active values.
func Current() Config { return *current.Load() }

// Query is the per-query deadline.
func Query() time.Duration { return current.Load().Query }

// Hook is the post-connect hook deadline.
func Hook() time.Duration { return current.Load().Hook }

// WithTimeout derives a context that expires after d. Its cancel func
// logs a warning naming op when the deadline was what ended it.
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		expired := errors.Is(ctx.Err(), context.DeadlineExceeded)
		cancel()
		if expired && log != nil {
			log.Warn("store operation hit its deadline", zap.String("operation", op), zap.Duration("timeout", d))
		}
	}
}

// QueryContext bounds one handler query by Query().
func QueryContext(parent context.Context, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, Query(), log, op)
}
