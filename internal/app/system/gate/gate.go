// Package gate holds the request gate: middleware that refuses to forward
// a request until the store connection is up.
package gate

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"go.uber.org/zap"
)

// DefaultTimeout is how long a request waits for the connection.
const DefaultTimeout = 8 * time.Second

// Response messages.
const (
	MsgTimeout       = "Database connection timeout. Please try again."
	MsgUnreachable   = "Database temporarily unavailable. Please try again shortly."
	MsgMisconfigured = "Unable to connect to MongoDB. Please check environment variables."
)

// Ensurer is the part of the supervisor the gate needs.
type Ensurer interface {
	EnsureConnected(ctx context.Context) error
}

// Config configures Middleware.
type Config struct {
	// Timeout bounds each request's wait for the connection.
	Timeout time.Duration

	// RetryAfter is sent in the Retry-After header on 503 responses.
	// Zero omits the header.
	RetryAfter time.Duration

	Logger  *zap.Logger
	Metrics metrics.Collector
}

// Middleware gates every request on sup.EnsureConnected. On success the
// request is forwarded unchanged. Otherwise the chain stops here:
// Timeout and Unreachable answer 503 and Misconfigured answers 500. The
// gate never retries; the next request does.
func Middleware(sup Ensurer, cfg Config) func(http.Handler) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			err := sup.EnsureConnected(ctx)
			cancel()

			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			reject(w, r, err, cfg)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, err error, cfg Config) {
	reason := supervisor.ReasonOf(err)
	if reason == "" {
		reason = supervisor.ReasonUnreachable
	}
	cfg.Metrics.IncGateRejection(string(reason))

	fields := []zap.Field{
		zap.String("reason", string(reason)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}

	switch reason {
	case supervisor.ReasonMisconfigured:
		cfg.Logger.Error("request refused: store misconfigured", fields...)
		jsonutil.Fail(w, http.StatusInternalServerError, MsgMisconfigured, string(reason))
	case supervisor.ReasonTimeout:
		cfg.Logger.Warn("request refused: store connection timed out", fields...)
		retryAfter(w, cfg.RetryAfter)
		jsonutil.Fail(w, http.StatusServiceUnavailable, MsgTimeout, string(reason))
	default:
		cfg.Logger.Warn("request refused: store unreachable", fields...)
		retryAfter(w, cfg.RetryAfter)
		jsonutil.Fail(w, http.StatusServiceUnavailable, MsgUnreachable, string(reason))
	}
}

func retryAfter(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		return
	}
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
}
