// Package accesslog assigns a request ID to every request and writes one
// structured log line when the response is done.
package accesslog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/network"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// ctxKey is the context key type for per-request log data.
type ctxKey int

const ctxKeyEntry ctxKey = iota

// entry accumulates data that handlers attach during the request.
type entry struct {
	requestID  string
	userID     string
	errorClass string
	errorMsg   string
}

// Config configures Middleware.
type Config struct {
	Logger *zap.Logger

	// ExcludePaths are path prefixes that are not logged (probes, metrics).
	// They still receive a request ID.
	ExcludePaths []string
}

// DefaultConfig skips probe and scrape endpoints.
func DefaultConfig(logger *zap.Logger) Config {
	return Config{
		Logger:       logger,
		ExcludePaths: []string{"/livez", "/readyz", "/metrics", "/assets/"},
	}
}

// Middleware assigns the request ID and logs the outcome of each request.
// A client-supplied X-Request-ID is kept when it looks sane; otherwise a
// UUID is generated. The ID is echoed in the response header.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			e := &entry{requestID: requestID(r.Header.Get(HeaderRequestID))}
			w.Header().Set(HeaderRequestID, e.requestID)
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyEntry, e))

			if excluded(r.URL.Path, cfg.ExcludePaths) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("request_id", e.requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", network.ClientIP(r)),
			}
			if e.userID != "" {
				fields = append(fields, zap.String("user_id", e.userID))
			}
			if status >= 400 {
				class := e.errorClass
				if class == "" {
					class = classify(status)
				}
				fields = append(fields, zap.String("error_class", class))
				if e.errorMsg != "" {
					fields = append(fields, zap.String("error", e.errorMsg))
				}
			}

			cfg.Logger.Check(level(status), "http request").Write(fields...)
		})
	}
}

func excluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// requestID returns the client ID when it is short and printable, else a
// new UUID.
func requestID(client string) string {
	if client != "" && len(client) <= 128 {
		ok := true
		for i := 0; i < len(client); i++ {
			if c := client[i]; c < 0x21 || c > 0x7e {
				ok = false
				break
			}
		}
		if ok {
			return client
		}
	}
	return uuid.New().String()
}

func classify(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "validation"
	case status == http.StatusUnauthorized:
		return "auth"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= 500:
		return "internal"
	default:
		return "client_error"
	}
}

func level(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetRequestID returns the request ID for the current request.
func GetRequestID(ctx context.Context) string {
	if e, ok := ctx.Value(ctxKeyEntry).(*entry); ok {
		return e.requestID
	}
	return ""
}

// SetErrorClass overrides the status-derived error class in the log line.
func SetErrorClass(ctx context.Context, class string) {
	if e, ok := ctx.Value(ctxKeyEntry).(*entry); ok {
		e.errorClass = class
	}
}

// SetErrorMessage attaches an internal error message to the log line.
// It is never sent to the client.
func SetErrorMessage(ctx context.Context, msg string) {
	if e, ok := ctx.Value(ctxKeyEntry).(*entry); ok {
		e.errorMsg = msg
	}
}

// SetUserID records the authenticated user for the log line.
func SetUserID(ctx context.Context, id string) {
	if e, ok := ctx.Value(ctxKeyEntry).(*entry); ok {
		e.userID = id
	}
}
