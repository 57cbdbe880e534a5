// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/accesslog"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// MsgStoreTimeout is returned when the store fails mid-request with a
// timeout or network error.
const MsgStoreTimeout = "Database connection timeout. Please try again."

// WriteFunc writes a single-field JSON error. jsonutil.Error and
// jsonutil.Message both satisfy it.
type WriteFunc func(w http.ResponseWriter, status int, message string)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("request_id", accesslog.GetRequestID(r.Context())),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// Store answers a failed store call. Timeouts and network failures get 503
// with MsgStoreTimeout; anything else gets 500 with a generic message. The
// cause is logged and attached to the access log entry.
func (e *ErrorLogger) Store(w http.ResponseWriter, r *http.Request, op string, err error, write WriteFunc) {
	if write == nil {
		write = jsonutil.Error
	}
	accesslog.SetErrorMessage(r.Context(), err.Error())
	if storeutil.IsUnavailable(err) {
		accesslog.SetErrorClass(r.Context(), "store_unavailable")
		e.logger.Warn("store unavailable mid-request",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.String("request_id", accesslog.GetRequestID(r.Context())),
			zap.Error(err))
		write(w, http.StatusServiceUnavailable, MsgStoreTimeout)
		return
	}
	accesslog.SetErrorClass(r.Context(), "store_error")
	e.LogWithFields(r, "store operation failed", err, zap.String("op", op))
	write(w, http.StatusInternalServerError, "Server error")
}

// Handler provides JSON fallbacks for unmatched routes.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers 404 for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Route not found")
}

// MethodNotAllowed answers 405 for known routes with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
