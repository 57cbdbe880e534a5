package supervisor

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable cause of a gateway failure.
type Reason string

const (
	ReasonTimeout       Reason = "Timeout"
	ReasonUnreachable   Reason = "Unreachable"
	ReasonMisconfigured Reason = "Misconfigured"
)

// Sentinels for errors.Is checks against an *Error.
var (
	ErrTimeout       = errors.New("timed out waiting for store connection")
	ErrUnreachable   = errors.New("store unreachable")
	ErrMisconfigured = errors.New("store address missing or invalid")
	ErrClosed        = errors.New("supervisor closed")
)

// Error is returned by EnsureConnected. The underlying store error is kept
// for logging but callers branch on Reason.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Reason.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Reason == ReasonTimeout
	case ErrUnreachable:
		return e.Reason == ReasonUnreachable
	case ErrMisconfigured:
		return e.Reason == ReasonMisconfigured
	}
	return false
}

// ReasonOf extracts the Reason from err, or "" when err is not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func timeoutError(err error) *Error {
	return &Error{Reason: ReasonTimeout, Err: err}
}

func unreachableError(err error) *Error {
	return &Error{Reason: ReasonUnreachable, Err: err}
}

func misconfiguredError(err error) *Error {
	return &Error{Reason: ReasonMisconfigured, Err: err}
}
