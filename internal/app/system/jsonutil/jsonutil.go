// Package jsonutil writes JSON responses and decodes JSON request bodies.
//
// Two error shapes are in use: {"error": ...} for property and shop
// handlers and {"message": ...} for auth, maids and gateway responses.
// Fail adds a machine-readable "reason" next to the message.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by Decode when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// JSON writes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Created writes a 201 response.
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Message writes {"message": message}.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Failure is the body written by Fail.
type Failure struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Fail writes {"message": message, "reason": reason}. reason is a stable
// code clients can branch on; message is for humans.
func Fail(w http.ResponseWriter, status int, message, reason string) {
	JSON(w, status, Failure{Message: message, Reason: reason})
}

// BadRequest writes a 400 {"error": message}.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 {"error": message}.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 {"error": message}.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Decode reads a single JSON value from the request body into v. Bodies
// over MaxBodyBytes and trailing data after the value are rejected.
func Decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.InputOffset() > MaxBodyBytes {
		return fmt.Errorf("decode body: larger than %d bytes", MaxBodyBytes)
	}
	if dec.More() {
		return errors.New("decode body: unexpected data after JSON value")
	}
	return nil
}
