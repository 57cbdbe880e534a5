package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotFound_Returns404(t *testing.T) {
	h := NewHandler()
	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Route not found" {
		t.Errorf("body = %v", body)
	}
}

func TestMethodNotAllowed_Returns405(t *testing.T) {
	h := NewHandler()
	rec := httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/shops", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestStore(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		write  WriteFunc
		status int
		key    string
		msg    string
	}{
		{"deadline", context.DeadlineExceeded, jsonutil.Error, http.StatusServiceUnavailable, "error", MsgStoreTimeout},
		{"no session", storeutil.ErrUnavailable, jsonutil.Message, http.StatusServiceUnavailable, "message", MsgStoreTimeout},
		{"other", stderrors.New("boom"), jsonutil.Error, http.StatusInternalServerError, "error", "Server error"},
		{"default writer", stderrors.New("boom"), nil, http.StatusInternalServerError, "error", "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			el := NewErrorLogger(zap.New(core))

			rec := httptest.NewRecorder()
			el.Store(rec, httptest.NewRequest(http.MethodGet, "/api/shops", nil), "list shops", tt.err, tt.write)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body[tt.key] != tt.msg {
				t.Errorf("body = %v, want %s=%q", body, tt.key, tt.msg)
			}
			if logs.Len() != 1 {
				t.Errorf("logged %d entries, want 1", logs.Len())
			}
		})
	}
}

func TestErrorLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := NewErrorLogger(zap.New(core))
	req := httptest.NewRequest(http.MethodPost, "/api/maids", nil)

	el.Log(req, "insert failed", stderrors.New("boom"))

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["path"] != "/api/maids" || fields["method"] != http.MethodPost {
		t.Errorf("fields = %v", fields)
	}
}
