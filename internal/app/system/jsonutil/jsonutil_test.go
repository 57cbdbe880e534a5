package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v (body %q)", err, rec.Body.String())
	}
	return got
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, map[string]int{"count": 3})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"count":3}` {
		t.Errorf("body = %q", body)
	}

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	if rec.Body.Len() != 0 {
		t.Errorf("nil data wrote %q", rec.Body.String())
	}
}

func TestErrorShapes(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		key    string
		text   string
	}{
		{"error", func(w http.ResponseWriter) { Error(w, http.StatusConflict, "Shop exists") }, http.StatusConflict, "error", "Shop exists"},
		{"message", func(w http.ResponseWriter) { Message(w, http.StatusCreated, "User registered successfully") }, http.StatusCreated, "message", "User registered successfully"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "Invalid ID") }, http.StatusBadRequest, "error", "Invalid ID"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "Invalid API key") }, http.StatusUnauthorized, "error", "Invalid API key"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "Property not found") }, http.StatusNotFound, "error", "Property not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			got := decodeBody(t, rec)
			if got[tt.key] != tt.text || len(got) != 1 {
				t.Errorf("body = %v, want only %s=%q", got, tt.key, tt.text)
			}
		})
	}
}

func TestOKAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, []string{"a"})
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `["a"]` {
		t.Errorf("OK wrote %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Created(rec, map[string]string{"name": "Amena"})
	if rec.Code != http.StatusCreated {
		t.Errorf("Created status = %d", rec.Code)
	}
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusServiceUnavailable, "Database temporarily unavailable", "Unreachable")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var got Failure
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if got.Message != "Database temporarily unavailable" || got.Reason != "Unreachable" {
		t.Errorf("body = %+v", got)
	}
}

func TestDecode(t *testing.T) {
	type shop struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rahman Store","category":"grocery","extra":1}`))
		var got shop
		if err := Decode(req, &got); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.Name != "Rahman Store" || got.Category != "grocery" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		var got shop
		if err := Decode(req, &got); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("err = %v, want ErrEmptyBody", err)
		}
	})

	t.Run("whitespace only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  \n"))
		var got shop
		if err := Decode(req, &got); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("err = %v, want ErrEmptyBody", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var got shop
		if err := Decode(req, &got); err == nil {
			t.Error("expected error for truncated JSON")
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":42}`))
		var got shop
		if err := Decode(req, &got); err == nil {
			t.Error("expected error for a number in a string field")
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
		var got shop
		if err := Decode(req, &got); err == nil {
			t.Error("expected error for two JSON values")
		}
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var got shop
		if err := Decode(req, &got); err == nil {
			t.Error("expected error for a body over MaxBodyBytes")
		}
	})
}
