package maids

import (
	"net/http"
	"testing"

	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/stratagate/internal/testutil"
	"go.uber.org/zap"
)

func TestList_StoreUnavailable(t *testing.T) {
	h := NewHandler(testutil.StaticProvider{}, zap.NewNop())
	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	rec.AssertContains(t, `"error":"Database connection timeout. Please try again."`)
}

func TestCreate_Validation(t *testing.T) {
	h := NewHandler(testutil.StaticProvider{}, zap.NewNop())

	tests := []struct {
		name string
		body any
	}{
		{"bad json", "{"},
		{"missing name", map[string]any{"phone": "1"}},
		{"markup only name", map[string]any{"name": "<b></b>"}},
		{"negative salary", map[string]any{"name": "A", "salary": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.Create(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestCreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := Routes(NewHandler(testutil.StaticProvider{DB: db}, zap.NewNop()))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"name":        "Rokeya <script>alert(1)</script>Begum",
		"experience":  5,
		"skills":      []string{"cooking", " ", "cleaning"},
		"description": "<p>Reliable</p><img src=x onerror=alert(1)>",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	var created models.Maid
	rec.DecodeJSON(t, &created)
	if created.ID.IsZero() {
		t.Error("created maid has no id")
	}
	if created.Name != "Rokeya Begum" {
		t.Errorf("Name = %q, want sanitized", created.Name)
	}
	if len(created.Skills) != 2 {
		t.Errorf("Skills = %v", created.Skills)
	}
	if created.Description != "<p>Reliable</p>" {
		t.Errorf("Description = %q", created.Description)
	}
	if !created.Available {
		t.Error("Available should default to true")
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.Maid
	rec.DecodeJSON(t, &list)
	if len(list) != 1 {
		t.Errorf("List len = %d, want 1", len(list))
	}
}
