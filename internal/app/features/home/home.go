// internal/app/features/home/home.go
package home

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
)

// Handler serves the API index.
type Handler struct {
	version string
}

// NewHandler creates a new home Handler.
func NewHandler(version string) *Handler {
	return &Handler{version: version}
}

// Index is the body of GET /.
type Index struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Endpoints lists the public API roots.
var Endpoints = map[string]string{
	"health":     "/api/health",
	"auth":       "/api/auth",
	"maids":      "/api/maids",
	"properties": "/api/properties",
	"shops":      "/api/shops",
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	return r
}

// Index answers with the service name and its endpoint map. It is not
// gated and never touches the store.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Index{
		Message:   "Bachelor Point API is running",
		Version:   h.version,
		Endpoints: Endpoints,
	})
}
