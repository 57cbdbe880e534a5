// internal/app/features/health/health.go
package health

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Monitor reports store connection health without dialing.
type Monitor interface {
	Healthy() bool
	Snapshot() supervisor.Snapshot
}

// Handler provides health check endpoints.
type Handler struct {
	monitor Monitor
	logger  *zap.Logger
}

// NewHandler creates a new health check Handler.
func NewHandler(monitor Monitor, logger *zap.Logger) *Handler {
	return &Handler{
		monitor: monitor,
		logger:  logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with the health check mounted at /.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	return r
}

// MountRootEndpoints adds /readyz and /livez directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports the gateway's view of the store. It reads supervisor state
// only, so a health probe never triggers a connect.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	snap := h.monitor.Snapshot()
	resp := Response{
		Status:   "ok",
		Services: map[string]string{"mongodb": snap.State},
	}
	if !h.monitor.Healthy() {
		resp.Status = "degraded"
		h.logger.Debug("health check: store not connected",
			zap.String("state", snap.State),
			zap.String("last_error", snap.LastError))
		jsonutil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	jsonutil.OK(w, resp)
}

// Ready answers 200 only while the store is connected.
// Used by Kubernetes readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.monitor.Healthy() {
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live checks if the service is alive.
// Used by Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
