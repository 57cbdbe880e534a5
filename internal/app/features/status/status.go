// internal/app/features/status/status.go
package status

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"github.com/dalemusser/stratagate/internal/app/system/tasks"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

var startTime = time.Now()

// Source supplies the store connection snapshot.
type Source interface {
	Snapshot() supervisor.Snapshot
}

// Jobs supplies background job counters.
type Jobs interface {
	Stats() []tasks.JobStats
}

// Handler holds dependencies for the admin status endpoint.
type Handler struct {
	Source  Source
	Jobs    Jobs // optional
	Version string
	Gate    time.Duration // request gate wait
}

// Report is the body of GET /api/admin/status.
type Report struct {
	Version    string              `json:"version"`
	GoVersion  string              `json:"go_version"`
	Uptime     string              `json:"uptime"`
	Goroutines int                 `json:"goroutines"`
	Store      supervisor.Snapshot `json:"store"`
	Timeouts   Timeouts            `json:"timeouts"`
	Jobs       []tasks.JobStats    `json:"jobs,omitempty"`
}

// Timeouts lists the effective request and store timeouts.
type Timeouts struct {
	Gate  string `json:"gate"`
	Query string `json:"query"`
	Hook  string `json:"hook"`
}

// Routes returns a chi.Router with status routes mounted. Callers wrap it
// in API key auth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}

// Serve writes the status report.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	t := timeouts.Current()
	rep := Report{
		Version:    h.Version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Store:      h.Source.Snapshot(),
		Timeouts: Timeouts{
			Gate:  h.Gate.String(),
			Query: t.Query.String(),
			Hook:  t.Hook.String(),
		},
	}
	if h.Jobs != nil {
		rep.Jobs = h.Jobs.Stats()
	}
	jsonutil.OK(w, rep)
}
