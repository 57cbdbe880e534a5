// internal/app/features/maids/maids.go
package maids

import (
	"net/http"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/features/errors"
	maidstore "github.com/dalemusser/stratagate/internal/app/store/maids"
	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/normalize"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves /api/maids.
type Handler struct {
	db     storeutil.Provider
	logger *zap.Logger
	errs   *errors.ErrorLogger
}

// NewHandler creates a new maids Handler.
func NewHandler(db storeutil.Provider, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger, errs: errors.NewErrorLogger(logger)}
}

// Routes returns a chi.Router with maid routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	return r
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, "list maids", err, jsonutil.Error)
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "list maids")
	defer cancel()

	out, err := maidstore.New(db).List(ctx)
	if err != nil {
		h.errs.Store(w, r, "list maids", err, jsonutil.Error)
		return
	}
	h.logger.Debug("maids listed", zap.Int("count", len(out)))
	jsonutil.OK(w, out)
}

type maidInput struct {
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Location    string   `json:"location"`
	Experience  int      `json:"experience"`
	Skills      []string `json:"skills"`
	Salary      float64  `json:"salary"`
	Available   *bool    `json:"available"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
}

// Create handles POST /.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in maidInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Message(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	m := models.Maid{
		Name:        normalize.Name(htmlsanitize.Text(in.Name)),
		Phone:       normalize.Phone(in.Phone),
		Location:    htmlsanitize.Text(in.Location),
		Experience:  in.Experience,
		Skills:      htmlsanitize.Strings(in.Skills),
		Salary:      in.Salary,
		Available:   in.Available == nil || *in.Available,
		Description: htmlsanitize.RichText(in.Description),
		Image:       strings.TrimSpace(in.Image),
	}
	if m.Name == "" {
		jsonutil.Message(w, http.StatusBadRequest, "Name is required")
		return
	}
	if m.Experience < 0 || m.Salary < 0 {
		jsonutil.Message(w, http.StatusBadRequest, "Experience and salary must not be negative")
		return
	}

	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, "create maid", err, jsonutil.Message)
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "create maid")
	defer cancel()

	created, err := maidstore.New(db).Create(ctx, m)
	if err != nil {
		h.errs.Store(w, r, "create maid", err, jsonutil.Message)
		return
	}
	jsonutil.Created(w, created)
}
