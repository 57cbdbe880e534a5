// internal/app/features/shops/shops.go
package shops

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/features/errors"
	shopstore "github.com/dalemusser/stratagate/internal/app/store/shops"
	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/normalize"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgNotFound  = "Shop not found"
	MsgDeleted   = "Shop deleted"
	MsgInvalidID = "Invalid shop id"
)

// Handler serves /api/shops.
type Handler struct {
	db     storeutil.Provider
	logger *zap.Logger
	errs   *errors.ErrorLogger
}

// NewHandler creates a new shops Handler.
func NewHandler(db storeutil.Provider, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger, errs: errors.NewErrorLogger(logger)}
}

// Routes returns a chi.Router with shop routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, op string) (*shopstore.Store, bool) {
	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, op, err, jsonutil.Error)
		return nil, false
	}
	return shopstore.New(db), true
}

// List handles GET /. ?category= narrows the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r, "list shops")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "list shops")
	defer cancel()

	out, err := s.List(ctx, r.URL.Query().Get("category"))
	if err != nil {
		h.errs.Store(w, r, "list shops", err, jsonutil.Error)
		return
	}
	h.logger.Debug("shops listed", zap.Int("count", len(out)))
	jsonutil.OK(w, out)
}

type shopInput struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Phone       *string `json:"phone"`
	Hours       *string `json:"hours"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

func (in *shopInput) sanitize() string {
	text := func(p **string) {
		if *p != nil {
			v := htmlsanitize.Text(**p)
			*p = &v
		}
	}
	text(&in.Name)
	text(&in.Category)
	text(&in.Location)
	text(&in.Hours)
	if in.Phone != nil {
		v := normalize.Phone(*in.Phone)
		in.Phone = &v
	}
	if in.Description != nil {
		v := htmlsanitize.RichText(*in.Description)
		in.Description = &v
	}
	if in.Image != nil {
		v := strings.TrimSpace(*in.Image)
		in.Image = &v
	}

	if in.Name != nil && *in.Name == "" {
		return "Name must not be empty"
	}
	if in.Category != nil && *in.Category == "" {
		return "Category must not be empty"
	}
	return ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Create handles POST /.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in shopInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Name == nil || in.Category == nil {
		jsonutil.BadRequest(w, "Name and category are required")
		return
	}
	if msg := in.sanitize(); msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	s, ok := h.store(w, r, "create shop")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "create shop")
	defer cancel()

	created, err := s.Create(ctx, models.Shop{
		Name:        *in.Name,
		Category:    *in.Category,
		Location:    deref(in.Location),
		Phone:       deref(in.Phone),
		Hours:       deref(in.Hours),
		Description: deref(in.Description),
		Image:       deref(in.Image),
	})
	if err != nil {
		h.errs.Store(w, r, "create shop", err, jsonutil.Error)
		return
	}
	jsonutil.Created(w, created)
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, MsgInvalidID)
		return
	}
	s, ok := h.store(w, r, "get shop")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "get shop")
	defer cancel()

	sh, err := s.Get(ctx, id)
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "get shop", err, jsonutil.Error)
		return
	}
	jsonutil.OK(w, sh)
}

// Update handles PUT /{id}. Only fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, MsgInvalidID)
		return
	}
	var in shopInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if msg := in.sanitize(); msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	s, ok := h.store(w, r, "update shop")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "update shop")
	defer cancel()

	sh, err := s.Update(ctx, id, shopstore.Update{
		Name:        in.Name,
		Category:    in.Category,
		Location:    in.Location,
		Phone:       in.Phone,
		Hours:       in.Hours,
		Description: in.Description,
		Image:       in.Image,
	})
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "update shop", err, jsonutil.Error)
		return
	}
	jsonutil.OK(w, sh)
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, MsgInvalidID)
		return
	}
	s, ok := h.store(w, r, "delete shop")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "delete shop")
	defer cancel()

	err = s.Delete(ctx, id)
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "delete shop", err, jsonutil.Error)
		return
	}
	h.logger.Info("shop deleted", zap.String("id", id.Hex()))
	jsonutil.Message(w, http.StatusOK, MsgDeleted)
}
