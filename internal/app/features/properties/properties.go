// internal/app/features/properties/properties.go
package properties

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/features/errors"
	propertystore "github.com/dalemusser/stratagate/internal/app/store/properties"
	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgNotFound  = "Property not found"
	MsgDeleted   = "Property deleted"
	MsgInvalidID = "Invalid property id"
)

// Handler serves /api/properties.
type Handler struct {
	db     storeutil.Provider
	logger *zap.Logger
	errs   *errors.ErrorLogger
}

// NewHandler creates a new properties Handler.
func NewHandler(db storeutil.Provider, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger, errs: errors.NewErrorLogger(logger)}
}

// Routes returns a chi.Router with property routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, op string) (*propertystore.Store, bool) {
	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, op, err, jsonutil.Error)
		return nil, false
	}
	return propertystore.New(db), true
}

// List handles GET /. Optional query parameters: location, type,
// min_price, max_price, and limit with page for paging.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := propertystore.Filter{
		Location: strings.TrimSpace(q.Get("location")),
		Type:     strings.TrimSpace(q.Get("type")),
	}
	var err error
	if f.MinPrice, err = parsePrice(q.Get("min_price")); err != nil {
		jsonutil.BadRequest(w, "min_price must be a number")
		return
	}
	if f.MaxPrice, err = parsePrice(q.Get("max_price")); err != nil {
		jsonutil.BadRequest(w, "max_price must be a number")
		return
	}
	if f.Limit, err = parseCount(q.Get("limit")); err != nil {
		jsonutil.BadRequest(w, "limit must be a positive whole number")
		return
	}
	if f.Page, err = parseCount(q.Get("page")); err != nil {
		jsonutil.BadRequest(w, "page must be a positive whole number")
		return
	}

	s, ok := h.store(w, r, "list properties")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "list properties")
	defer cancel()

	out, err := s.List(ctx, f)
	if err != nil {
		h.errs.Store(w, r, "list properties", err, jsonutil.Error)
		return
	}
	h.logger.Debug("properties listed", zap.Int("count", len(out)))
	jsonutil.OK(w, out)
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, stderrors.New("not a positive integer")
	}
	return n, nil
}

type propertyInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Type        *string   `json:"type"`
	Location    *string   `json:"location"`
	Price       *float64  `json:"price"`
	Rooms       *int      `json:"rooms"`
	Amenities   *[]string `json:"amenities"`
	Images      *[]string `json:"images"`
	Contact     *string   `json:"contact"`
	Available   *bool     `json:"available"`
}

// sanitize cleans free text in place and returns a validation message, or
// "" when the input is acceptable.
func (in *propertyInput) sanitize() string {
	text := func(p **string) {
		if *p != nil {
			v := htmlsanitize.Text(**p)
			*p = &v
		}
	}
	text(&in.Title)
	text(&in.Type)
	text(&in.Location)
	text(&in.Contact)
	if in.Description != nil {
		v := htmlsanitize.RichText(*in.Description)
		in.Description = &v
	}
	if in.Amenities != nil {
		v := htmlsanitize.Strings(*in.Amenities)
		in.Amenities = &v
	}
	if in.Images != nil {
		v := htmlsanitize.Strings(*in.Images)
		in.Images = &v
	}

	if in.Title != nil && *in.Title == "" {
		return "Title must not be empty"
	}
	if in.Location != nil && *in.Location == "" {
		return "Location must not be empty"
	}
	if in.Price != nil && *in.Price < 0 {
		return "Price must not be negative"
	}
	if in.Rooms != nil && *in.Rooms < 0 {
		return "Rooms must not be negative"
	}
	return ""
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Create handles POST /.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in propertyInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Title == nil || in.Location == nil || in.Price == nil {
		jsonutil.BadRequest(w, "Title, location and price are required")
		return
	}
	if msg := in.sanitize(); msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	p := models.Property{
		Title:       *in.Title,
		Description: deref(in.Description),
		Type:        deref(in.Type),
		Location:    *in.Location,
		Price:       *in.Price,
		Rooms:       deref(in.Rooms),
		Amenities:   deref(in.Amenities),
		Images:      deref(in.Images),
		Contact:     deref(in.Contact),
		Available:   in.Available == nil || *in.Available,
	}

	s, ok := h.store(w, r, "create property")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "create property")
	defer cancel()

	created, err := s.Create(ctx, p)
	if err != nil {
		h.errs.Store(w, r, "create property", err, jsonutil.Error)
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
	s, ok := h.store(w, r, "get property")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "get property")
	defer cancel()

	p, err := s.Get(ctx, id)
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "get property", err, jsonutil.Error)
		return
	}
	jsonutil.OK(w, p)
}

// Update handles PUT /{id}. Only fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, MsgInvalidID)
		return
	}
	var in propertyInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if msg := in.sanitize(); msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	s, ok := h.store(w, r, "update property")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "update property")
	defer cancel()

	p, err := s.Update(ctx, id, propertystore.Update{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Location:    in.Location,
		Price:       in.Price,
		Rooms:       in.Rooms,
		Amenities:   in.Amenities,
		Images:      in.Images,
		Contact:     in.Contact,
		Available:   in.Available,
	})
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "update property", err, jsonutil.Error)
		return
	}
	jsonutil.OK(w, p)
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, MsgInvalidID)
		return
	}
	s, ok := h.store(w, r, "delete property")
	if !ok {
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "delete property")
	defer cancel()

	err = s.Delete(ctx, id)
	if stderrors.Is(err, storeutil.ErrNotFound) {
		jsonutil.NotFound(w, MsgNotFound)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "delete property", err, jsonutil.Error)
		return
	}
	h.logger.Info("property deleted", zap.String("id", id.Hex()))
	jsonutil.Message(w, http.StatusOK, MsgDeleted)
}
