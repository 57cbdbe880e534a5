// Package authapi provides the account endpoints: register, login, and
// profile update.
//
// Errors use the {"message": ...} shape the mobile and web clients expect.
//
// PUT /update identifies the caller from the bearer token issued by login.
// A userId field in the body is ignored, so a request without a valid
// Authorization header is answered 401 even when it names a user.
package authapi

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/features/errors"
	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratagate/internal/app/store/users"
	"github.com/dalemusser/stratagate/internal/app/system/accesslog"
	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/inputval"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidJSON        = "Invalid JSON payload"
	MsgFieldsRequired     = "All fields are required"
	MsgEmailExists        = "Email already exists"
	MsgRegistered         = "User registered successfully"
	MsgCredsRequired      = "Email and password are required"
	MsgInvalidCredentials = "Invalid credentials"
	MsgServerConfig       = "Server configuration error"
	MsgUserNotFound       = "User not found"
	MsgUserUpdated        = "User updated successfully"
	MsgInvalidEmail       = "A valid email address is required."
)

// Handler serves /api/auth.
type Handler struct {
	db     storeutil.Provider
	tokens *authutil.TokenIssuer
	logger *zap.Logger
	errs   *errors.ErrorLogger
}

// NewHandler creates a new auth Handler.
func NewHandler(db storeutil.Provider, tokens *authutil.TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		db:     db,
		tokens: tokens,
		logger: logger,
		errs:   errors.NewErrorLogger(logger),
	}
}

type registerInput struct {
	Name     string `json:"name" validate:"max=100" label:"Name"`
	Email    string `json:"email" validate:"emailaddr,max=254" label:"Email"`
	Phone    string `json:"phone" validate:"max=32" label:"Phone"`
	Password string `json:"password"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Message(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		jsonutil.Message(w, http.StatusBadRequest, MsgFieldsRequired)
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.Message(w, http.StatusBadRequest, res.First())
		return
	}
	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		jsonutil.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, "register", err, jsonutil.Message)
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "register")
	defer cancel()

	users := userstore.New(db)
	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		h.logger.Info("registration rejected: email exists", zap.String("email", in.Email))
		jsonutil.Message(w, http.StatusBadRequest, MsgEmailExists)
		return
	} else if !stderrors.Is(err, storeutil.ErrNotFound) {
		h.errs.Store(w, r, "register lookup", err, jsonutil.Message)
		return
	}

	u, err := users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	})
	if stderrors.Is(err, userstore.ErrDuplicateEmail) {
		jsonutil.Message(w, http.StatusBadRequest, MsgEmailExists)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "register insert", err, jsonutil.Message)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("email", u.Email))
	jsonutil.Message(w, http.StatusCreated, MsgRegistered)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Message(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		jsonutil.Message(w, http.StatusBadRequest, MsgCredsRequired)
		return
	}

	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, "login", err, jsonutil.Message)
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "login")
	defer cancel()

	u, err := userstore.New(db).GetByEmail(ctx, in.Email)
	if stderrors.Is(err, storeutil.ErrNotFound) {
		h.logger.Info("login failed: unknown email", zap.String("email", in.Email))
		jsonutil.Message(w, http.StatusBadRequest, MsgInvalidCredentials)
		return
	}
	if err != nil {
		h.errs.Store(w, r, "login lookup", err, jsonutil.Message)
		return
	}
	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.logger.Info("login failed: bad password", zap.String("user_id", u.ID.Hex()))
		jsonutil.Message(w, http.StatusBadRequest, MsgInvalidCredentials)
		return
	}

	if !h.tokens.Configured() {
		h.logger.Error("login: jwt_secret is not configured")
		jsonutil.Message(w, http.StatusInternalServerError, MsgServerConfig)
		return
	}
	token, err := h.tokens.Issue(u.ID.Hex())
	if err != nil {
		h.errs.Log(r, "issue token", err)
		jsonutil.Message(w, http.StatusInternalServerError, MsgServerConfig)
		return
	}

	accesslog.SetUserID(r.Context(), u.ID.Hex())
	h.logger.Info("login successful", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, LoginResponse{Token: token, User: u.Public()})
}

type updateInput struct {
	Name     string `json:"name" validate:"max=100" label:"Name"`
	Email    string `json:"email" validate:"max=254" label:"Email"`
	Phone    string `json:"phone" validate:"max=32" label:"Phone"`
	Password string `json:"password"`
}

// UpdateResponse is the body of a successful profile update.
type UpdateResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

// Update handles PUT /update for the authenticated user. Empty fields are
// left unchanged.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r.Context())
	if !ok {
		jsonutil.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	accesslog.SetUserID(r.Context(), uid)

	var in updateInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Message(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.Message(w, http.StatusBadRequest, res.First())
		return
	}

	id, err := storeutil.ParseID(uid)
	if err != nil {
		jsonutil.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	}

	var upd userstore.Update
	if v := strings.TrimSpace(in.Name); v != "" {
		upd.Name = &v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		if !inputval.IsValidEmail(v) {
			jsonutil.Message(w, http.StatusBadRequest, MsgInvalidEmail)
			return
		}
		upd.Email = &v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		upd.Phone = &v
	}
	if in.Password != "" {
		hash, err := authutil.HashPassword(in.Password)
		if err != nil {
			jsonutil.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.PasswordHash = &hash
	}

	db, err := storeutil.Database(h.db)
	if err != nil {
		h.errs.Store(w, r, "update user", err, jsonutil.Message)
		return
	}
	ctx, cancel := timeouts.QueryContext(r.Context(), h.logger, "update user")
	defer cancel()

	u, err := userstore.New(db).Update(ctx, id, upd)
	switch {
	case stderrors.Is(err, storeutil.ErrNotFound):
		jsonutil.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	case stderrors.Is(err, userstore.ErrDuplicateEmail):
		jsonutil.Message(w, http.StatusBadRequest, MsgEmailExists)
		return
	case err != nil:
		h.errs.Store(w, r, "update user", err, jsonutil.Message)
		return
	}

	h.logger.Info("user updated", zap.String("user_id", uid))
	jsonutil.OK(w, UpdateResponse{Message: MsgUserUpdated, User: u.Public()})
}
