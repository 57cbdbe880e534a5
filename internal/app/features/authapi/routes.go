package authapi

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the account endpoints.
//
// When mounted at /api/auth:
//   - POST /api/auth/register - Create an account
//   - POST /api/auth/login    - Exchange credentials for a bearer token
//   - PUT  /api/auth/update   - Update the caller's profile (bearer token)
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(auth.RequireToken(h.tokens, h.logger)).Put("/update", h.Update)
	return r
}
