package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserID returns the authenticated user id stored by RequireToken.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of ctx carrying id. Used by RequireToken and
// by tests that exercise handlers directly.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// RequireToken validates a bearer token issued by tokens and stores its
// user id in the request context. Missing or invalid tokens answer 401;
// a deployment without a signing secret answers 500.
func RequireToken(tokens *authutil.TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokens.Configured() {
				logger.Error("token auth requested but jwt_secret is not configured")
				jsonutil.Message(w, http.StatusInternalServerError, "Server configuration error")
				return
			}

			raw, ok := bearer(r)
			if !ok {
				jsonutil.Message(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				jsonutil.Message(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}
