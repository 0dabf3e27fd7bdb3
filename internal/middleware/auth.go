package middleware

import (
	"context"
	"net/http"
	"strings"

	"pantry-rest-api/internal/model"
	"pantry-rest-api/internal/service"
	"pantry-rest-api/pkg/apierror"
)

// SessionKey is the key for storing the validated session in request context.
const SessionKey contextKey = "session"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
}

// NewAuthMiddleware creates a session authentication middleware. Handlers
// behind it read the acting user id from the validated session only; a
// client-supplied user id is never trusted.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.TokenService == nil {
				writeError(w, apierror.ServiceUnavailable("session store unavailable"))
				return
			}

			token := r.Header.Get("X-Token")
			if token == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or Authorization header."))
				return
			}

			session, err := cfg.TokenService.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired session"))
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetSession retrieves the validated session from request context.
func GetSession(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(SessionKey).(*model.Session); ok {
		return s
	}
	return nil
}

// GetUserID returns the acting user id from the session, or 0 when the
// request is unauthenticated.
func GetUserID(ctx context.Context) int64 {
	if s := GetSession(ctx); s != nil {
		return s.UserID
	}
	return 0
}
