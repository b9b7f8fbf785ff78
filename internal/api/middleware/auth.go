package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/api"
	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/redact"
	"github.com/phrazzld/dogadopt-api/internal/service/auth"
)

// Authenticator resolves a bearer token to the caller's user id.
// *auth.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthMiddleware provides bearer token authentication for routes.
type AuthMiddleware struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authenticator Authenticator, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		auth:   authenticator,
		logger: logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate validates the token in the Authorization header and adds the
// user ID to the request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, api.MsgMissingToken)
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, api.MsgInvalidToken)
			return
		}

		userID, err := m.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrExpiredToken) &&
				!errors.Is(err, auth.ErrMissingToken) {
				logger.FromContextOrDefault(r.Context(), m.logger).Warn("token validation failed",
					redact.ErrorAttr(err))
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, api.MsgInvalidToken)
			return
		}

		ctx := shared.WithUserID(r.Context(), userID)
		ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, m.logger).With(
			slog.String("user_id", userID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
