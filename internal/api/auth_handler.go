package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/service/auth"
)

// AuthService is the account behaviour the auth handler depends on.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*auth.Session, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		auth:   authService,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondSuccess(w, r, http.StatusCreated, "User registered successfully",
		AuthResponse{Token: session.Token, User: session.User})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondSuccess(w, r, http.StatusOK, "Login successful",
		AuthResponse{Token: session.Token, User: session.User})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.auth.GetProfile(r.Context(), userID)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("profile lookup failed",
			slog.String("user_id", userID.String()))
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondSuccess(w, r, http.StatusOK, "", ProfileResponse{User: ProfileUser{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}})
}

// decodeAndValidate decodes the JSON body into req and checks its struct
// tags, writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	if fields := shared.ValidateRequest(req); len(fields) > 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, MsgValidationFailed,
			shared.WithFieldErrors(fields))
		return false
	}
	return true
}
