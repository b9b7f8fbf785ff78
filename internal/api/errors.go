package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/service"
	"github.com/phrazzld/dogadopt-api/internal/service/auth"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// Client-facing messages.
const (
	MsgValidationFailed    = "Validation failed"
	MsgInvalidJSON         = "Invalid request format"
	MsgUsernameExists      = "Username already exists"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgMissingToken        = "Access token is required"
	MsgInvalidToken        = "Invalid or expired token"
	MsgDogNotFound         = "Dog not found"
	MsgUserNotFound        = "User not found"
	MsgNotOwner            = "You can only remove your own dogs"
	MsgAlreadyAdopted      = "Dog has already been adopted"
	MsgSelfAdoption        = "You cannot adopt your own dog"
	MsgRouteNotFound       = "Route not found"
	MsgMethodNotAllowed    = "Method not allowed"
	MsgTooManyRequests     = "Too many requests from this IP, please try again later"
	MsgInternalServerError = "Internal server error"
)

// MapErrorToStatusCode maps service, store and domain errors to HTTP status
// codes. Unknown errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrInvalidJSON),
		errors.Is(err, store.ErrUsernameExists),
		errors.Is(err, service.ErrAlreadyAdopted),
		errors.Is(err, service.ErrSelfAdoption):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, service.ErrDogNotFound),
		errors.Is(err, store.ErrDogNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err. It never
// includes text from err itself.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return MsgInternalServerError
	case errors.Is(err, domain.ErrValidation):
		return MsgValidationFailed
	case errors.Is(err, shared.ErrInvalidJSON):
		return MsgInvalidJSON
	case errors.Is(err, store.ErrUsernameExists):
		return MsgUsernameExists
	case errors.Is(err, auth.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, auth.ErrMissingToken):
		return MsgMissingToken
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return MsgInvalidToken
	case errors.Is(err, service.ErrDogNotFound), errors.Is(err, store.ErrDogNotFound):
		return MsgDogNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return MsgUserNotFound
	case errors.Is(err, service.ErrNotOwned):
		return MsgNotOwner
	case errors.Is(err, service.ErrAlreadyAdopted):
		return MsgAlreadyAdopted
	case errors.Is(err, service.ErrSelfAdoption):
		return MsgSelfAdoption
	default:
		return MsgInternalServerError
	}
}

// ValidationFieldErrors extracts field details from domain validation errors.
func ValidationFieldErrors(err error) []shared.FieldError {
	var many domain.ValidationErrors
	if errors.As(err, &many) {
		out := make([]shared.FieldError, 0, len(many))
		for _, e := range many {
			out = append(out, shared.FieldError{Field: e.Field, Message: e.Message})
		}
		return out
	}

	var one *domain.ValidationError
	if errors.As(err, &one) {
		return []shared.FieldError{{Field: one.Field, Message: one.Message}}
	}
	return nil
}

// HandleAPIError writes the error envelope for err. Validation errors carry
// their field details; everything else gets only the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	var opts []shared.ResponseOption
	if fields := ValidationFieldErrors(err); len(fields) > 0 {
		opts = append(opts, shared.WithFieldErrors(fields))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
