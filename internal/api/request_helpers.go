package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/service"
)

// requireUserID returns the authenticated caller, or writes a 401 and
// returns false. Routes behind the auth middleware always have one.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, MsgMissingToken)
		return uuid.Nil, false
	}
	return userID, true
}

// pathDogID parses the {id} path parameter. A malformed id cannot name an
// existing listing, so it is reported as not found.
func pathDogID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrDogNotFound
	}
	return id, nil
}

// parsePageRequest reads the page and limit query parameters. Missing values
// select the defaults; range checks happen in domain.NewPageRequest.
func parsePageRequest(r *http.Request) (domain.PageRequest, error) {
	var errs domain.ValidationErrors

	page, ok := queryInt(r, "page")
	if !ok {
		errs = append(errs, domain.NewValidationError("page", "must be a positive integer", nil))
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		errs = append(errs, domain.NewValidationError("limit", "must be between 1 and 100", nil))
	}
	if err := errs.OrNil(); err != nil {
		return domain.PageRequest{}, err
	}

	return domain.NewPageRequest(page, limit)
}

// queryInt returns 0 for an absent parameter and false for a non-integer one.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if n == 0 {
		// explicit zero must not silently select the default
		return -1, true
	}
	return n, true
}

// parseStatusFilter reads the optional status query parameter.
func parseStatusFilter(r *http.Request) (*domain.DogStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status, err := domain.ParseDogStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
