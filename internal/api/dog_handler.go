package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/service"
)

// DogHandler handles listing-related HTTP requests.
type DogHandler struct {
	dogs   service.DogService
	logger *slog.Logger
}

// NewDogHandler creates a new DogHandler.
func NewDogHandler(dogs service.DogService, logger *slog.Logger) *DogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DogHandler{
		dogs:   dogs,
		logger: logger.With(slog.String("component", "dog_handler")),
	}
}

// Register handles POST /api/dogs.
func (h *DogHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req RegisterDogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.dogs.RegisterDog(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("dog registered",
		slog.String("dog_id", view.Dog.ID.String()),
		slog.String("owner_id", userID.String()))
	shared.RespondSuccess(w, r, http.StatusCreated, "Dog registered successfully",
		DogEnvelope{Dog: dogToResponse(view)})
}

// ListAvailable handles GET /api/dogs.
func (h *DogHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.dogs.ListAvailable(r.Context(), page)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "", dogPageToResponse(result))
}

// ListRegistered handles GET /api/dogs/registered.
func (h *DogHandler) ListRegistered(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	status, err := parseStatusFilter(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.dogs.ListRegistered(r.Context(), userID, status, page)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "", dogPageToResponse(result))
}

// ListAdopted handles GET /api/dogs/adopted.
func (h *DogHandler) ListAdopted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.dogs.ListAdopted(r.Context(), userID, page)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "", dogPageToResponse(result))
}

// Get handles GET /api/dogs/{id}.
func (h *DogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	dogID, err := pathDogID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	view, err := h.dogs.GetByID(r.Context(), dogID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "", DogEnvelope{Dog: dogToResponse(view)})
}

// Adopt handles PUT /api/dogs/{id}/adopt.
func (h *DogHandler) Adopt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	dogID, err := pathDogID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req AdoptDogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.dogs.AdoptDog(r.Context(), dogID, userID, req.Message)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("dog adopted",
		slog.String("dog_id", dogID.String()),
		slog.String("adopter_id", userID.String()))
	shared.RespondSuccess(w, r, http.StatusOK, "Dog adopted successfully",
		DogEnvelope{Dog: dogToResponse(view)})
}

// Remove handles DELETE /api/dogs/{id}.
func (h *DogHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	dogID, err := pathDogID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if err := h.dogs.RemoveDog(r.Context(), dogID, userID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("dog removed",
		slog.String("dog_id", dogID.String()),
		slog.String("owner_id", userID.String()))
	shared.RespondSuccess(w, r, http.StatusOK, "Dog removed successfully", nil)
}
