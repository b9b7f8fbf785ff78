package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
// Length and character rules are enforced by the domain.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterDogRequest defines the payload for creating a listing.
type RegisterDogRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description" validate:"required"`
}

// AdoptDogRequest defines the optional payload for adopting a listing.
type AdoptDogRequest struct {
	Message string `json:"message" validate:"max=200"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// ProfileUser is the caller's own account as shown by the profile endpoint.
type ProfileUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileResponse wraps the caller's account.
type ProfileResponse struct {
	User ProfileUser `json:"user"`
}

// DogResponse is a listing with owner and adopter resolved to public fields.
type DogResponse struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Owner           domain.PublicUser  `json:"owner"`
	Adopter         *domain.PublicUser `json:"adopter"`
	AdoptionMessage string             `json:"adoptionMessage,omitempty"`
	Status          domain.DogStatus   `json:"status"`
	AdoptedAt       *time.Time         `json:"adoptedAt"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// DogEnvelope wraps a single listing under "dog".
type DogEnvelope struct {
	Dog DogResponse `json:"dog"`
}

// DogListResponse is one page of listings.
type DogListResponse struct {
	Dogs       []DogResponse     `json:"dogs"`
	Pagination domain.Pagination `json:"pagination"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

func dogToResponse(v *service.DogView) DogResponse {
	return DogResponse{
		ID:              v.Dog.ID,
		Name:            v.Dog.Name,
		Description:     v.Dog.Description,
		Owner:           v.Owner,
		Adopter:         v.Adopter,
		AdoptionMessage: v.Dog.AdoptionMessage,
		Status:          v.Dog.Status,
		AdoptedAt:       v.Dog.AdoptedAt,
		CreatedAt:       v.Dog.CreatedAt,
		UpdatedAt:       v.Dog.UpdatedAt,
	}
}

func dogPageToResponse(page *service.DogPage) DogListResponse {
	dogs := make([]DogResponse, 0, len(page.Dogs))
	for i := range page.Dogs {
		dogs = append(dogs, dogToResponse(&page.Dogs[i]))
	}
	return DogListResponse{Dogs: dogs, Pagination: page.Pagination}
}
