package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DogStatus is the adoption state of a listing.
type DogStatus string

// Possible dog status values. The only transition is available -> adopted.
const (
	DogStatusAvailable DogStatus = "available"
	DogStatusAdopted   DogStatus = "adopted"
)

// Listing field limits.
const (
	DogNameMaxLength         = 50
	DogDescriptionMaxLength  = 500
	AdoptionMessageMaxLength = 200
)

// Dog is a listing. OwnerID and AdopterID are weak references to users:
// only the id is stored and public user fields are looked up at read time.
type Dog struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	OwnerID         uuid.UUID  `json:"ownerId"`
	AdopterID       *uuid.UUID `json:"adopterId"`
	AdoptionMessage string     `json:"adoptionMessage,omitempty"`
	Status          DogStatus  `json:"status"`
	AdoptedAt       *time.Time `json:"adoptedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewDog creates an available listing owned by ownerID.
// Name and description are trimmed before validation.
func NewDog(ownerID uuid.UUID, name, description string) (*Dog, error) {
	now := time.Now().UTC()
	dog := &Dog{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		Status:      DogStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := dog.Validate(); err != nil {
		return nil, err
	}

	return dog, nil
}

// Validate checks field limits and the adoption invariant:
// status is adopted exactly when adopter and adoption time are set.
func (d *Dog) Validate() error {
	var errs ValidationErrors

	if d.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty", ErrInvalidID))
	}
	if d.OwnerID == uuid.Nil {
		errs = append(errs, NewValidationError("owner", "cannot be empty", ErrInvalidID))
	}
	if n := utf8.RuneCountInString(d.Name); n < 1 || n > DogNameMaxLength {
		errs = append(errs, NewValidationError("name", "must be between 1 and 50 characters", nil))
	}
	if n := utf8.RuneCountInString(d.Description); n < 1 || n > DogDescriptionMaxLength {
		errs = append(errs, NewValidationError("description", "must be between 1 and 500 characters", nil))
	}
	if err := ValidateAdoptionMessage(d.AdoptionMessage); err != nil {
		errs = append(errs, err.(*ValidationError))
	}

	switch d.Status {
	case DogStatusAvailable:
		if d.AdopterID != nil || d.AdoptedAt != nil {
			errs = append(errs, NewValidationError("status", "available dogs cannot have an adopter", ErrInvalidDogStatus))
		}
	case DogStatusAdopted:
		if d.AdopterID == nil || d.AdoptedAt == nil {
			errs = append(errs, NewValidationError("status", "adopted dogs must have an adopter and adoption time", ErrInvalidDogStatus))
		} else if *d.AdopterID == d.OwnerID {
			errs = append(errs, NewValidationError("adopter", "cannot be the owner", nil))
		}
	default:
		errs = append(errs, NewValidationError("status", "must be available or adopted", ErrInvalidDogStatus))
	}

	return errs.OrNil()
}

// IsAdopted reports whether the listing has completed its one transition.
func (d *Dog) IsAdopted() bool {
	return d.Status == DogStatusAdopted
}

// ValidateAdoptionMessage enforces the optional message limit.
// The returned error, if any, is a *ValidationError.
func ValidateAdoptionMessage(message string) error {
	if utf8.RuneCountInString(message) > AdoptionMessageMaxLength {
		return NewValidationError("message", "cannot exceed 200 characters", nil)
	}
	return nil
}

// ParseDogStatus converts a query value into a DogStatus.
func ParseDogStatus(s string) (DogStatus, error) {
	switch DogStatus(s) {
	case DogStatusAvailable, DogStatusAdopted:
		return DogStatus(s), nil
	default:
		return "", NewValidationError("status", "must be available or adopted", ErrInvalidDogStatus)
	}
}
