package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/dogadopt-api/internal/domain"
)

// DogFilter narrows List and Count. Nil fields are not applied.
type DogFilter struct {
	OwnerID   *uuid.UUID
	AdopterID *uuid.UUID
	Status    *domain.DogStatus
}

// DogStore defines the interface for the listing store.
type DogStore interface {
	// Create saves a new listing.
	// Returns store.ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, dog *domain.Dog) error

	// GetByID retrieves a listing by id.
	// Returns ErrDogNotFound if the listing does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dog, error)

	// List returns one page of listings matching filter, newest first.
	List(ctx context.Context, filter DogFilter, page domain.PageRequest) ([]*domain.Dog, error)

	// Count returns the number of listings matching filter.
	Count(ctx context.Context, filter DogFilter) (int, error)

	// Adopt performs the available -> adopted transition as one conditional write,
	// guarded by status = available and owner <> adopterID, and returns the updated listing.
	// Returns ErrConditionFailed when the guard matched no row (missing dog,
	// already adopted, or self-adoption); the caller classifies the failure.
	Adopt(ctx context.Context, id, adopterID uuid.UUID, message string, at time.Time) (*domain.Dog, error)

	// DeleteAvailable removes a listing guarded by owner = ownerID and status = available.
	// Returns ErrConditionFailed when the guard matched no row.
	DeleteAvailable(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a new DogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DogStore
}
