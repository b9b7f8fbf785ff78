package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/dogadopt-api/internal/domain"
)

// UserStore defines the interface for the credential store.
type UserStore interface {
	// Create saves a new user with an already-hashed password.
	// Returns ErrUsernameExists if the username is already taken (exact, case-sensitive match).
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername retrieves a user, including the password hash, by username.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetPublicByIDs resolves weak user references in one round trip.
	// Unknown ids are simply absent from the returned map.
	GetPublicByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.PublicUser, error)
}
