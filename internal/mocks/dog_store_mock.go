package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// TestifyMockDogStore is a mock of store.DogStore interface for use with testify/mock.
// WithTx returns the mock itself.
type TestifyMockDogStore struct {
	mock.Mock
}

var _ store.DogStore = (*TestifyMockDogStore)(nil)

// Create is a mock implementation of store.DogStore.Create
func (m *TestifyMockDogStore) Create(ctx context.Context, dog *domain.Dog) error {
	args := m.Called(ctx, dog)
	return args.Error(0)
}

// GetByID is a mock implementation of store.DogStore.GetByID
func (m *TestifyMockDogStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dog, error) {
	args := m.Called(ctx, id)
	if dog, ok := args.Get(0).(*domain.Dog); ok {
		return dog, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.DogStore.List
func (m *TestifyMockDogStore) List(
	ctx context.Context,
	filter store.DogFilter,
	page domain.PageRequest,
) ([]*domain.Dog, error) {
	args := m.Called(ctx, filter, page)
	if dogs, ok := args.Get(0).([]*domain.Dog); ok {
		return dogs, args.Error(1)
	}
	return nil, args.Error(1)
}

// Count is a mock implementation of store.DogStore.Count
func (m *TestifyMockDogStore) Count(ctx context.Context, filter store.DogFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// Adopt is a mock implementation of store.DogStore.Adopt
func (m *TestifyMockDogStore) Adopt(
	ctx context.Context,
	id, adopterID uuid.UUID,
	message string,
	at time.Time,
) (*domain.Dog, error) {
	args := m.Called(ctx, id, adopterID, message, at)
	if dog, ok := args.Get(0).(*domain.Dog); ok {
		return dog, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteAvailable is a mock implementation of store.DogStore.DeleteAvailable
func (m *TestifyMockDogStore) DeleteAvailable(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// WithTx is a mock implementation of store.DogStore.WithTx
func (m *TestifyMockDogStore) WithTx(tx *sql.Tx) store.DogStore {
	return m
}
