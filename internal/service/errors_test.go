package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{ErrDogNotFound, ErrNotOwned, ErrAlreadyAdopted, ErrSelfAdoption}

	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}

	assert.Equal(t, "resource is owned by another user", ErrNotOwned.Error())
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "dog",
			op:       "adopt",
			err:      errors.New("database connection failed"),
			expected: "dog service adopt operation failed: database connection failed",
		},
		{
			name:     "without underlying error",
			service:  "dog",
			op:       "remove",
			err:      nil,
			expected: "dog service remove operation failed",
		},
		{
			name:     "with sentinel error",
			service:  "dog",
			op:       "remove",
			err:      ErrNotOwned,
			expected: "dog service remove operation failed: resource is owned by another user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceErr := &ServiceError{Service: tt.service, Op: tt.op, Err: tt.err}
			assert.Equal(t, tt.expected, serviceErr.Error())
		})
	}
}

func TestServiceError_ChainedErrors(t *testing.T) {
	baseErr := errors.New("database connection lost")
	serviceErr1 := NewServiceError("store", "query", baseErr)
	serviceErr2 := NewServiceError("service", "get", serviceErr1)

	assert.True(t, errors.Is(serviceErr2, baseErr))
	assert.True(t, errors.Is(serviceErr2, serviceErr1))

	var serviceErr *ServiceError
	assert.True(t, errors.As(serviceErr2, &serviceErr))
	assert.Equal(t, "service", serviceErr.Service)
	assert.Equal(t, "get", serviceErr.Op)
}

func TestNewDogServiceError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, NewDogServiceError("get_dog", "failed", nil))
	})

	t.Run("store not found becomes service sentinel", func(t *testing.T) {
		wrapped := fmt.Errorf("failed to get dog: %w", store.ErrDogNotFound)
		assert.Same(t, ErrDogNotFound, NewDogServiceError("get_dog", "failed", wrapped))
	})

	t.Run("sentinels pass through", func(t *testing.T) {
		for _, err := range []error{ErrNotOwned, ErrAlreadyAdopted, ErrSelfAdoption} {
			assert.Same(t, err, NewDogServiceError("adopt_dog", "failed", err))
		}
	})

	t.Run("validation errors pass through", func(t *testing.T) {
		verr := domain.ValidationErrors{domain.NewValidationError("name", "cannot be empty", nil)}
		err := NewDogServiceError("register_dog", "failed", verr)
		assert.ErrorIs(t, err, domain.ErrValidation)

		var dogErr *DogServiceError
		assert.False(t, errors.As(err, &dogErr))
	})

	t.Run("unexpected errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewDogServiceError("list_available", "failed to list dogs", cause)

		var dogErr *DogServiceError
		assert.True(t, errors.As(err, &dogErr))
		assert.Equal(t, "list_available", dogErr.Operation)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t,
			"dog service list_available failed: failed to list dogs: connection reset",
			err.Error())
	})
}
