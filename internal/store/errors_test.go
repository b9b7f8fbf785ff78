package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrUserNotFound", ErrUserNotFound, true},
		{"wrapped ErrDogNotFound", fmt.Errorf("get dog: %w", ErrDogNotFound), true},
		{"duplicate", ErrUsernameExists, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrUsernameExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrDogNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStoreError("dog", "create", "insert failed", cause)

	assert.Equal(t, "create operation on dog failed: insert failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("user", "get", "not readable", nil)
	assert.Equal(t, "get operation on user failed: not readable", bare.Error())
}
