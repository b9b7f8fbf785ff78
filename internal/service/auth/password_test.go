package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.NoError(t, hasher.Compare(hash, "s3cret!"))
	assert.Error(t, hasher.Compare(hash, "wrong"))

	again, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestNewBcryptHasherCostBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost())
	assert.Equal(t, 12, NewBcryptHasher(12).Cost())
}

func TestBcryptHasherRejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash(string(long))
	assert.Error(t, err)
}
