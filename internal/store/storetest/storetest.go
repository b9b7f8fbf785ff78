// Package storetest holds a behavioural test suite that every store backend
// must pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// Backend is one freshly migrated, empty database plus its stores.
type Backend struct {
	DB    *sql.DB
	Users store.UserStore
	Dogs  store.DogStore
}

// Factory returns a new empty Backend. It registers its own cleanup.
type Factory func(t *testing.T) Backend

// Run executes the full suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("users", func(t *testing.T) { runUserTests(t, newBackend) })
	t.Run("dogs", func(t *testing.T) { runDogTests(t, newBackend) })
}

// CreateUser stores a user with a placeholder hash.
func CreateUser(t *testing.T, users store.UserStore, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "$2a$04$placeholderhashplaceholderhashplaceholderhashpla")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

// CreateDog stores an available dog owned by ownerID.
func CreateDog(t *testing.T, dogs store.DogStore, ownerID uuid.UUID, name string) *domain.Dog {
	t.Helper()
	dog, err := domain.NewDog(ownerID, name, "A very good dog")
	require.NoError(t, err)
	require.NoError(t, dogs.Create(context.Background(), dog))
	return dog
}

func runUserTests(t *testing.T, newBackend Factory) {
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		b := newBackend(t)
		user := CreateUser(t, b.Users, "alice")

		byID, err := b.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, user.PasswordHash, byID.PasswordHash)
		assert.WithinDuration(t, user.CreatedAt, byID.CreatedAt, time.Second)

		byName, err := b.Users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
	})

	t.Run("username is unique and case-sensitive", func(t *testing.T) {
		b := newBackend(t)
		CreateUser(t, b.Users, "alice")

		dup, err := domain.NewUser("alice", "hash")
		require.NoError(t, err)
		err = b.Users.Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrUsernameExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)

		CreateUser(t, b.Users, "Alice")
	})

	t.Run("missing users", func(t *testing.T) {
		b := newBackend(t)

		_, err := b.Users.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		_, err = b.Users.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("resolve public users", func(t *testing.T) {
		b := newBackend(t)
		alice := CreateUser(t, b.Users, "alice")
		bob := CreateUser(t, b.Users, "bob")

		got, err := b.Users.GetPublicByIDs(ctx, []uuid.UUID{alice.ID, bob.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "alice", got[alice.ID].Username)
		assert.Equal(t, "bob", got[bob.ID].Username)

		empty, err := b.Users.GetPublicByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func runDogTests(t *testing.T, newBackend Factory) {
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		dog := CreateDog(t, b.Dogs, owner.ID, "Rex")

		got, err := b.Dogs.GetByID(ctx, dog.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rex", got.Name)
		assert.Equal(t, owner.ID, got.OwnerID)
		assert.Equal(t, domain.DogStatusAvailable, got.Status)
		assert.Nil(t, got.AdopterID)
		assert.Nil(t, got.AdoptedAt)

		_, err = b.Dogs.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrDogNotFound)
	})

	t.Run("create with unknown owner", func(t *testing.T) {
		b := newBackend(t)
		dog, err := domain.NewDog(uuid.New(), "Rex", "desc")
		require.NoError(t, err)

		err = b.Dogs.Create(ctx, dog)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("adopt transitions once", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		adopter := CreateUser(t, b.Users, "adopter")
		dog := CreateDog(t, b.Dogs, owner.ID, "Rex")

		at := time.Now().UTC()
		adopted, err := b.Dogs.Adopt(ctx, dog.ID, adopter.ID, "I love him", at)
		require.NoError(t, err)
		assert.Equal(t, domain.DogStatusAdopted, adopted.Status)
		require.NotNil(t, adopted.AdopterID)
		assert.Equal(t, adopter.ID, *adopted.AdopterID)
		assert.Equal(t, "I love him", adopted.AdoptionMessage)
		require.NotNil(t, adopted.AdoptedAt)
		assert.WithinDuration(t, at, *adopted.AdoptedAt, time.Second)
		assert.NoError(t, adopted.Validate())

		_, err = b.Dogs.Adopt(ctx, dog.ID, adopter.ID, "", time.Now().UTC())
		assert.ErrorIs(t, err, store.ErrConditionFailed)
	})

	t.Run("adopt guard rejects owner and missing dog", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		dog := CreateDog(t, b.Dogs, owner.ID, "Rex")

		_, err := b.Dogs.Adopt(ctx, dog.ID, owner.ID, "", time.Now().UTC())
		assert.ErrorIs(t, err, store.ErrConditionFailed)

		_, err = b.Dogs.Adopt(ctx, uuid.New(), owner.ID, "", time.Now().UTC())
		assert.ErrorIs(t, err, store.ErrConditionFailed)

		got, err := b.Dogs.GetByID(ctx, dog.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DogStatusAvailable, got.Status)
	})

	t.Run("concurrent adoption has one winner", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		dog := CreateDog(t, b.Dogs, owner.ID, "Rex")

		const contenders = 8
		adopters := make([]*domain.User, contenders)
		for i := range adopters {
			adopters[i] = CreateUser(t, b.Users, fmt.Sprintf("adopter_%d", i))
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			failures  int
		)
		start := make(chan struct{})
		for _, a := range adopters {
			wg.Add(1)
			go func(adopterID uuid.UUID) {
				defer wg.Done()
				<-start
				_, err := b.Dogs.Adopt(ctx, dog.ID, adopterID, "", time.Now().UTC())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, store.ErrConditionFailed):
					failures++
				default:
					t.Errorf("unexpected adopt error: %v", err)
				}
			}(a.ID)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, contenders-1, failures)

		stored, err := b.Dogs.GetByID(ctx, dog.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DogStatusAdopted, stored.Status)
		assert.NoError(t, stored.Validate())
	})

	t.Run("delete available only by owner", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		other := CreateUser(t, b.Users, "other")
		dog := CreateDog(t, b.Dogs, owner.ID, "Rex")
		adoptedDog := CreateDog(t, b.Dogs, owner.ID, "Fido")
		_, err := b.Dogs.Adopt(ctx, adoptedDog.ID, other.ID, "", time.Now().UTC())
		require.NoError(t, err)

		assert.ErrorIs(t, b.Dogs.DeleteAvailable(ctx, dog.ID, other.ID), store.ErrConditionFailed)
		assert.ErrorIs(t, b.Dogs.DeleteAvailable(ctx, adoptedDog.ID, owner.ID), store.ErrConditionFailed)
		assert.ErrorIs(t, b.Dogs.DeleteAvailable(ctx, uuid.New(), owner.ID), store.ErrConditionFailed)

		require.NoError(t, b.Dogs.DeleteAvailable(ctx, dog.ID, owner.ID))
		_, err = b.Dogs.GetByID(ctx, dog.ID)
		assert.ErrorIs(t, err, store.ErrDogNotFound)

		_, err = b.Dogs.GetByID(ctx, adoptedDog.ID)
		assert.NoError(t, err)
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		adopter := CreateUser(t, b.Users, "adopter")

		base := time.Now().UTC().Add(-time.Hour)
		var ids []uuid.UUID
		for i := 0; i < 5; i++ {
			dog, err := domain.NewDog(owner.ID, fmt.Sprintf("Dog %d", i), "desc")
			require.NoError(t, err)
			dog.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			dog.UpdatedAt = dog.CreatedAt
			require.NoError(t, b.Dogs.Create(ctx, dog))
			ids = append(ids, dog.ID)
		}
		_, err := b.Dogs.Adopt(ctx, ids[1], adopter.ID, "", time.Now().UTC())
		require.NoError(t, err)

		page, err := domain.NewPageRequest(1, 2)
		require.NoError(t, err)

		all, err := b.Dogs.List(ctx, store.DogFilter{OwnerID: &owner.ID}, page)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, ids[4], all[0].ID)
		assert.Equal(t, ids[3], all[1].ID)

		count, err := b.Dogs.Count(ctx, store.DogFilter{OwnerID: &owner.ID})
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		available := domain.DogStatusAvailable
		count, err = b.Dogs.Count(ctx, store.DogFilter{Status: &available})
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		adopted, err := b.Dogs.List(ctx, store.DogFilter{AdopterID: &adopter.ID}, page)
		require.NoError(t, err)
		require.Len(t, adopted, 1)
		assert.Equal(t, ids[1], adopted[0].ID)

		page3, err := domain.NewPageRequest(3, 2)
		require.NoError(t, err)
		last, err := b.Dogs.List(ctx, store.DogFilter{OwnerID: &owner.ID}, page3)
		require.NoError(t, err)
		require.Len(t, last, 1)
		assert.Equal(t, ids[0], last[0].ID)

		beyond, err := domain.NewPageRequest(9, 2)
		require.NoError(t, err)
		none, err := b.Dogs.List(ctx, store.DogFilter{OwnerID: &owner.ID}, beyond)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("list and count inside a transaction", func(t *testing.T) {
		b := newBackend(t)
		owner := CreateUser(t, b.Users, "owner")
		CreateDog(t, b.Dogs, owner.ID, "Rex")

		err := store.RunInTransaction(ctx, b.DB, func(ctx context.Context, tx *sql.Tx) error {
			dogs := b.Dogs.WithTx(tx)
			count, err := dogs.Count(ctx, store.DogFilter{})
			if err != nil {
				return err
			}
			assert.Equal(t, 1, count)

			list, err := dogs.List(ctx, store.DogFilter{}, domain.PageRequest{Page: 1, Limit: 10})
			if err != nil {
				return err
			}
			assert.Len(t, list, 1)
			return nil
		})
		require.NoError(t, err)
	})
}
