package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/events"
	"github.com/phrazzld/dogadopt-api/internal/mocks"
	"github.com/phrazzld/dogadopt-api/internal/platform/sqlite"
	"github.com/phrazzld/dogadopt-api/internal/service"
	"github.com/phrazzld/dogadopt-api/internal/store"
	"github.com/phrazzld/dogadopt-api/internal/store/storetest"
	"github.com/phrazzld/dogadopt-api/internal/testdb"
)

type fixture struct {
	svc     service.DogService
	users   store.UserStore
	dogs    store.DogStore
	emitted *recordingHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.NewSQLite(t)
	users := sqlite.NewSQLiteUserStore(db, nil)
	dogs := sqlite.NewSQLiteDogStore(db, nil)

	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(handler)

	svc, err := service.NewDogService(db, dogs, users, emitter, nil)
	require.NoError(t, err)

	return &fixture{svc: svc, users: users, dogs: dogs, emitted: handler}
}

type recordingHandler struct {
	mu    sync.Mutex
	types []events.Type
}

func (h *recordingHandler) HandleEvent(_ context.Context, e *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, e.Type)
	return nil
}

func (h *recordingHandler) EventTypes() []events.Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Type(nil), h.types...)
}

func firstPage() domain.PageRequest {
	return domain.PageRequest{Page: 1, Limit: 10}
}

func TestNewDogServiceValidation(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	dogs := &mocks.TestifyMockDogStore{}
	users := &mocks.TestifyMockUserStore{}

	_, err = service.NewDogService(nil, dogs, users, nil, nil)
	assert.ErrorContains(t, err, "db cannot be nil")

	_, err = service.NewDogService(db, nil, users, nil, nil)
	assert.ErrorContains(t, err, "dog store cannot be nil")

	_, err = service.NewDogService(db, dogs, nil, nil, nil)
	assert.ErrorContains(t, err, "user store cannot be nil")

	svc, err := service.NewDogService(db, dogs, users, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRegisterDog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	owner := storetest.CreateUser(t, f.users, "alice")

	t.Run("creates an available listing", func(t *testing.T) {
		view, err := f.svc.RegisterDog(ctx, owner.ID, "  Rex ", "Friendly")
		require.NoError(t, err)

		assert.Equal(t, "Rex", view.Dog.Name)
		assert.Equal(t, domain.DogStatusAvailable, view.Dog.Status)
		assert.Equal(t, owner.Public(), view.Owner)
		assert.Nil(t, view.Adopter)

		stored, err := f.dogs.GetByID(ctx, view.Dog.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, stored.OwnerID)

		types := f.emitted.EventTypes()
		require.NotEmpty(t, types)
		assert.Equal(t, events.TypeDogRegistered, types[len(types)-1])
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		_, err := f.svc.RegisterDog(ctx, owner.ID, "", strings.Repeat("x", 501))
		require.ErrorIs(t, err, domain.ErrValidation)

		var verrs domain.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Len(t, verrs, 2)
	})
}

func TestAdoptDog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("adopts an available dog", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := storetest.CreateUser(t, f.users, "owner")
		adopter := storetest.CreateUser(t, f.users, "adopter")
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Rex")

		view, err := f.svc.AdoptDog(ctx, dog.ID, adopter.ID, "I have a big yard")
		require.NoError(t, err)

		assert.Equal(t, domain.DogStatusAdopted, view.Dog.Status)
		assert.Equal(t, "I have a big yard", view.Dog.AdoptionMessage)
		require.NotNil(t, view.Adopter)
		assert.Equal(t, adopter.Public(), *view.Adopter)
		assert.Equal(t, owner.Public(), view.Owner)
		assert.NotNil(t, view.Dog.AdoptedAt)
		assert.Contains(t, f.emitted.EventTypes(), events.TypeDogAdopted)
	})

	t.Run("classifies rejected adoptions", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := storetest.CreateUser(t, f.users, "owner")
		adopter := storetest.CreateUser(t, f.users, "adopter")
		other := storetest.CreateUser(t, f.users, "other")
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Rex")

		_, err := f.svc.AdoptDog(ctx, uuid.New(), adopter.ID, "")
		assert.ErrorIs(t, err, service.ErrDogNotFound)

		_, err = f.svc.AdoptDog(ctx, dog.ID, owner.ID, "")
		assert.ErrorIs(t, err, service.ErrSelfAdoption)

		_, err = f.svc.AdoptDog(ctx, dog.ID, adopter.ID, "")
		require.NoError(t, err)

		_, err = f.svc.AdoptDog(ctx, dog.ID, other.ID, "")
		assert.ErrorIs(t, err, service.ErrAlreadyAdopted)

		// Already adopted wins over self-adoption.
		_, err = f.svc.AdoptDog(ctx, dog.ID, owner.ID, "")
		assert.ErrorIs(t, err, service.ErrAlreadyAdopted)
	})

	t.Run("rejects long messages before writing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := storetest.CreateUser(t, f.users, "owner")
		adopter := storetest.CreateUser(t, f.users, "adopter")
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Rex")

		_, err := f.svc.AdoptDog(ctx, dog.ID, adopter.ID, strings.Repeat("m", 201))
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := f.dogs.GetByID(ctx, dog.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsAdopted())
	})

	t.Run("concurrent adopters produce one winner", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := storetest.CreateUser(t, f.users, "owner")
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Rex")

		const contenders = 6
		adopters := make([]*domain.User, contenders)
		for i := range adopters {
			adopters[i] = storetest.CreateUser(t, f.users, "adopter_"+string(rune('a'+i)))
		}

		var wg sync.WaitGroup
		results := make([]error, contenders)
		for i := range adopters {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = f.svc.AdoptDog(ctx, dog.ID, adopters[i].ID, "")
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, service.ErrAlreadyAdopted)
		}
		assert.Equal(t, 1, wins)
	})
}

func TestRemoveDog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	owner := storetest.CreateUser(t, f.users, "owner")
	stranger := storetest.CreateUser(t, f.users, "stranger")

	t.Run("owner removes available dog", func(t *testing.T) {
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Rex")

		require.NoError(t, f.svc.RemoveDog(ctx, dog.ID, owner.ID))

		_, err := f.dogs.GetByID(ctx, dog.ID)
		assert.ErrorIs(t, err, store.ErrDogNotFound)
		assert.Contains(t, f.emitted.EventTypes(), events.TypeDogRemoved)
	})

	t.Run("missing dog", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.RemoveDog(ctx, uuid.New(), owner.ID), service.ErrDogNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Max")
		assert.ErrorIs(t, f.svc.RemoveDog(ctx, dog.ID, stranger.ID), service.ErrNotOwned)
	})

	t.Run("ownership is checked before adoption", func(t *testing.T) {
		dog := storetest.CreateDog(t, f.dogs, owner.ID, "Bella")
		_, err := f.svc.AdoptDog(ctx, dog.ID, stranger.ID, "")
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.RemoveDog(ctx, dog.ID, stranger.ID), service.ErrNotOwned)
		assert.ErrorIs(t, f.svc.RemoveDog(ctx, dog.ID, owner.ID), service.ErrAlreadyAdopted)
	})
}

func TestListings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	owner := storetest.CreateUser(t, f.users, "owner")
	adopter := storetest.CreateUser(t, f.users, "adopter")

	var dogIDs []uuid.UUID
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		view, err := f.svc.RegisterDog(ctx, owner.ID, name, "desc")
		require.NoError(t, err)
		dogIDs = append(dogIDs, view.Dog.ID)
	}
	_, err := f.svc.AdoptDog(ctx, dogIDs[1], adopter.ID, "")
	require.NoError(t, err)
	_, err = f.svc.AdoptDog(ctx, dogIDs[3], adopter.ID, "")
	require.NoError(t, err)

	t.Run("registered with pagination", func(t *testing.T) {
		page, err := f.svc.ListRegistered(ctx, owner.ID, nil, domain.PageRequest{Page: 1, Limit: 2})
		require.NoError(t, err)

		assert.Len(t, page.Dogs, 2)
		assert.Equal(t, domain.Pagination{
			CurrentPage: 1, TotalPages: 3, TotalCount: 5, HasNextPage: true, HasPrevPage: false,
		}, page.Pagination)
		for _, v := range page.Dogs {
			assert.Equal(t, "owner", v.Owner.Username)
		}
	})

	t.Run("registered filtered by status", func(t *testing.T) {
		adopted := domain.DogStatusAdopted
		page, err := f.svc.ListRegistered(ctx, owner.ID, &adopted, firstPage())
		require.NoError(t, err)

		assert.Equal(t, 2, page.Pagination.TotalCount)
		for _, v := range page.Dogs {
			assert.Equal(t, domain.DogStatusAdopted, v.Dog.Status)
			require.NotNil(t, v.Adopter)
			assert.Equal(t, "adopter", v.Adopter.Username)
		}
	})

	t.Run("registered rejects unknown status", func(t *testing.T) {
		bogus := domain.DogStatus("sold")
		_, err := f.svc.ListRegistered(ctx, owner.ID, &bogus, firstPage())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("adopted", func(t *testing.T) {
		page, err := f.svc.ListAdopted(ctx, adopter.ID, firstPage())
		require.NoError(t, err)
		assert.Equal(t, 2, page.Pagination.TotalCount)
		assert.Len(t, page.Dogs, 2)

		empty, err := f.svc.ListAdopted(ctx, owner.ID, firstPage())
		require.NoError(t, err)
		assert.Empty(t, empty.Dogs)
		assert.Equal(t, 0, empty.Pagination.TotalPages)
	})

	t.Run("available is newest first", func(t *testing.T) {
		page, err := f.svc.ListAvailable(ctx, firstPage())
		require.NoError(t, err)

		require.Len(t, page.Dogs, 3)
		got := make([]uuid.UUID, 0, 3)
		for i, v := range page.Dogs {
			got = append(got, v.Dog.ID)
			if i > 0 {
				assert.False(t, v.Dog.CreatedAt.After(page.Dogs[i-1].Dog.CreatedAt))
			}
		}
		assert.ElementsMatch(t, []uuid.UUID{dogIDs[0], dogIDs[2], dogIDs[4]}, got)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := f.svc.ListAvailable(ctx, domain.PageRequest{Page: 9, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Dogs)
		assert.Equal(t, 3, page.Pagination.TotalCount)
		assert.False(t, page.Pagination.HasNextPage)
		assert.True(t, page.Pagination.HasPrevPage)
	})

	t.Run("invalid page", func(t *testing.T) {
		_, err := f.svc.ListAvailable(ctx, domain.PageRequest{Page: -1, Limit: 500})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("get by id", func(t *testing.T) {
		view, err := f.svc.GetByID(ctx, dogIDs[1])
		require.NoError(t, err)
		assert.Equal(t, "adopter", view.Adopter.Username)

		_, err = f.svc.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrDogNotFound)
	})
}

func TestDogServiceStoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	newMocked := func(t *testing.T) (service.DogService, *mocks.TestifyMockDogStore, *mocks.TestifyMockUserStore, sqlmock.Sqlmock) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		dogs := &mocks.TestifyMockDogStore{}
		users := &mocks.TestifyMockUserStore{}
		svc, err := service.NewDogService(db, dogs, users, nil, nil)
		require.NoError(t, err)
		return svc, dogs, users, sqlMock
	}

	t.Run("list rolls back when count fails", func(t *testing.T) {
		svc, dogs, _, sqlMock := newMocked(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()
		dogs.On("Count", mock.Anything, mock.Anything).Return(0, dbErr)

		_, err := svc.ListAvailable(ctx, firstPage())

		var dogErr *service.DogServiceError
		require.True(t, errors.As(err, &dogErr))
		assert.Equal(t, "list_available", dogErr.Operation)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("list commits and resolves users once", func(t *testing.T) {
		svc, dogs, users, sqlMock := newMocked(t)
		owner := uuid.New()
		dog := &domain.Dog{ID: uuid.New(), OwnerID: owner, Status: domain.DogStatusAvailable}

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
		dogs.On("Count", mock.Anything, mock.Anything).Return(1, nil)
		dogs.On("List", mock.Anything, mock.Anything, firstPage()).Return([]*domain.Dog{dog}, nil)
		users.On("GetPublicByIDs", mock.Anything, []uuid.UUID{owner}).
			Return(map[uuid.UUID]domain.PublicUser{}, nil).Once()

		page, err := svc.ListAvailable(ctx, firstPage())
		require.NoError(t, err)

		require.Len(t, page.Dogs, 1)
		assert.Equal(t, domain.PublicUser{ID: owner}, page.Dogs[0].Owner, "missing users keep their id")
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		users.AssertExpectations(t)
	})

	t.Run("losing an adoption race reports already adopted", func(t *testing.T) {
		svc, dogs, _, _ := newMocked(t)
		owner, winner, loser := uuid.New(), uuid.New(), uuid.New()
		adoptedAt := time.Now().UTC()
		adopted := &domain.Dog{
			ID:        uuid.New(),
			OwnerID:   owner,
			AdopterID: &winner,
			Status:    domain.DogStatusAdopted,
			AdoptedAt: &adoptedAt,
		}

		// the guarded write matched nothing because the winner got there first
		dogs.On("Adopt", mock.Anything, adopted.ID, loser, "", mock.Anything).
			Return(nil, store.ErrConditionFailed)
		dogs.On("GetByID", mock.Anything, adopted.ID).Return(adopted, nil)

		_, err := svc.AdoptDog(ctx, adopted.ID, loser, "")
		assert.ErrorIs(t, err, service.ErrAlreadyAdopted)
		dogs.AssertExpectations(t)
	})

	t.Run("adopt store failure is wrapped", func(t *testing.T) {
		svc, dogs, _, _ := newMocked(t)
		dogs.On("Adopt", mock.Anything, mock.Anything, mock.Anything, "", mock.Anything).
			Return(nil, dbErr)

		_, err := svc.AdoptDog(ctx, uuid.New(), uuid.New(), "")

		var dogErr *service.DogServiceError
		require.True(t, errors.As(err, &dogErr))
		assert.Equal(t, "adopt_dog", dogErr.Operation)
	})

	t.Run("remove lookup failure is wrapped", func(t *testing.T) {
		svc, dogs, _, _ := newMocked(t)
		dogs.On("DeleteAvailable", mock.Anything, mock.Anything, mock.Anything).
			Return(store.ErrConditionFailed)
		dogs.On("GetByID", mock.Anything, mock.Anything).Return(nil, dbErr)

		err := svc.RemoveDog(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, service.ErrDogNotFound)
	})

	t.Run("event handler failure does not fail the operation", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		dogs := &mocks.TestifyMockDogStore{}
		emitter := events.NewInMemoryEventEmitter(nil)
		emitter.RegisterHandler(events.HandlerFunc(func(context.Context, *events.Event) error {
			return errors.New("handler down")
		}))
		svc, err := service.NewDogService(db, dogs, &mocks.TestifyMockUserStore{}, emitter, nil)
		require.NoError(t, err)

		dogs.On("DeleteAvailable", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		assert.NoError(t, svc.RemoveDog(ctx, uuid.New(), uuid.New()))
	})
}
