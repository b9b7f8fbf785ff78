package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/events"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// DogView is a listing with its weak user references resolved.
type DogView struct {
	Dog     *domain.Dog
	Owner   domain.PublicUser
	Adopter *domain.PublicUser
}

// DogPage is one page of listings plus its position in the full result.
type DogPage struct {
	Dogs       []DogView
	Pagination domain.Pagination
}

// DogService provides listing operations.
type DogService interface {
	// RegisterDog creates an available listing owned by ownerID.
	RegisterDog(ctx context.Context, ownerID uuid.UUID, name, description string) (*DogView, error)

	// AdoptDog performs the one-way available -> adopted transition.
	// Failures are reported in order: ErrDogNotFound, ErrAlreadyAdopted, ErrSelfAdoption.
	AdoptDog(ctx context.Context, dogID, adopterID uuid.UUID, message string) (*DogView, error)

	// RemoveDog deletes an available listing owned by requesterID.
	// Failures are reported in order: ErrDogNotFound, ErrNotOwned, ErrAlreadyAdopted.
	RemoveDog(ctx context.Context, dogID, requesterID uuid.UUID) error

	// ListRegistered pages through the listings owned by ownerID, optionally by status.
	ListRegistered(
		ctx context.Context,
		ownerID uuid.UUID,
		status *domain.DogStatus,
		page domain.PageRequest,
	) (*DogPage, error)

	// ListAdopted pages through the listings adopted by adopterID.
	ListAdopted(ctx context.Context, adopterID uuid.UUID, page domain.PageRequest) (*DogPage, error)

	// ListAvailable pages through every listing that can still be adopted.
	ListAvailable(ctx context.Context, page domain.PageRequest) (*DogPage, error)

	// GetByID returns one listing.
	GetByID(ctx context.Context, dogID uuid.UUID) (*DogView, error)
}

// DogServiceError wraps errors from the dog service with context.
type DogServiceError struct {
	// Operation is the operation that failed (e.g., "adopt_dog", "list_available")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for DogServiceError.
func (e *DogServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dog service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("dog service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *DogServiceError) Unwrap() error {
	return e.Err
}

// NewDogServiceError creates a new DogServiceError.
// It returns known sentinel and validation errors directly without wrapping.
func NewDogServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrDogNotFound), errors.Is(err, store.ErrDogNotFound):
		return ErrDogNotFound
	case errors.Is(err, ErrNotOwned), errors.Is(err, ErrAlreadyAdopted),
		errors.Is(err, ErrSelfAdoption), errors.Is(err, domain.ErrValidation):
		return err
	}

	return &DogServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// dogServiceImpl implements the DogService interface
type dogServiceImpl struct {
	db           *sql.DB
	dogs         store.DogStore
	users        store.UserStore
	eventEmitter events.EventEmitter
	now          func() time.Time
	logger       *slog.Logger
}

// NewDogService creates a new DogService.
// db is used for the read transaction around paged lists. A nil emitter
// discards events.
func NewDogService(
	db *sql.DB,
	dogs store.DogStore,
	users store.UserStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (DogService, error) {
	if db == nil {
		return nil, NewServiceError("dog", "create", errors.New("db cannot be nil"))
	}
	if dogs == nil {
		return nil, NewServiceError("dog", "create", errors.New("dog store cannot be nil"))
	}
	if users == nil {
		return nil, NewServiceError("dog", "create", errors.New("user store cannot be nil"))
	}
	if eventEmitter == nil {
		eventEmitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &dogServiceImpl{
		db:           db,
		dogs:         dogs,
		users:        users,
		eventEmitter: eventEmitter,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With(slog.String("component", "dog_service")),
	}, nil
}

// RegisterDog implements DogService.RegisterDog
func (s *dogServiceImpl) RegisterDog(
	ctx context.Context,
	ownerID uuid.UUID,
	name, description string,
) (*DogView, error) {
	dog, err := domain.NewDog(ownerID, name, description)
	if err != nil {
		return nil, err
	}

	if err := s.dogs.Create(ctx, dog); err != nil {
		return nil, NewDogServiceError("register_dog", "failed to save dog", err)
	}

	s.emit(ctx, events.NewDogEvent(events.TypeDogRegistered, ownerID, dog.ID))
	return s.view(ctx, "register_dog", dog)
}

// AdoptDog implements DogService.AdoptDog
func (s *dogServiceImpl) AdoptDog(
	ctx context.Context,
	dogID, adopterID uuid.UUID,
	message string,
) (*DogView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateAdoptionMessage(message); err != nil {
		return nil, domain.ValidationErrors{err.(*domain.ValidationError)}
	}

	dog, err := s.dogs.Adopt(ctx, dogID, adopterID, message, s.now())
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			reason := s.classifyAdoptFailure(ctx, dogID, adopterID)
			log.Debug("adoption rejected",
				slog.String("dog_id", dogID.String()),
				slog.String("reason", reason.Error()))
			return nil, NewDogServiceError("adopt_dog", "failed to classify rejected adoption", reason)
		}
		return nil, NewDogServiceError("adopt_dog", "failed to adopt dog", err)
	}

	s.emit(ctx, events.NewDogEvent(events.TypeDogAdopted, adopterID, dog.ID))
	return s.view(ctx, "adopt_dog", dog)
}

// classifyAdoptFailure reads the listing once after a rejected conditional
// write and names the rule that stopped it.
func (s *dogServiceImpl) classifyAdoptFailure(ctx context.Context, dogID, adopterID uuid.UUID) error {
	current, err := s.dogs.GetByID(ctx, dogID)
	switch {
	case err != nil:
		return err
	case current.IsAdopted():
		return ErrAlreadyAdopted
	case current.OwnerID == adopterID:
		return ErrSelfAdoption
	default:
		return fmt.Errorf("adoption guard rejected available dog %s", dogID)
	}
}

// RemoveDog implements DogService.RemoveDog
func (s *dogServiceImpl) RemoveDog(ctx context.Context, dogID, requesterID uuid.UUID) error {
	err := s.dogs.DeleteAvailable(ctx, dogID, requesterID)
	if err == nil {
		s.emit(ctx, events.NewDogEvent(events.TypeDogRemoved, requesterID, dogID))
		return nil
	}
	if !errors.Is(err, store.ErrConditionFailed) {
		return NewDogServiceError("remove_dog", "failed to delete dog", err)
	}

	current, err := s.dogs.GetByID(ctx, dogID)
	switch {
	case err != nil:
		return NewDogServiceError("remove_dog", "failed to load dog", err)
	case current.OwnerID != requesterID:
		return ErrNotOwned
	case current.IsAdopted():
		return ErrAlreadyAdopted
	default:
		return NewDogServiceError("remove_dog", "delete guard rejected available dog", store.ErrConditionFailed)
	}
}

// ListRegistered implements DogService.ListRegistered
func (s *dogServiceImpl) ListRegistered(
	ctx context.Context,
	ownerID uuid.UUID,
	status *domain.DogStatus,
	page domain.PageRequest,
) (*DogPage, error) {
	if status != nil {
		if _, err := domain.ParseDogStatus(string(*status)); err != nil {
			return nil, domain.ValidationErrors{err.(*domain.ValidationError)}
		}
	}
	return s.list(ctx, "list_registered", store.DogFilter{OwnerID: &ownerID, Status: status}, page)
}

// ListAdopted implements DogService.ListAdopted
func (s *dogServiceImpl) ListAdopted(
	ctx context.Context,
	adopterID uuid.UUID,
	page domain.PageRequest,
) (*DogPage, error) {
	return s.list(ctx, "list_adopted", store.DogFilter{AdopterID: &adopterID}, page)
}

// ListAvailable implements DogService.ListAvailable
func (s *dogServiceImpl) ListAvailable(ctx context.Context, page domain.PageRequest) (*DogPage, error) {
	available := domain.DogStatusAvailable
	return s.list(ctx, "list_available", store.DogFilter{Status: &available}, page)
}

// GetByID implements DogService.GetByID
func (s *dogServiceImpl) GetByID(ctx context.Context, dogID uuid.UUID) (*DogView, error) {
	dog, err := s.dogs.GetByID(ctx, dogID)
	if err != nil {
		return nil, NewDogServiceError("get_dog", "failed to load dog", err)
	}
	return s.view(ctx, "get_dog", dog)
}

// list reads the count and the page in one transaction so the pagination
// metadata describes the rows returned.
func (s *dogServiceImpl) list(
	ctx context.Context,
	operation string,
	filter store.DogFilter,
	page domain.PageRequest,
) (*DogPage, error) {
	page, err := domain.NewPageRequest(page.Page, page.Limit)
	if err != nil {
		return nil, err
	}

	var (
		total int
		dogs  []*domain.Dog
	)
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txDogs := s.dogs.WithTx(tx)

		var err error
		if total, err = txDogs.Count(ctx, filter); err != nil {
			return err
		}
		if page.Offset() >= total {
			dogs = nil
			return nil
		}
		dogs, err = txDogs.List(ctx, filter, page)
		return err
	})
	if err != nil {
		return nil, NewDogServiceError(operation, "failed to list dogs", err)
	}

	views, err := s.resolve(ctx, dogs)
	if err != nil {
		return nil, NewDogServiceError(operation, "failed to resolve users", err)
	}

	return &DogPage{
		Dogs:       views,
		Pagination: domain.NewPagination(page, total),
	}, nil
}

func (s *dogServiceImpl) view(ctx context.Context, operation string, dog *domain.Dog) (*DogView, error) {
	views, err := s.resolve(ctx, []*domain.Dog{dog})
	if err != nil {
		return nil, NewDogServiceError(operation, "failed to resolve users", err)
	}
	return &views[0], nil
}

// resolve attaches owner and adopter public fields with one batch lookup.
// A reference to a user that no longer exists keeps its id and an empty username.
func (s *dogServiceImpl) resolve(ctx context.Context, dogs []*domain.Dog) ([]DogView, error) {
	views := make([]DogView, 0, len(dogs))
	if len(dogs) == 0 {
		return views, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(dogs)*2)
	ids := make([]uuid.UUID, 0, len(dogs)*2)
	addID := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, dog := range dogs {
		addID(dog.OwnerID)
		if dog.AdopterID != nil {
			addID(*dog.AdopterID)
		}
	}

	users, err := s.users.GetPublicByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lookup := func(id uuid.UUID) domain.PublicUser {
		if u, ok := users[id]; ok {
			return u
		}
		return domain.PublicUser{ID: id}
	}

	for _, dog := range dogs {
		v := DogView{Dog: dog, Owner: lookup(dog.OwnerID)}
		if dog.AdopterID != nil {
			adopter := lookup(*dog.AdopterID)
			v.Adopter = &adopter
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *dogServiceImpl) emit(ctx context.Context, event *events.Event) {
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("event handler failed",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}
