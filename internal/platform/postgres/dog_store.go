package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

const dogColumns = `id, name, description, owner_id, adopter_id, adoption_message,
		status, adopted_at, created_at, updated_at`

// PostgresDogStore implements the store.DogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDogStore creates a new PostgreSQL implementation of the DogStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDogStore(db store.DBTX, logger *slog.Logger) *PostgresDogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDogStore{
		db:     db,
		logger: logger.With(slog.String("component", "dog_store")),
	}
}

// Ensure PostgresDogStore implements store.DogStore interface
var _ store.DogStore = (*PostgresDogStore)(nil)

// WithTx implements store.DogStore.WithTx
func (s *PostgresDogStore) WithTx(tx *sql.Tx) store.DogStore {
	return &PostgresDogStore{db: tx, logger: s.logger}
}

// Create implements store.DogStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresDogStore) Create(ctx context.Context, dog *domain.Dog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := dog.Validate(); err != nil {
		log.Warn("dog validation failed during create",
			slog.String("error", err.Error()),
			slog.String("dog_id", dog.ID.String()))
		return err
	}

	query := `
		INSERT INTO dogs (id, name, description, owner_id, adopter_id, adoption_message,
			status, adopted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		dog.ID,
		dog.Name,
		dog.Description,
		dog.OwnerID,
		dog.AdopterID,
		dog.AdoptionMessage,
		string(dog.Status),
		dog.AdoptedAt,
		dog.CreatedAt,
		dog.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		log.Error("failed to create dog",
			slog.String("error", err.Error()),
			slog.String("dog_id", dog.ID.String()),
			slog.String("owner_id", dog.OwnerID.String()))
		return fmt.Errorf("failed to create dog: %w", err)
	}

	log.Info("dog created successfully",
		slog.String("dog_id", dog.ID.String()),
		slog.String("owner_id", dog.OwnerID.String()))
	return nil
}

// GetByID implements store.DogStore.GetByID
func (s *PostgresDogStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + dogColumns + ` FROM dogs WHERE id = $1`

	dog, err := scanDog(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("dog not found", slog.String("dog_id", id.String()))
			return nil, store.ErrDogNotFound
		}
		log.Error("failed to get dog by ID",
			slog.String("error", err.Error()),
			slog.String("dog_id", id.String()))
		return nil, fmt.Errorf("failed to get dog: %w", err)
	}

	return dog, nil
}

// List implements store.DogStore.List
func (s *PostgresDogStore) List(
	ctx context.Context,
	filter store.DogFilter,
	page domain.PageRequest,
) ([]*domain.Dog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := filterClause(filter)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(
		`SELECT %s FROM dogs%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		dogColumns, where, len(args)-1, len(args),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list dogs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list dogs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dogs := make([]*domain.Dog, 0, page.Limit)
	for rows.Next() {
		dog, err := scanDog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dog: %w", err)
		}
		dogs = append(dogs, dog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dogs: %w", err)
	}

	return dogs, nil
}

// Count implements store.DogStore.Count
func (s *PostgresDogStore) Count(ctx context.Context, filter store.DogFilter) (int, error) {
	where, args := filterClause(filter)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dogs`+where, args...).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count dogs",
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count dogs: %w", err)
	}
	return count, nil
}

// Adopt implements store.DogStore.Adopt
func (s *PostgresDogStore) Adopt(
	ctx context.Context,
	id, adopterID uuid.UUID,
	message string,
	at time.Time,
) (*domain.Dog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE dogs
		SET status = 'adopted', adopter_id = $2, adoption_message = $3,
			adopted_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'available' AND owner_id <> $2
		RETURNING ` + dogColumns

	dog, err := scanDog(s.db.QueryRowContext(ctx, query, id, adopterID, message, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("adoption guard matched no row",
				slog.String("dog_id", id.String()),
				slog.String("adopter_id", adopterID.String()))
			return nil, store.ErrConditionFailed
		}
		err = MapError(err)
		log.Error("failed to adopt dog",
			slog.String("error", err.Error()),
			slog.String("dog_id", id.String()))
		return nil, fmt.Errorf("failed to adopt dog: %w", err)
	}

	log.Info("dog adopted",
		slog.String("dog_id", id.String()),
		slog.String("adopter_id", adopterID.String()))
	return dog, nil
}

// DeleteAvailable implements store.DogStore.DeleteAvailable
func (s *PostgresDogStore) DeleteAvailable(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM dogs WHERE id = $1 AND owner_id = $2 AND status = 'available'`,
		id, ownerID,
	)
	if err != nil {
		log.Error("failed to delete dog",
			slog.String("error", err.Error()),
			slog.String("dog_id", id.String()))
		return fmt.Errorf("failed to delete dog: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrConditionFailed
	}

	log.Info("dog deleted",
		slog.String("dog_id", id.String()),
		slog.String("owner_id", ownerID.String()))
	return nil
}

// filterClause renders filter as a WHERE clause with numbered placeholders.
func filterClause(filter store.DogFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.OwnerID != nil {
		add("owner_id", *filter.OwnerID)
	}
	if filter.AdopterID != nil {
		add("adopter_id", *filter.AdopterID)
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDog(row rowScanner) (*domain.Dog, error) {
	var (
		dog       domain.Dog
		status    string
		adopterID uuid.NullUUID
		adoptedAt sql.NullTime
	)

	if err := row.Scan(
		&dog.ID,
		&dog.Name,
		&dog.Description,
		&dog.OwnerID,
		&adopterID,
		&dog.AdoptionMessage,
		&status,
		&adoptedAt,
		&dog.CreatedAt,
		&dog.UpdatedAt,
	); err != nil {
		return nil, err
	}

	dog.Status = domain.DogStatus(status)
	if adopterID.Valid {
		id := adopterID.UUID
		dog.AdopterID = &id
	}
	if adoptedAt.Valid {
		t := adoptedAt.Time.UTC()
		dog.AdoptedAt = &t
	}
	dog.CreatedAt = dog.CreatedAt.UTC()
	dog.UpdatedAt = dog.UpdatedAt.UTC()

	return &dog, nil
}
