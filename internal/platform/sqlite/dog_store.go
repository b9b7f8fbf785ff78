package sqlite

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

// SQLiteDogStore implements the store.DogStore interface on SQLite.
type SQLiteDogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteDogStore creates a new SQLite implementation of the DogStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteDogStore(db store.DBTX, logger *slog.Logger) *SQLiteDogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteDogStore{
		db:     db,
		logger: logger.With(slog.String("component", "dog_store")),
	}
}

var _ store.DogStore = (*SQLiteDogStore)(nil)

// WithTx implements store.DogStore.WithTx
func (s *SQLiteDogStore) WithTx(tx *sql.Tx) store.DogStore {
	return &SQLiteDogStore{db: tx, logger: s.logger}
}

// Create implements store.DogStore.Create
func (s *SQLiteDogStore) Create(ctx context.Context, dog *domain.Dog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := dog.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dogs (`+dogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
			slog.String("dog_id", dog.ID.String()))
		return fmt.Errorf("failed to create dog: %w", err)
	}

	log.Info("dog created successfully",
		slog.String("dog_id", dog.ID.String()),
		slog.String("owner_id", dog.OwnerID.String()))
	return nil
}

// GetByID implements store.DogStore.GetByID
func (s *SQLiteDogStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dog, error) {
	dog, err := scanDog(s.db.QueryRowContext(ctx,
		`SELECT `+dogColumns+` FROM dogs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDogNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get dog by ID",
			slog.String("error", err.Error()),
			slog.String("dog_id", id.String()))
		return nil, fmt.Errorf("failed to get dog: %w", err)
	}
	return dog, nil
}

// List implements store.DogStore.List
func (s *SQLiteDogStore) List(
	ctx context.Context,
	filter store.DogFilter,
	page domain.PageRequest,
) ([]*domain.Dog, error) {
	where, args := filterClause(filter)
	args = append(args, page.Limit, page.Offset())

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dogColumns+` FROM dogs`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list dogs",
			slog.String("error", err.Error()))
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
func (s *SQLiteDogStore) Count(ctx context.Context, filter store.DogFilter) (int, error) {
	where, args := filterClause(filter)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dogs`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dogs: %w", err)
	}
	return count, nil
}

// Adopt implements store.DogStore.Adopt. The guarded UPDATE is the only
// write; the follow-up read cannot race because adopted rows never change.
func (s *SQLiteDogStore) Adopt(
	ctx context.Context,
	id, adopterID uuid.UUID,
	message string,
	at time.Time,
) (*domain.Dog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE dogs
		SET status = 'adopted', adopter_id = ?, adoption_message = ?, adopted_at = ?, updated_at = ?
		WHERE id = ? AND status = 'available' AND owner_id <> ?`,
		adopterID, message, at, at, id, adopterID,
	)
	if err != nil {
		err = MapError(err)
		log.Error("failed to adopt dog",
			slog.String("error", err.Error()),
			slog.String("dog_id", id.String()))
		return nil, fmt.Errorf("failed to adopt dog: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		log.Debug("adoption guard matched no row",
			slog.String("dog_id", id.String()),
			slog.String("adopter_id", adopterID.String()))
		return nil, store.ErrConditionFailed
	}

	log.Info("dog adopted",
		slog.String("dog_id", id.String()),
		slog.String("adopter_id", adopterID.String()))
	return s.GetByID(ctx, id)
}

// DeleteAvailable implements store.DogStore.DeleteAvailable
func (s *SQLiteDogStore) DeleteAvailable(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM dogs WHERE id = ? AND owner_id = ? AND status = 'available'`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dog: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrConditionFailed
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("dog deleted",
		slog.String("dog_id", id.String()),
		slog.String("owner_id", ownerID.String()))
	return nil
}

func filterClause(filter store.DogFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.AdopterID != nil {
		conds = append(conds, "adopter_id = ?")
		args = append(args, *filter.AdopterID)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanDog(row interface{ Scan(dest ...any) error }) (*domain.Dog, error) {
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
