package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/dogadopt-api/internal/store"
)

// MapError maps a SQLite error to the matching store error. The driver only
// exposes constraint failures through the message text.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
	case isUniqueViolation(msg):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: not null violation: %v", store.ErrInvalidEntity, err)
	}

	return err
}

func isUniqueViolation(msg string) bool {
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
