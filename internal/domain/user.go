package domain

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Username and password constraints.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	PasswordMinLength = 6
	// PasswordMaxLength is bcrypt's input limit in bytes.
	PasswordMaxLength = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the part of a User other users are allowed to see.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// NewUser creates a User with a fresh ID from an already-hashed password.
// Returns an error if validation fails.
func NewUser(username, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	var errs ValidationErrors

	if u.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty", ErrInvalidID))
	}
	if err := ValidateUsername(u.Username); err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	if u.PasswordHash == "" {
		errs = append(errs, NewValidationError("passwordHash", "cannot be empty", nil))
	}

	return errs.OrNil()
}

// Public returns the fields of u that may be shown to other users.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

// ValidateUsername enforces 3-30 characters of letters, digits and underscore.
// The returned error, if any, is a *ValidationError.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < UsernameMinLength || n > UsernameMaxLength:
		return NewValidationError("username", "must be between 3 and 30 characters", nil)
	case !usernamePattern.MatchString(username):
		return NewValidationError("username", "can only contain letters, numbers, and underscores", nil)
	}
	return nil
}

// ValidatePassword enforces the plaintext password length before hashing.
// The returned error, if any, is a *ValidationError.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return NewValidationError("password", "must be at least 6 characters long", nil)
	}
	if len(password) > PasswordMaxLength {
		return NewValidationError("password", "must be at most 72 bytes long", nil)
	}
	return nil
}
