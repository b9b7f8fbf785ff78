package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/events"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/redact"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  domain.PublicUser
}

// Service implements account registration, login, token authentication
// and profile lookup.
type Service struct {
	users  store.UserStore
	tokens JWTService
	hasher PasswordHasher
	events events.EventEmitter
	logger *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// decoyPassword is hashed once and compared against on unknown usernames.
const decoyPassword = "dogadopt-login-decoy-password"

// NewService creates an auth Service. A nil emitter discards events and a
// nil logger falls back to the default logger.
func NewService(
	users store.UserStore,
	tokens JWTService,
	hasher PasswordHasher,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("jwt service cannot be nil")
	}
	if hasher == nil {
		return nil, errors.New("password hasher cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		events: emitter,
		logger: logger.With(slog.String("component", "auth_service")),
	}, nil
}

// Register creates an account and signs the new user in.
// Returns domain validation errors for bad input and store.ErrUsernameExists
// when the username is taken.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var errs domain.ValidationErrors
	if err := domain.ValidateUsername(username); err != nil {
		errs = append(errs, err.(*domain.ValidationError))
	}
	if err := domain.ValidatePassword(password); err != nil {
		errs = append(errs, err.(*domain.ValidationError))
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, err
	}

	user, err := domain.NewUser(username, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, store.ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.emit(ctx, events.NewUserEvent(events.TypeUserRegistered, user.ID))
	log.Info("user registered", slog.String("user_id", user.ID.String()))

	return &Session{Token: token, User: user.Public()}, nil
}

// Login verifies credentials and issues a token. Unknown usernames and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// spend the same hashing work as a wrong password
			s.compareDecoy(password)
			log.Debug("login failed: unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		log.Debug("login failed: password mismatch", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return &Session{Token: token, User: user.Public()}, nil
}

// Authenticate resolves a bearer token to a user id without touching the store.
func (s *Service) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, ErrMissingToken
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

// GetProfile returns the user's account. Returns store.ErrUserNotFound if the
// account no longer exists.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// compareDecoy runs a password comparison whose result is discarded. The
// decoy hash uses the hasher's own cost, so it costs what a real compare does.
func (s *Service) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(decoyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare decoy password hash", redact.ErrorAttr(err))
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash == "" {
		return
	}
	_ = s.hasher.Compare(s.decoyHash, password)
}

func (s *Service) emit(ctx context.Context, event *events.Event) {
	if err := s.events.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("event handler failed",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}
