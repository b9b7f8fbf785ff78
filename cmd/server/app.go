package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apiMiddleware "github.com/phrazzld/dogadopt-api/internal/api/middleware"
	"github.com/phrazzld/dogadopt-api/internal/config"
	"github.com/phrazzld/dogadopt-api/internal/events"
	"github.com/phrazzld/dogadopt-api/internal/platform/metrics"
	redisstore "github.com/phrazzld/dogadopt-api/internal/platform/redis"
	"github.com/phrazzld/dogadopt-api/internal/ratelimit"
	"github.com/phrazzld/dogadopt-api/internal/service"
	"github.com/phrazzld/dogadopt-api/internal/service/auth"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *appDatabase

	authService *auth.Service
	dogService  service.DogService

	eventEmitter *events.InMemoryEventEmitter
	metrics      *metrics.Metrics // nil when metrics are disabled
	limiter      *ratelimit.Limiter
	clients      *apiMiddleware.ClientIPResolver
	redis        *goredis.Client
}

// newApplication creates a new application instance with all dependencies initialized.
// The database must already be open and migrated.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *appDatabase,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditLogHandler(logger))

	if cfg.Metrics.Enabled {
		m, err := metrics.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		app.metrics = m
		app.eventEmitter.RegisterHandler(m)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	users, dogs := db.stores(logger)

	app.authService, err = auth.NewService(
		users,
		jwtService,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	app.dogService, err = service.NewDogService(db.DB, dogs, users, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dog service: %w", err)
	}

	if cfg.RateLimit.Enabled {
		if err := app.setupRateLimiter(ctx); err != nil {
			return nil, err
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) setupRateLimiter(ctx context.Context) error {
	cfg := app.config.RateLimit
	window := time.Duration(cfg.WindowMinutes) * time.Minute

	clients, err := apiMiddleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	var store ratelimit.Store
	switch cfg.Backend {
	case config.RateLimitBackendRedis:
		client, err := redisstore.NewClient(ctx, app.config.Redis.URL, app.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = client
		store = redisstore.NewWindowStore(client, redisstore.DefaultKeyPrefix, window)
	default:
		store = ratelimit.NewMemoryStore()
	}

	limiter, err := ratelimit.NewLimiter(store, cfg.Requests, window)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	app.limiter = limiter
	app.clients = clients

	app.logger.Info("rate limiter initialized",
		slog.String("backend", cfg.Backend),
		slog.Int("trusted_proxies", len(cfg.TrustedProxies)),
		slog.Int("requests", cfg.Requests),
		slog.Int("window_minutes", cfg.WindowMinutes))
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
		app.redis = nil
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
		app.db = nil
	}

	app.logger.Info("application shutdown completed")
}
