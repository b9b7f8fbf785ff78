package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/dogadopt-api/internal/api"
	apiMiddleware "github.com/phrazzld/dogadopt-api/internal/api/middleware"
	"github.com/phrazzld/dogadopt-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.CORS(app.config.CORS.AllowedOrigins))
	if app.metrics != nil {
		r.Use(apiMiddleware.Metrics(app.metrics))
	}

	// Must be registered before Route so the /api subrouter inherits them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, api.MsgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, api.MsgMethodNotAllowed)
	})

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	dogHandler := api.NewDogHandler(app.dogService, app.logger)
	healthHandler := api.NewHealthHandler(app.db, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.authService, app.logger)

	r.Route("/api", func(r chi.Router) {
		if app.limiter != nil {
			var recorder apiMiddleware.RateLimitRecorder
			if app.metrics != nil {
				recorder = app.metrics
			}
			r.Use(apiMiddleware.RateLimit(app.limiter, app.clients, recorder, app.logger))
		}

		r.Get("/health", healthHandler.Health)

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/profile", authHandler.Profile)

			r.Route("/dogs", func(r chi.Router) {
				r.Post("/", dogHandler.Register)
				r.Get("/", dogHandler.ListAvailable)
				r.Get("/registered", dogHandler.ListRegistered)
				r.Get("/adopted", dogHandler.ListAdopted)
				r.Get("/{id}", dogHandler.Get)
				r.Put("/{id}/adopt", dogHandler.Adopt)
				r.Delete("/{id}", dogHandler.Remove)
			})
		})
	})

	if app.metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	}

	return r
}
