package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/dogadopt-api/internal/api"
	"github.com/phrazzld/dogadopt-api/internal/config"
	"github.com/phrazzld/dogadopt-api/internal/platform/migrate"
	"github.com/phrazzld/dogadopt-api/internal/platform/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug", ShutdownTimeoutSeconds: 1},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			SQLitePath:   sqlite.MemoryPath,
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "server-test-secret-with-at-least-32-chars",
			TokenLifetimeMinutes: 60,
			BcryptCost:           bcrypt.MinCost,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:       true,
			Requests:      1000,
			WindowMinutes: 15,
			Backend:       config.RateLimitBackendMemory,
		},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds the full application, on an in-memory database unless
// mutate points it elsewhere.
func newTestServer(t *testing.T, mutate func(*config.Config)) (*application, http.Handler) {
	t.Helper()
	ctx := context.Background()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.Validate(cfg))

	log := discardLogger()
	db, err := openDatabase(ctx, cfg.Database, log)
	require.NoError(t, err)
	require.NoError(t, db.migrate(ctx, migrate.CommandUp, log))

	app, err := newApplication(ctx, cfg, log, db)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	return app, app.setupRouter()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c client) send(req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	c.t.Helper()
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func (c client) do(method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req)
}

func (c client) register(username string) api.AuthResponse {
	c.t.Helper()
	rec, resp := c.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": username, "password": "password1"})
	require.Equal(c.t, http.StatusCreated, rec.Code, resp.Message)

	var out api.AuthResponse
	require.NoError(c.t, json.Unmarshal(resp.Data, &out))
	return out
}

func (c client) createDog(token, name string) api.DogResponse {
	c.t.Helper()
	rec, resp := c.do(http.MethodPost, "/api/dogs", token,
		map[string]string{"name": name, "description": name + " is a good dog"})
	require.Equal(c.t, http.StatusCreated, rec.Code, resp.Message)

	var out api.DogEnvelope
	require.NoError(c.t, json.Unmarshal(resp.Data, &out))
	return out.Dog
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}
