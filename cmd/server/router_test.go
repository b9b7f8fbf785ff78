package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dogadopt-api/internal/api"
	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/config"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	rec, resp := c.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, rec.Header().Get(shared.TraceIDHeader))

	health := decodeData[api.HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Database)
}

func TestFallbackRoutes(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	for _, path := range []string{"/api/unknown", "/nothing/here"} {
		rec, resp := c.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.False(t, resp.Success)
		assert.Equal(t, api.MsgRouteNotFound, resp.Message)
	}

	rec, resp := c.do(http.MethodPatch, "/api/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, api.MsgMethodNotAllowed, resp.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPost, "/api/dogs"},
		{http.MethodGet, "/api/dogs"},
		{http.MethodGet, "/api/dogs/registered"},
		{http.MethodGet, "/api/dogs/adopted"},
		{http.MethodGet, "/api/dogs/7b0f6c1e-4e0a-4f59-a8b8-0c8f2f1e9d11"},
		{http.MethodPut, "/api/dogs/7b0f6c1e-4e0a-4f59-a8b8-0c8f2f1e9d11/adopt"},
		{http.MethodDelete, "/api/dogs/7b0f6c1e-4e0a-4f59-a8b8-0c8f2f1e9d11"},
	}
	for _, rt := range routes {
		rec, resp := c.do(rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, rt.path)
		assert.Equal(t, api.MsgMissingToken, resp.Message, rt.path)

		rec, resp = c.do(rt.method, rt.path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, rt.path)
		assert.Equal(t, api.MsgInvalidToken, resp.Message, rt.path)
	}
}

func TestAccountFlow(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	alice := c.register("alice")
	assert.NotEmpty(t, alice.Token)
	assert.Equal(t, "alice", alice.User.Username)

	rec, resp := c.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "alice", "password": "password2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.MsgUsernameExists, resp.Message)

	wrongPass, wrongResp := c.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "not-it"})
	unknown, unknownResp := c.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "mallory", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongResp.Message, unknownResp.Message)
	assert.Equal(t, strings.TrimSpace(wrongPass.Body.String()), strings.TrimSpace(unknown.Body.String()))

	rec, resp = c.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeData[api.AuthResponse](t, resp)
	assert.Equal(t, alice.User.ID, login.User.ID)

	rec, resp = c.do(http.MethodGet, "/api/auth/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeData[api.ProfileResponse](t, resp)
	assert.Equal(t, "alice", profile.User.Username)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestListingLifecycle(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	owner := c.register("owner")
	adopter := c.register("adopter")
	stranger := c.register("stranger")

	rex := c.createDog(owner.Token, "Rex")
	assert.Equal(t, "available", string(rex.Status))
	assert.Nil(t, rex.Adopter)
	assert.Nil(t, rex.AdoptedAt)

	bella := c.createDog(owner.Token, "Bella")

	// Pagination over two owned dogs.
	rec, resp := c.do(http.MethodGet, "/api/dogs/registered?limit=1", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeData[api.DogListResponse](t, resp)
	require.Len(t, page.Dogs, 1)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.TotalCount)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)

	// Self adoption fails whatever the message.
	for _, body := range []any{nil, map[string]string{"message": "mine"}} {
		rec, resp = c.do(http.MethodPut, "/api/dogs/"+rex.ID.String()+"/adopt", owner.Token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, api.MsgSelfAdoption, resp.Message)
	}

	// Non-owner cannot delete.
	rec, resp = c.do(http.MethodDelete, "/api/dogs/"+rex.ID.String(), stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, api.MsgNotOwner, resp.Message)

	rec, resp = c.do(http.MethodPut, "/api/dogs/"+rex.ID.String()+"/adopt", adopter.Token,
		map[string]string{"message": "Forever home"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)
	adopted := decodeData[api.DogEnvelope](t, resp).Dog
	assert.Equal(t, "adopted", string(adopted.Status))
	require.NotNil(t, adopted.Adopter)
	assert.Equal(t, adopter.User.ID, adopted.Adopter.ID)
	assert.Equal(t, "adopter", adopted.Adopter.Username)
	assert.NotNil(t, adopted.AdoptedAt)

	rec, resp = c.do(http.MethodPut, "/api/dogs/"+rex.ID.String()+"/adopt", stranger.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.MsgAlreadyAdopted, resp.Message)

	rec, resp = c.do(http.MethodDelete, "/api/dogs/"+rex.ID.String(), owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.MsgAlreadyAdopted, resp.Message)

	// The available list never shows adopted dogs.
	rec, resp = c.do(http.MethodGet, "/api/dogs?limit=100", stranger.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	available := decodeData[api.DogListResponse](t, resp)
	require.Len(t, available.Dogs, 1)
	assert.Equal(t, bella.ID, available.Dogs[0].ID)
	for _, d := range available.Dogs {
		assert.NotEqual(t, "adopted", string(d.Status))
	}

	rec, resp = c.do(http.MethodGet, "/api/dogs/adopted", adopter.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeData[api.DogListResponse](t, resp)
	require.Len(t, mine.Dogs, 1)
	assert.Equal(t, rex.ID, mine.Dogs[0].ID)

	rec, resp = c.do(http.MethodGet, "/api/dogs/"+rex.ID.String(), stranger.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[api.DogEnvelope](t, resp).Dog
	assert.Equal(t, "Forever home", got.AdoptionMessage)
	assert.Equal(t, "owner", got.Owner.Username)

	rec, _ = c.do(http.MethodDelete, "/api/dogs/"+bella.ID.String(), owner.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, resp = c.do(http.MethodGet, "/api/dogs/"+bella.ID.String(), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.MsgDogNotFound, resp.Message)
}

func TestConcurrentAdoption(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "adopt.db")
	_, h := newTestServer(t, func(cfg *config.Config) {
		cfg.Database.SQLitePath = dbPath
		cfg.Database.MaxOpenConns = 4
	})
	c := client{t: t, handler: h}

	owner := c.register("owner")
	first := c.register("first")
	second := c.register("second")
	dog := c.createDog(owner.Token, "Popular")

	codes := make([]int, 2)
	messages := make([]string, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, token := range []string{first.Token, second.Token} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			req := httptest.NewRequest(http.MethodPut, "/api/dogs/"+dog.ID.String()+"/adopt", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes[i] = rec.Code
			messages[i] = rec.Body.String()
		}()
	}
	close(start)
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusBadRequest}, codes)
	for i, code := range codes {
		if code == http.StatusBadRequest {
			assert.Contains(t, messages[i], api.MsgAlreadyAdopted)
		}
	}
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	rec, resp := c.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "ab", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.MsgValidationFailed, resp.Message)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "username", resp.Errors[0].Field)

	user := c.register("validator")
	rec, resp = c.do(http.MethodPost, "/api/dogs", user.Token,
		map[string]string{"name": strings.Repeat("n", 51), "description": "ok"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "name", resp.Errors[0].Field)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	rec, resp = c.send(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.MsgInvalidJSON, resp.Message)

	c.createDog(user.Token, "Rex")
	for _, q := range []string{"page=0", "limit=101", "page=x", "page=9223372036854775807&limit=10"} {
		rec, resp = c.do(http.MethodGet, "/api/dogs?"+q, user.Token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, api.MsgValidationFailed, resp.Message, q)
	}
}

func TestRateLimitEndpoint(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Requests = 3
	})
	c := client{t: t, handler: h}

	for i := range 3 {
		rec, _ := c.do(http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec, resp := c.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, api.MsgTooManyRequests, resp.Message)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Forwarding headers from a peer that is not a trusted proxy do not
	// open a new window.
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP", "True-Client-IP"} {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set(header, "203.0.113.9")
		rec, _ = c.send(req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, header)
	}

	// A different socket address is a different client.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "198.51.100.20:4000"
	rec, _ = c.send(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The metrics endpoint sits outside the limited /api tree.
	rec, _ = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dogadopt_rate_limited_requests_total 4")
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Requests = 1
		cfg.RateLimit.TrustedProxies = []string{"10.0.0.0/8"}
	})
	c := client{t: t, handler: h}

	viaProxy := func(clientAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.5:8443"
		req.Header.Set("X-Forwarded-For", clientAddr)
		rec, _ := c.send(req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, viaProxy("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, viaProxy("203.0.113.1"))
	assert.Equal(t, http.StatusOK, viaProxy("203.0.113.2"))
	// a client-supplied hop left of the real one is ignored
	assert.Equal(t, http.StatusTooManyRequests, viaProxy("198.51.100.99, 203.0.113.2"))
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()
	app, h := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.Requests = 1
	})
	assert.Nil(t, app.limiter)
	c := client{t: t, handler: h}

	for range 3 {
		rec, _ := c.do(http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, nil)
	c := client{t: t, handler: h}

	owner := c.register("metrics_owner")
	c.createDog(owner.Token, "Counter")

	rec, _ := c.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dogadopt_events_total{type="user.registered"} 1`)
	assert.Contains(t, body, `dogadopt_events_total{type="dog.registered"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",route="/api/auth/register",status="201"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsDisabled(t *testing.T) {
	t.Parallel()
	app, h := newTestServer(t, func(cfg *config.Config) {
		cfg.Metrics.Enabled = false
	})
	assert.Nil(t, app.metrics)
	c := client{t: t, handler: h}

	rec, _ := c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Events still flow to the audit handler without a metrics handler.
	user := c.register("no_metrics")
	assert.NotEmpty(t, user.Token)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, func(cfg *config.Config) {
		cfg.CORS.AllowedOrigins = []string{"https://dogs.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/dogs", nil)
	req.Header.Set("Origin", "https://dogs.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dogs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
