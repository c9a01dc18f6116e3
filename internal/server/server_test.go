package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dajtovon/internal/cache"
	"dajtovon/internal/config"
	"dajtovon/internal/database"
	"dajtovon/internal/middleware"
	"dajtovon/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                             "test",
		Port:                            "0",
		JWTSecret:                       testSecret,
		AllowedOrigins:                  "http://localhost:5173",
		DBDriver:                        "sqlite",
		SQLitePath:                      ":memory:",
		StoreTimeoutMS:                  2000,
		StatsCacheTTLSeconds:            60,
		WSMaxConnsPerUser:               12,
		RateLimitReactionMax:            60,
		RateLimitReactionWindowSeconds:  60,
		RateLimitCommentMax:             10,
		RateLimitCommentWindowSeconds:   60,
		RateLimitContactPageMax:         3,
		RateLimitContactPageWindowMin:   30,
		RateLimitContactAuthorMax:       3,
		RateLimitContactAuthorWindowMin: 10,
		RateLimitAuthMax:                10,
		RateLimitAuthWindowSeconds:      60,
		RateLimitIdleMultiple:           2,
		NotificationDefaultLimit:        5,
		MailFrom:                        "noreply@example.com",
		MailTo:                          "inbox@example.com",
	}
}

// newTestEnv wires a full server over in-memory sqlite and miniredis.
func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, fn := range tweak {
		fn(cfg)
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = srv.registry.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = rdb.Close()
		cache.SetClient(nil)
		mr.Close()
	})

	return &testEnv{srv: srv, app: srv.NewApp(), mr: mr}
}

// user creates an account directly and returns a bearer token for it.
func (e *testEnv) user(t *testing.T, username string) string {
	t.Helper()
	err := e.srv.userRepo.Create(context.Background(), &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "unused",
	})
	require.NoError(t, err)
	token, err := middleware.IssueToken(username, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

// publish creates a content item owned by the token's identity.
func (e *testEnv) publish(t *testing.T, token, topic string) models.Content {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/content", token, fiber.Map{
		"topic":   topic,
		"content": "Body of " + topic,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[models.Content](t, data)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, data)
	assert.Equal(t, "healthy", body["status"])

	env.mr.Close()
	resp, data = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body = decode[map[string]any](t, data)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "unhealthy", checks["redis"])
	assert.Equal(t, "healthy", checks["database"])
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[models.ErrorResponse](t, data)
	assert.NotEmpty(t, body.Error)
}

func TestNewServerWithDeps_RequiresDeps(t *testing.T) {
	_, err := NewServerWithDeps(nil, nil, nil)
	assert.Error(t, err)
	_, err = NewServerWithDeps(testConfig(), nil, nil)
	assert.Error(t, err)
}
