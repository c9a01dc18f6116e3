package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dajtovon/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"no header uses peer", "", "peer"},
		{"single hop", "203.0.113.9", "203.0.113.9"},
		{"first of many", " 198.51.100.1 , 10.0.0.1", "198.51.100.1"},
		{"empty first entry falls back", " ,10.0.0.1", "peer"},
	}

	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		ip := ClientIP(c)
		if ip == c.IP() {
			ip = "peer"
		}
		return c.SendString(ip)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestSlidingWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(ratelimit.WithClock(func() time.Time { return now }))
	policy := ratelimit.Policy{Name: "contactPage", Window: 30 * time.Minute, Max: 3}

	app := fiber.New()
	app.Post("/contact", SlidingWindow(limiter, policy, ByClientIP), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	send := func(ip string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 3; i++ {
		resp := send("203.0.113.9")
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	}

	now = now.Add(10 * time.Minute)
	resp := send("203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1200", resp.Header.Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, float64(1200), body["retry_after_seconds"])

	// Another client is unaffected.
	assert.Equal(t, http.StatusAccepted, send("198.51.100.1").StatusCode)
}

func TestByParamAndIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/content/:id", func(c *fiber.Ctx) error {
		c.Locals(IdentityLocal, "alice")
		return c.SendString(ByParamAndIdentity("id")(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/content/c1", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "c1:alice", string(body))
}
