package server

import (
	"net/http"
	"testing"

	"dajtovon/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactPage(t *testing.T) {
	env := newTestEnv(t)

	send := func(email, message string) int {
		resp, _ := env.do(t, http.MethodPost, "/api/contact", "", fiber.Map{
			"name":    "Visitor",
			"email":   email,
			"subject": "Hello",
			"message": message,
		})
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusAccepted, send("visitor@example.com", "Hi there"))
	assert.Equal(t, http.StatusBadRequest, send("not-an-email", "Hi there"))
	assert.Equal(t, http.StatusBadRequest, send("visitor@example.com", ""))
	// Three per window per client address, counted whether or not the message was valid.
	assert.Equal(t, http.StatusTooManyRequests, send("visitor@example.com", "again"))
}

func TestContactAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.publish(t, alice, "Reach me")
	path := "/api/content/" + post.ID + "/contact-author"

	resp, data := env.do(t, http.MethodPost, path, bob, fiber.Map{"message": "Nice post"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))

	resp, data = env.do(t, http.MethodPost, path, alice, fiber.Map{"message": "Talking to myself"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, data).Code)

	resp, _ = env.do(t, http.MethodPost, path, "", fiber.Map{"message": "anon"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/content/missing/contact-author", bob, fiber.Map{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Bob has used one of three messages for this item; the limit is per item.
	for i := 0; i < 2; i++ {
		resp, _ = env.do(t, http.MethodPost, path, bob, fiber.Map{"message": "more"})
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPost, path, bob, fiber.Map{"message": "too many"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
