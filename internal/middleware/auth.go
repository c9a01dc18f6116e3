// Package middleware provides authentication, rate limiting, logging and tracing middleware for the application.
package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dajtovon/internal/config"
	"dajtovon/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityLocal is the fiber.Ctx locals key holding the verified identity.
const IdentityLocal = "identity"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// ErrInvalidToken covers every reason a bearer token is rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// IssueToken signs an HS256 token whose subject is identity.
func IssueToken(identity string, ttl time.Duration) (string, error) {
	if cfg == nil {
		return "", errors.New("middleware not initialized")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates tokenString and returns its subject.
func ParseToken(tokenString string) (string, error) {
	if cfg == nil {
		return "", errors.New("middleware not initialized")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", models.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

func setIdentity(c *fiber.Ctx, identity string) {
	c.Locals(IdentityLocal, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	identity, err := ParseToken(raw)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	setIdentity(c, identity)
	return c.Next()
}

// AuthOptional attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func AuthOptional(c *fiber.Ctx) error {
	if raw, err := bearerToken(c); err == nil {
		if identity, err := ParseToken(raw); err == nil {
			setIdentity(c, identity)
		}
	}
	return c.Next()
}

// Identity returns the verified identity of the request, or "".
func Identity(c *fiber.Ctx) string {
	if id, ok := c.Locals(IdentityLocal).(string); ok {
		return id
	}
	return ""
}
