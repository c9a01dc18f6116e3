package middleware

import (
	"strconv"
	"strings"

	"dajtovon/internal/models"
	"dajtovon/internal/observability"
	"dajtovon/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// KeyFunc derives the limiter key for a request.
type KeyFunc func(c *fiber.Ctx) string

// ClientIP returns the first X-Forwarded-For hop when present, else the peer address.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// ByClientIP keys by client address.
func ByClientIP(c *fiber.Ctx) string {
	return ClientIP(c)
}

// ByIdentity keys by verified identity and falls back to the client address.
func ByIdentity(c *fiber.Ctx) string {
	if id := Identity(c); id != "" {
		return id
	}
	return "ip:" + ClientIP(c)
}

// ByParamAndIdentity keys by a route parameter plus identity, e.g.
// "<contentId>:<user>" for per-recipient messaging limits.
func ByParamAndIdentity(param string) KeyFunc {
	return func(c *fiber.Ctx) string {
		return c.Params(param) + ":" + ByIdentity(c)
	}
}

// SlidingWindow returns a Fiber middleware enforcing policy p on the shared
// limiter. Rejections answer 429 with a Retry-After header in whole seconds.
func SlidingWindow(limiter *ratelimit.Limiter, p ratelimit.Policy, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := limiter.AllowPolicy(p, key(c))
		if !decision.Allowed {
			observability.RateLimitRejections.WithLabelValues(p.Name).Inc()
			Logger.WarnContext(c.UserContext(), "rate limit exceeded",
				"policy", p.Name,
				"path", c.Path(),
				"retry_after", decision.RetryAfter,
			)
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError(decision.RetryAfter))
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(p.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		return c.Next()
	}
}
