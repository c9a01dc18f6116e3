package server

import (
	"context"
	"errors"

	"dajtovon/internal/cache"
	"dajtovon/internal/middleware"
	"dajtovon/internal/models"
	"dajtovon/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsIdentityLocal = "wsIdentity"

func errLiveUnavailable(err error) *models.AppError {
	return &models.AppError{
		Code:      models.CodeStore,
		Message:   "Live updates are unavailable",
		Err:       err,
		Retryable: true,
	}
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a single-use WebSocket ticket
// @Description The ticket is valid for 30 seconds and lets a browser register on connect
// @Tags websocket
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket := uuid.NewString()
	if err := cache.StoreTicket(c.UserContext(), ticket, middleware.Identity(c), cache.WSTicketTTL); err != nil {
		return respondError(c, errLiveUnavailable(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebSocketUpgrade rejects plain HTTP requests and redeems an optional
// ?ticket= before the upgrade.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if ticket := c.Query("ticket"); ticket != "" {
		identity, err := cache.ConsumeTicket(c.UserContext(), ticket)
		if err != nil {
			if errors.Is(err, cache.ErrUnavailable) {
				return respondError(c, errLiveUnavailable(err))
			}
			return respondError(c, models.NewStoreError(err))
		}
		if identity == "" {
			return respondError(c, models.NewUnauthorizedError("Invalid or expired ticket"))
		}
		c.Locals(wsIdentityLocal, identity)
	}
	return c.Next()
}

// WebSocketHandler handles GET /api/ws. A connection starts unregistered
// unless a ticket was redeemed; clients then speak the register, unregister
// and ping messages.
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		client := notifications.NewClient(conn)

		client.OnMessage = func(cl *notifications.Client, message []byte) {
			s.dispatcher.Handle(ctx, cl, message)
		}
		client.OnClose = func(cl *notifications.Client) {
			s.registry.Unregister(cl)
		}

		if identity, ok := conn.Locals(wsIdentityLocal).(string); ok && identity != "" {
			msgType, payload := notifications.TypeRegistered, any(map[string]string{"identity": identity})
			if err := s.registry.Register(client, identity); err != nil {
				msgType, payload = notifications.TypeError, map[string]string{"error": "too many connections"}
			}
			if frame, err := notifications.Encode(msgType, payload); err == nil {
				_ = client.Send(frame)
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}
