package server

import (
	"dajtovon/internal/middleware"
	"dajtovon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query string false "Positive integer or \"all\" (default 5)"
// @Success 200 {array} models.Notification
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /notifications [get]
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	limit, err := service.ParseLimit(c.Query("limit"), s.notificationService.DefaultLimit())
	if err != nil {
		return respondError(c, err)
	}

	list, err := s.notificationService.List(c.UserContext(), middleware.Identity(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark one notification as read
// @Description Idempotent; only the recipient may mark a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseNotificationID(c)
	if err != nil {
		return respondError(c, err)
	}

	n, err := s.notificationService.MarkRead(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// UnreadNotificationCount handles GET /api/notifications/unread-count
// @Summary Number of unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{unread=int}
// @Router /notifications/unread-count [get]
func (s *Server) UnreadNotificationCount(c *fiber.Ctx) error {
	n, err := s.notificationService.UnreadCount(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark every notification of the caller as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{updated=int}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	n, err := s.notificationService.MarkAllRead(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}
