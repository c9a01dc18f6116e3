package server

import (
	"dajtovon/internal/middleware"
	"dajtovon/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contactPageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactAuthorRequest struct {
	Message string `json:"message"`
}

// ContactPage handles POST /api/contact
// @Summary Send a message to the site inbox
// @Tags contact
// @Accept json
// @Produce json
// @Param request body contactPageRequest true "Message"
// @Success 202 {object} object{status=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /contact [post]
func (s *Server) ContactPage(c *fiber.Ctx) error {
	var req contactPageRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	err := s.contactService.SendContactPage(c.UserContext(), service.ContactPageInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent"})
}

// ContactAuthor handles POST /api/content/:id/contact-author
// @Summary Email the author of a content item
// @Tags contact
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param request body contactAuthorRequest true "Message"
// @Success 202 {object} object{status=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /content/{id}/contact-author [post]
func (s *Server) ContactAuthor(c *fiber.Ctx) error {
	var req contactAuthorRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	err := s.contactService.ContactAuthor(c.UserContext(), service.ContactAuthorInput{
		Sender:    middleware.Identity(c),
		ContentID: c.Params("id"),
		Message:   req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent"})
}
