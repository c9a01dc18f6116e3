package server

import (
	"dajtovon/internal/middleware"
	"dajtovon/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contentRequest struct {
	Topic    string `json:"topic"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// ListContent handles GET /api/content
// @Summary List content
// @Description Newest first, optionally filtered by category
// @Tags content
// @Produce json
// @Param category query string false "Category slug"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Content
// @Router /content [get]
func (s *Server) ListContent(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	list, err := s.contentService.ListContent(c.UserContext(), service.ListContentInput{
		Category: c.Query("category"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ListMyContent handles GET /api/content/mine
// @Summary List the caller's content
// @Description Newest first, optionally filtered by category
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category slug"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Content
// @Failure 401 {object} models.ErrorResponse
// @Router /content/mine [get]
func (s *Server) ListMyContent(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	list, err := s.contentService.ListContent(c.UserContext(), service.ListContentInput{
		Category: c.Query("category"),
		Author:   middleware.Identity(c),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// CreateContent handles POST /api/content
// @Summary Publish content
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body contentRequest true "Content"
// @Success 201 {object} models.Content
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /content [post]
func (s *Server) CreateContent(c *fiber.Ctx) error {
	var req contentRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	created, err := s.contentService.CreateContent(c.UserContext(), service.CreateContentInput{
		Author:   middleware.Identity(c),
		Topic:    req.Topic,
		Body:     req.Content,
		Category: req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetContent handles GET /api/content/:id
// @Summary Get content
// @Tags content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} models.Content
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id} [get]
func (s *Server) GetContent(c *fiber.Ctx) error {
	content, err := s.contentService.GetContent(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(content)
}

// UpdateContent handles PUT /api/content/:id
// @Summary Edit content (author only)
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param request body contentRequest true "Content"
// @Success 200 {object} models.Content
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id} [put]
func (s *Server) UpdateContent(c *fiber.Ctx) error {
	var req contentRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := s.contentService.UpdateContent(c.UserContext(), service.UpdateContentInput{
		Actor:     middleware.Identity(c),
		ContentID: c.Params("id"),
		Topic:     req.Topic,
		Body:      req.Content,
		Category:  req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// DeleteContent handles DELETE /api/content/:id
// @Summary Delete content with its comments and reactions (author only)
// @Tags content
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id} [delete]
func (s *Server) DeleteContent(c *fiber.Ctx) error {
	if err := s.contentService.DeleteContent(c.UserContext(), middleware.Identity(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordView handles POST /api/content/:id/view
// @Summary Count a view
// @Tags content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} object{views=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/view [post]
func (s *Server) RecordView(c *fiber.Ctx) error {
	views, err := s.contentService.RecordView(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"views": views})
}

// GetContentStats handles GET /api/content/:id/stats
// @Summary Views, reaction counts and comments of a content item
// @Description user_reaction is included when the request is authenticated
// @Tags content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} models.ContentStats
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/stats [get]
func (s *Server) GetContentStats(c *fiber.Ctx) error {
	stats, err := s.contentService.Stats(c.UserContext(), c.Params("id"), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
