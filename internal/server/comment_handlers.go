package server

import (
	"dajtovon/internal/middleware"
	"dajtovon/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// CreateComment handles POST /api/content/:id/comments
// @Summary Comment on content
// @Description Notifies the content author unless they wrote the comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /content/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Author:    middleware.Identity(c),
		ContentID: c.Params("id"),
		Text:      req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListComments handles GET /api/content/:id/comments
// @Summary List comments, newest first
// @Tags comments
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// UpdateComment handles PUT /api/content/:id/comments/:commentId
// @Summary Edit a comment (author only)
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param commentId path string true "Comment ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		Actor:     middleware.Identity(c),
		ContentID: c.Params("id"),
		CommentID: c.Params("commentId"),
		Text:      req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// DeleteComment handles DELETE /api/content/:id/comments/:commentId
// @Summary Delete a comment and its reactions (author only)
// @Tags comments
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param commentId path string true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	_, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		Actor:     middleware.Identity(c),
		ContentID: c.Params("id"),
		CommentID: c.Params("commentId"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
