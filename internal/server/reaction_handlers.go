package server

import (
	"dajtovon/internal/middleware"
	"dajtovon/internal/reaction"
	"dajtovon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReactToContent returns the handler for POST /api/content/:id/{like,dislike,neutral}
// @Summary React to content
// @Description like and dislike are idempotent; neutral clears the caller's reaction
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param action path string true "like, dislike or neutral"
// @Success 200 {object} service.ReactResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /content/{id}/{action} [post]
func (s *Server) ReactToContent(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.react(c, c.Params("id"), "", action)
	}
}

// ReactToComment returns the handler for POST /api/content/:id/comments/:commentId/{like,dislike,neutral}
// @Summary React to a comment
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param commentId path string true "Comment ID"
// @Param action path string true "like, dislike or neutral"
// @Success 200 {object} service.ReactResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /content/{id}/comments/{commentId}/{action} [post]
func (s *Server) ReactToComment(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.react(c, c.Params("id"), c.Params("commentId"), action)
	}
}

func (s *Server) react(c *fiber.Ctx, contentID, commentID, action string) error {
	result, err := s.reactionService.React(c.UserContext(), service.ReactInput{
		Actor:     middleware.Identity(c),
		ContentID: contentID,
		CommentID: commentID,
		Action:    reaction.Action(action),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ContentReactions handles GET /api/content/:id/reactions
// @Summary Like and dislike sets of a content item
// @Tags reactions
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} reaction.Sets
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/reactions [get]
func (s *Server) ContentReactions(c *fiber.Ctx) error {
	return s.reactionSets(c, c.Params("id"), "")
}

// CommentReactions handles GET /api/content/:id/comments/:commentId/reactions
// @Summary Like and dislike sets of a comment
// @Tags reactions
// @Produce json
// @Param id path string true "Content ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} reaction.Sets
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/comments/{commentId}/reactions [get]
func (s *Server) CommentReactions(c *fiber.Ctx) error {
	return s.reactionSets(c, c.Params("id"), c.Params("commentId"))
}

func (s *Server) reactionSets(c *fiber.Ctx, contentID, commentID string) error {
	sets, err := s.reactionService.Sets(c.UserContext(), contentID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sets)
}
