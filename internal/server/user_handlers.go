package server

import (
	"github.com/gofiber/fiber/v2"

	"snapgram/internal/models"
)

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID := c.Params("id")
	if _, ok := s.state.LookupUser(userID); !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("User", userID))
	}
	return c.JSON(s.state.Posts.PostsByUser(userID))
}

// GetUserByUsername handles GET /api/users/by-username/:username
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	if u, ok := s.state.Fixtures.UserByUsername(username); ok {
		return c.JSON(u)
	}
	if u, ok := s.state.Auth.CurrentUser(); ok && u.Username == username {
		return c.JSON(u)
	}
	return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("User", username))
}
