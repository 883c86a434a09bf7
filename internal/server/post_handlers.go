package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"snapgram/internal/models"
	"snapgram/internal/posts"
)

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	return c.JSON(s.state.Posts.State())
}

// RefreshPosts handles POST /api/posts/refresh
func (s *Server) RefreshPosts(c *fiber.Ctx) error {
	if err := s.state.Posts.FetchPosts(c.UserContext()); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, &models.AppError{
			Code:    models.CodeInternal,
			Message: posts.MsgFetchFailed,
			Err:     err,
		})
	}
	return c.JSON(s.state.Posts.State())
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var form models.PostForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, res := s.state.Posts.CreatePost(c.UserContext(), form, userID)
	if !res.Success {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.FromResult(res, models.CodeInternal))
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// EditPost handles PUT /api/posts/:id. Only the author may edit.
func (s *Server) EditPost(c *fiber.Ctx) error {
	var edit models.PostEdit
	if err := c.BodyParser(&edit); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if edit.Caption == nil && edit.Location == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Nothing to update"))
	}

	post, err := s.state.Posts.EditPost(c.UserContext(), c.Params("id"), c.Locals("userID").(string), edit)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. Only the author may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.state.Posts.DeletePost(c.UserContext(), c.Params("id"), c.Locals("userID").(string)); err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like. It toggles the like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if !s.state.Posts.LikePost(postID, c.Locals("userID").(string)) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	}
	return s.respondWithPost(c, postID)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if !s.state.Posts.UnlikePost(postID, c.Locals("userID").(string)) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	}
	return s.respondWithPost(c, postID)
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID := c.Params("id")

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}

	comment, ok := s.state.Posts.AddComment(c.UserContext(), postID, req.Content, c.Locals("userID").(string))
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetFeed handles GET /api/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	return c.JSON(s.state.Posts.FeedPosts(s.viewerID()))
}

func (s *Server) respondWithPost(c *fiber.Ctx, postID string) error {
	for _, p := range s.state.Posts.State().Posts {
		if p.ID == postID {
			return c.JSON(p)
		}
	}
	// Removed by a concurrent refresh between the update and this read.
	return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
}
