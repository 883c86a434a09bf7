package server

import (
	"github.com/gofiber/fiber/v2"

	"snapgram/internal/models"
)

// GetStories handles GET /api/stories
func (s *Server) GetStories(c *fiber.Ctx) error {
	return c.JSON(s.state.Fixtures.StoriesWithUsers())
}

// GetNotifications handles GET /api/notifications. A signed-in viewer sees
// only the notifications addressed to them.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	if viewer := s.viewerID(); viewer != "" {
		return c.JSON(s.state.Fixtures.NotificationsFor(viewer))
	}
	return c.JSON(s.state.Fixtures.NotificationsWithUsers())
}

// GetChats handles GET /api/chats. A signed-in viewer sees only the chats
// they take part in.
func (s *Server) GetChats(c *fiber.Ctx) error {
	if viewer := s.viewerID(); viewer != "" {
		return c.JSON(s.state.Fixtures.ChatsFor(viewer))
	}
	return c.JSON(s.state.Fixtures.Chats())
}

// GetMessages handles GET /api/messages. A signed-in viewer sees only the
// messages they sent or received.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	messages := s.state.Fixtures.Messages()
	viewer := s.viewerID()
	if viewer == "" {
		return c.JSON(messages)
	}
	out := []models.Message{}
	for _, m := range messages {
		if m.SenderID == viewer || m.ReceiverID == viewer {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}
