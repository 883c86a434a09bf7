package server

import (
	"github.com/gofiber/fiber/v2"

	"snapgram/internal/auth"
	"snapgram/internal/models"
)

// authResponse is a Result plus the auth state it left behind.
type authResponse struct {
	models.Result
	State auth.State `json:"state"`
}

// GetMe handles GET /api/auth/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	return c.JSON(s.state.Auth.State())
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var form models.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res := s.state.Auth.Login(c.UserContext(), form)
	status := fiber.StatusOK
	if !res.Success {
		status = fiber.StatusUnauthorized
	}
	return c.Status(status).JSON(authResponse{Result: res, State: s.state.Auth.State()})
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var form models.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res := s.state.Auth.Signup(c.UserContext(), form)
	status := fiber.StatusCreated
	if !res.Success {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(authResponse{Result: res, State: s.state.Auth.State()})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	s.state.Auth.Logout(c.UserContext())
	return c.JSON(authResponse{Result: models.OK(), State: s.state.Auth.State()})
}
