// Package server exposes the application context over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"snapgram/internal/app"
	"snapgram/internal/config"
	"snapgram/internal/middleware"
	"snapgram/internal/models"
	"snapgram/internal/notifications"
	"snapgram/internal/observability"
	"snapgram/internal/storage"
)

// Server holds the HTTP surface and the application context it serves.
type Server struct {
	config         *config.Config
	state          *app.App
	hub            *notifications.Hub
	promMiddleware *fiberprometheus.FiberPrometheus
	app            *fiber.App
	detach         func()
}

// NewServer builds the fiber app for a and starts streaming its state
// transitions to hub. A nil hub gets a fresh one.
func NewServer(a *app.App, hub *notifications.Hub) *Server {
	if hub == nil {
		hub = notifications.NewHub()
	}

	s := &Server{
		config:         a.Config,
		state:          a,
		hub:            hub,
		promMiddleware: middleware.InitMetrics("snapgram-api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "snapgram",
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	s.detach = hub.Attach(a)

	return s
}

// Handler returns the underlying fiber app.
func (s *Server) Handler() *fiber.App {
	return s.app
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, err)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, 0, err)
	}
	observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace id reaches
	// the request context.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Get("/me", s.GetMe)
	authRoutes.Post("/login", s.Login)
	authRoutes.Post("/signup", s.Signup)
	authRoutes.Post("/logout", s.Logout)

	postRoutes := api.Group("/posts")
	postRoutes.Get("/", s.GetPosts)
	postRoutes.Post("/refresh", s.RefreshPosts)
	postRoutes.Post("/", s.AuthRequired(), s.CreatePost)
	postRoutes.Put("/:id", s.AuthRequired(), s.EditPost)
	postRoutes.Delete("/:id", s.AuthRequired(), s.DeletePost)
	postRoutes.Post("/:id/like", s.AuthRequired(), s.LikePost)
	postRoutes.Delete("/:id/like", s.AuthRequired(), s.UnlikePost)
	postRoutes.Post("/:id/comments", s.AuthRequired(), s.AddComment)

	api.Get("/feed", s.GetFeed)

	userRoutes := api.Group("/users")
	userRoutes.Get("/by-username/:username", s.GetUserByUsername)
	userRoutes.Get("/:id/posts", s.GetUserPosts)

	api.Get("/stories", s.GetStories)
	api.Get("/notifications", s.GetNotifications)
	api.Get("/chats", s.GetChats)
	api.Get("/messages", s.GetMessages)

	api.Get("/ws", s.WebSocketUpgrade, s.WebSocketStateHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck probes session storage and reports fixture counts.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storageStatus := "healthy"
	if _, _, err := s.state.Storage.GetItem(ctx, storage.SessionKey); err != nil {
		storageStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"storage": storageStatus,
		},
		"storage_driver": s.config.StorageDriver,
		"users":          len(s.state.Fixtures.Users()),
		"posts":          len(s.state.Posts.State().Posts),
		"websockets":     s.hub.Count(),
		"feature_flags":  s.state.Flags.Names(),
		"time":           time.Now(),
	})
}

// AuthRequired rejects requests while no session is signed in and exposes
// the signed-in user id as the "userID" local.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := s.state.Auth.CurrentUser()
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Login required"))
		}
		c.Locals("userID", u.ID)
		c.SetUserContext(context.WithValue(c.UserContext(), observability.UserID, u.ID))
		return c.Next()
	}
}

// viewerID returns the signed-in user id, or "" when logged out.
func (s *Server) viewerID() string {
	if u, ok := s.state.Auth.CurrentUser(); ok {
		return u.ID
	}
	return ""
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	observability.GlobalLogger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes every websocket.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}

	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	observability.GlobalLogger.Info("server shutdown complete")
	return errors.Join(errs...)
}
