// Package rest is the HTTP control surface of the workflow execution engine:
// validate, plan, execute, cancel and status, plus a websocket stream of run
// events.
package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"yqhp/automation-engine/pkg/engine"
)

// Config holds the REST server configuration.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string `yaml:"address"`

	// ReadTimeout bounds reading an entire request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// EnableCORS enables cross-origin requests.
	EnableCORS bool `yaml:"enable_cors"`

	// APIKey, when set, is required in the X-API-Key header on every
	// endpoint except the health check.
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		EnableCORS:   true,
	}
}

// Server serves the engine API over HTTP.
type Server struct {
	app    *fiber.App
	engine *engine.Engine
	config *Config
}

// NewServer creates a Server around an engine.
func NewServer(eng *engine.Engine, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		ErrorHandler: errorHandler,
		AppName:      "Automation Engine API",
	})

	s := &Server{app: app, engine: eng, config: config}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,DELETE,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,X-API-Key",
			MaxAge:       86400,
		}))
	}

	if s.config.APIKey != "" {
		s.app.Use(s.apiKeyAuth)
	}
}

func (s *Server) apiKeyAuth(c *fiber.Ctx) error {
	if c.Path() == "/health" {
		return c.Next()
	}
	if c.Get("X-API-Key") != s.config.APIKey {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "valid X-API-Key header is required",
		})
	}
	return c.Next()
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api/v1")
	api.Post("/workflows/validate", s.validateWorkflow)
	api.Post("/workflows/plan", s.planWorkflow)
	api.Post("/runs", s.executeWorkflow)
	api.Get("/runs/:id", s.runResult)
	api.Get("/runs/:id/status", s.runStatus)
	api.Delete("/runs/:id", s.cancelRun)

	s.setupWebSocketRoutes()
}

// Start begins serving. It blocks until Shutdown is called.
func (s *Server) Start() error {
	return s.app.Listen(s.config.Address)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		Error:   "request_failed",
		Message: err.Error(),
	})
}
