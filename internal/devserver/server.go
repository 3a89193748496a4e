package devserver

import (
	"log"
	"strings"

	"notesync/internal/constant"
	"notesync/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Server is a single-binary reference sync server for development and
// end-to-end testing. State lives in memory and dies with the process.
type Server struct {
	app   *fiber.App
	hub   *Hub
	token string
	port  string
}

func New(token, port string) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{
		app:   app,
		hub:   NewHub(),
		token: token,
		port:  port,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Post(constant.SyncEndpointPath, s.handleSync)
}

func (s *Server) handleSync(c *fiber.Ctx) error {
	auth := c.Get(fiber.HeaderAuthorization)
	bearer, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || s.token == "" || bearer != s.token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid or missing bearer token",
		})
	}

	var req dto.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed sync request",
		})
	}

	return c.JSON(s.hub.Exchange(&req))
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("dev sync server listening on http://localhost:%s", s.port)
	return s.app.Listen(":" + s.port)
}
