package api

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/campusdesk/portal/internal/auth"
	"github.com/campusdesk/portal/internal/config"
	"github.com/campusdesk/portal/internal/lifecycle"
	"github.com/campusdesk/portal/internal/messaging"
	"github.com/campusdesk/portal/internal/presence"
	"github.com/campusdesk/portal/internal/ws"
)

type Server struct {
	engine   *lifecycle.Engine
	messages *messaging.Service
	hub      *ws.Hub
	presence *presence.Store
	cfg      *config.Config
	log      *zap.SugaredLogger
}

func NewServer(cfg *config.Config, engine *lifecycle.Engine, messages *messaging.Service, hub *ws.Hub, pres *presence.Store, validator *auth.Validator, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	})

	s := &Server{engine: engine, messages: messages, hub: hub, presence: pres, cfg: cfg, log: log}

	app.Use(fiberlogger.New())
	app.Use(NewIPRateLimiter(cfg.RatePerMinute, log).Handler())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/v1")
	api.Use(IdentityMiddleware(validator))

	api.Post("/requests", s.createRequest)
	api.Get("/requests", s.listRequests)
	api.Get("/requests/:id", s.getRequest)
	api.Post("/requests/:id/transition", s.transitionRequest)
	api.Post("/requests/bulk-accept", s.bulkAccept)

	api.Post("/messages", s.sendMessage)
	api.Get("/messages/:contact_id", s.listThread)
	api.Post("/contacts/:contact_id/read", s.markRead)
	api.Get("/sessions", s.listSessions)

	// ws lives outside the /v1 group: the identity middleware wants a
	// Bearer header, but browsers cannot set headers on a websocket
	// handshake, so the upgrade authenticates via ?token= instead
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		ident, err := validator.Validate(c.Query("token"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(identityKey, ident)
		return c.Next()
	})
	app.Get("/ws", websocket.New(s.wsConnect()))

	return app
}
