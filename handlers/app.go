package handlers

import (
	"strings"

	"youth-sports-gamification/middleware"
	"youth-sports-gamification/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type AppOptions struct {
	ServiceToken   string
	AllowedOrigins string
	Throttle       fiber.Handler // per-user request limiter, optional
}

// NewApp builds the HTTP surface. Every request must come through the gateway.
func NewApp(opts AppOptions, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "youth-sports-gamification",
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(opts.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.AllowedOrigins),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles",
		MaxAge:       86400,
	}))

	throttle := opts.Throttle
	if throttle == nil {
		throttle = func(c *fiber.Ctx) error { return c.Next() }
	}
	SetupGameRoutes(app, svc, throttle)
	SetupProgressionRoutes(app, svc, throttle)
	return app
}

func normalizeOrigins(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "*"
	}
	parts := strings.Split(raw, ",")
	for i, origin := range parts {
		parts[i] = strings.TrimSpace(origin)
	}
	return strings.Join(parts, ",")
}
