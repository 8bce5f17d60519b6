package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

const defaultRequestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	navigateTimeout := deps.NavigateTimeout
	if navigateTimeout <= 0 {
		navigateTimeout = 45 * time.Second
	}

	v1 := app.Group("/v1")
	v1.Get("/navigate", timeout.NewWithContext(NavigateHandler(deps), navigateTimeout))
	v1.Get("/routes/safest", timeout.NewWithContext(SafestRouteHandler(deps), navigateTimeout))
	v1.Get("/safety/nearby", timeout.NewWithContext(NearbySafetyHandler(deps), defaultRequestTimeout))
	v1.Get("/safety/lights", timeout.NewWithContext(StreetLightsHandler(deps), defaultRequestTimeout))
	v1.Get("/weather", timeout.NewWithContext(WeatherHandler(deps), defaultRequestTimeout))
	v1.Post("/history", timeout.NewWithContext(AddHistoryHandler(deps), defaultRequestTimeout))
	v1.Get("/history", timeout.NewWithContext(ListHistoryHandler(deps), defaultRequestTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), navigateTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, DefaultOpenAPIPath)

	// WebSocket relay of completed navigations
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.Events == nil {
			return errServiceUnavailable(c, "event stream not configured")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
}
