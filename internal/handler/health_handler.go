package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type dependency struct {
	name     string
	pinger   Pinger
	required bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler creates a HealthHandler that requires the database pool.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{deps: []dependency{{name: "database", pinger: db, required: true}}}
}

// WithOptional adds a dependency reported in the body that does not fail the check.
func (h *HealthHandler) WithOptional(name string, p Pinger) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, pinger: p})
	return h
}

// Root handles GET / with a plain liveness string.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.SendString("Storefront API is running")
}

// Check pings every dependency.
// Returns 200 OK with {"status": "healthy"} when the database is reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} when it is not.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true
	for _, d := range h.deps {
		if err := d.pinger.Ping(c.Context()); err != nil {
			log.Error().Err(err).Str("dependency", d.name).Msg("health check failed")
			checks[d.name] = "down"
			if d.required {
				healthy = false
			}
			continue
		}
		checks[d.name] = "up"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
			"checks": checks,
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"checks": checks,
	})
}
