package middleware

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/metrics"
	"github.com/mdsaddlery/storefront/internal/ratelimit"
)

// RateLimit throttles requests per client IP within the named route group.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, route string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, wait, err := limiter.Allow(c.Context(), route+":"+c.IP())
		if err != nil {
			log.Error().Err(err).
				Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
				Str("route", route).
				Msg("rate limiter failed, allowing request")
			return c.Next()
		}
		if !allowed {
			metrics.RateLimitedTotal.WithLabelValues(route).Inc()
			if wait > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			return reject(c, fiber.StatusTooManyRequests, "too many requests, please try again later", "RATE_LIMITED")
		}
		return c.Next()
	}
}
