// Package middleware holds fiber middleware for session auth and request limiting.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/session"
)

const claimsContextKey = "sessionClaims"

// TokenAuthorizer checks a bearer token against a required role.
type TokenAuthorizer interface {
	Authorize(token string, role model.Role) (*session.Claims, error)
}

// RequireRole rejects requests without a valid bearer token for role and
// stores the verified claims in the request locals.
func RequireRole(auth TokenAuthorizer, role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return reject(c, fiber.StatusUnauthorized, "missing or invalid authorization header", "UNAUTHENTICATED")
		}

		claims, err := auth.Authorize(token, role)
		if err != nil {
			if errors.Is(err, session.ErrForbidden) {
				return reject(c, fiber.StatusForbidden, "access denied", "FORBIDDEN")
			}
			return reject(c, fiber.StatusUnauthorized, "invalid or expired token", "UNAUTHENTICATED")
		}

		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentClaims returns the claims stored by RequireRole.
func CurrentClaims(c *fiber.Ctx) (*session.Claims, bool) {
	claims, ok := c.Locals(claimsContextKey).(*session.Claims)
	return claims, ok && claims != nil
}

// CurrentAccountID extracts the authenticated account id from context.
func CurrentAccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return uuid.Nil, false
	}
	id := claims.AccountUUID()
	return id, id != uuid.Nil
}

func reject(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}
