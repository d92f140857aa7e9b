package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"teamreports/utils"
)

const claimsKey = "session"

// Session reads an optional Bearer token and stores its claims in Locals.
// With required set, requests without a valid token are rejected.
// A token that is present but invalid is always rejected.
func Session(secret string, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			if required {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
			}
			return c.Next()
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization format", nil)
		}

		claims, err := utils.ParseSessionToken(secret, tokenParts[1])
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// Protected always requires a session.
func Protected(secret string) fiber.Handler {
	return Session(secret, true)
}

// AdminOnly rejects sessions without the admin flag. When enforce is false the
// check is skipped so an unauthenticated deployment keeps working.
func AdminOnly(enforce bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enforce {
			return c.Next()
		}
		claims := SessionClaims(c)
		if claims == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
		}
		if !claims.Admin {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Admin access required", nil)
		}
		return c.Next()
	}
}

// SessionClaims returns the claims set by Session, or nil.
func SessionClaims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(claimsKey).(*utils.Claims)
	return claims
}
