package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/user/cryptodesk/backend/internal/auth"
)

// Protected is a middleware function to verify JWT authentication.
// Requests without a valid token are rejected with 401. Used for
// every mutation route.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromHeader(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		// Store user information in context for downstream handlers
		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a valid token is
// present but lets anonymous requests through untouched. Query routes
// use this: an unauthenticated query returns a null result instead of
// failing.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := claimsFromHeader(c); err == nil {
			c.Locals("userID", claims.UserID)
			c.Locals("username", claims.Username)
		}
		return c.Next()
	}
}

func claimsFromHeader(c *fiber.Ctx) (*auth.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	claims, err := auth.ValidateJWT(parts[1])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}
