package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// userIDFromCtx pulls the authenticated user's ID out of the request
// context. The second return is false for anonymous requests (only
// possible on routes behind OptionalAuth).
func userIDFromCtx(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	return userID, ok
}
