package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/user/cryptodesk/backend/internal/ticker"
)

// GetPrices returns a snapshot of the simulated market prices. REST
// convenience for the dashboard; live updates come over the websocket.
func GetPrices(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(ticker.GetCurrentPrices())
}
