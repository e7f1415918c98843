package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/user/cryptodesk/backend/internal/models"
)

// SecurityService is the behavior the security-settings routes depend on.
// Satisfied by *security.Service; mocked in tests.
type SecurityService interface {
	Settings(ctx context.Context, userID uuid.UUID) (*models.SecuritySettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, twoFactorEnabled, loginNotifications bool, tradingLimit *float64) error
}

// SecurityHandler serves the security-settings routes.
type SecurityHandler struct {
	svc SecurityService
}

// NewSecurityHandler creates the security handler.
func NewSecurityHandler(svc SecurityService) *SecurityHandler {
	return &SecurityHandler{svc: svc}
}

// UpdateSettingsRequest defines the expected JSON body for a settings update
type UpdateSettingsRequest struct {
	TwoFactorEnabled   bool     `json:"two_factor_enabled"`
	LoginNotifications bool     `json:"login_notifications"`
	TradingLimit       *float64 `json:"trading_limit"`
}

// GetSettings returns the caller's security settings, or null for
// anonymous callers and users without a settings record.
func (h *SecurityHandler) GetSettings(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(nil)
	}

	settings, err := h.svc.Settings(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching security settings for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve security settings"})
	}

	if settings == nil {
		return c.Status(fiber.StatusOK).JSON(nil)
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

// UpdateSettings overwrites the caller's editable settings fields,
// creating the record on first update.
func (h *SecurityHandler) UpdateSettings(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(UpdateSettingsRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.svc.UpdateSettings(c.Context(), userID, req.TwoFactorEnabled, req.LoginNotifications, req.TradingLimit); err != nil {
		log.Printf("Error updating security settings for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update security settings"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
