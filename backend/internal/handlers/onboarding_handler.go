package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/user/cryptodesk/backend/internal/metrics"
	"github.com/user/cryptodesk/backend/internal/models"
	"github.com/user/cryptodesk/backend/internal/onboarding"
)

// OnboardingService is the behavior the onboarding routes depend on.
// Satisfied by *onboarding.Service; mocked in tests.
type OnboardingService interface {
	CurrentStep(ctx context.Context, userID uuid.UUID) (*models.ProgressView, error)
	Initialize(ctx context.Context, userID uuid.UUID) error
	SubmitKYC(ctx context.Context, userID uuid.UUID, data models.KYCData) error
	VerifyDocuments(ctx context.Context, userID uuid.UUID) (bool, error)
	ConnectWallet(ctx context.Context, userID uuid.UUID, address, recoveryEmail string) ([]string, error)
}

// OnboardingHandler serves the onboarding state machine routes.
type OnboardingHandler struct {
	svc OnboardingService
}

// NewOnboardingHandler creates the onboarding handler.
func NewOnboardingHandler(svc OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

// ConnectWalletRequest defines the expected JSON body for wallet connect
type ConnectWalletRequest struct {
	Address       string `json:"address"`
	RecoveryEmail string `json:"recovery_email"`
}

// GetCurrentStep returns the caller's onboarding progress, or null if
// the caller is anonymous or hasn't started onboarding.
func (h *OnboardingHandler) GetCurrentStep(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(nil)
	}

	view, err := h.svc.CurrentStep(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching onboarding progress for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve onboarding progress"})
	}

	// view is nil when onboarding hasn't started; serialize as null
	if view == nil {
		return c.Status(fiber.StatusOK).JSON(nil)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// Initialize creates the onboarding record. Calling it again is a no-op.
func (h *OnboardingHandler) Initialize(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	if err := h.svc.Initialize(c.Context(), userID); err != nil {
		log.Printf("Error initializing onboarding for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize onboarding"})
	}

	metrics.OnboardingTransitions.WithLabelValues(models.StepKYC).Inc()
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitKYC accepts the personal/document fields and advances the user
// to the verification step.
func (h *OnboardingHandler) SubmitKYC(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(models.KYCData)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	// All eight fields are required strings.
	for _, field := range []string{
		req.FirstName, req.LastName, req.DateOfBirth, req.Address,
		req.DocumentType, req.DocumentNumber, req.Nationality, req.PhoneNumber,
	} {
		if strings.TrimSpace(field) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All KYC fields are required"})
		}
	}

	if err := h.svc.SubmitKYC(c.Context(), userID, *req); err != nil {
		switch {
		case errors.Is(err, onboarding.ErrNotInitialized):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Onboarding not initialized"})
		case errors.Is(err, onboarding.ErrInvalidDateOfBirth):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date of birth, expected YYYY-MM-DD"})
		default:
			log.Printf("Error submitting KYC for user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit KYC data"})
		}
	}

	metrics.OnboardingTransitions.WithLabelValues(models.StepVerification).Inc()
	return c.SendStatus(fiber.StatusNoContent)
}

// VerifyDocuments runs the mock document check and reports the outcome.
func (h *OnboardingHandler) VerifyDocuments(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	verified, err := h.svc.VerifyDocuments(c.Context(), userID)
	if err != nil {
		if errors.Is(err, onboarding.ErrNotInitialized) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Onboarding not initialized"})
		}
		log.Printf("Error verifying documents for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify documents"})
	}

	if verified {
		metrics.OnboardingTransitions.WithLabelValues(models.StepWallet).Inc()
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"verified": verified})
}

// ConnectWallet completes onboarding and returns the backup codes.
// This is the only time the codes are ever exposed.
func (h *OnboardingHandler) ConnectWallet(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(ConnectWalletRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.RecoveryEmail) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Address and recovery email are required"})
	}

	codes, err := h.svc.ConnectWallet(c.Context(), userID, req.Address, req.RecoveryEmail)
	if err != nil {
		if errors.Is(err, onboarding.ErrNotInitialized) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Onboarding not initialized"})
		}
		log.Printf("Error connecting wallet for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect wallet"})
	}

	metrics.OnboardingTransitions.WithLabelValues(models.StepComplete).Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"backup_codes": codes})
}
