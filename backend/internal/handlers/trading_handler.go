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
	"github.com/user/cryptodesk/backend/internal/trading"
)

// TradingService is the behavior the trading routes depend on.
// Satisfied by *trading.Service; mocked in tests.
type TradingService interface {
	WalletBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	TransactionHistory(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
	SimulateTrade(ctx context.Context, userID uuid.UUID, tradeType string, amount float64, currency string) (float64, error)
	InitializeWallet(ctx context.Context, userID uuid.UUID, address string) error
}

// TradingHandler serves the wallet and trade routes.
type TradingHandler struct {
	svc TradingService
}

// NewTradingHandler creates the trading handler.
func NewTradingHandler(svc TradingService) *TradingHandler {
	return &TradingHandler{svc: svc}
}

// TradeRequest defines the expected JSON body for a simulated trade
type TradeRequest struct {
	Type     string  `json:"type"`     // "buy" or "sell"
	Amount   float64 `json:"amount"`   // Positive amount in the given currency
	Currency string  `json:"currency"` // e.g. "USDT"
}

// InitializeWalletRequest defines the expected JSON body for wallet initialization
type InitializeWalletRequest struct {
	Address string `json:"address"`
}

// GetWalletBalance returns the caller's wallet, or null for anonymous
// callers and users without a wallet.
func (h *TradingHandler) GetWalletBalance(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(nil)
	}

	wallet, err := h.svc.WalletBalance(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching wallet for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve wallet"})
	}

	if wallet == nil {
		return c.Status(fiber.StatusOK).JSON(nil)
	}
	return c.Status(fiber.StatusOK).JSON(wallet)
}

// GetTransactionHistory returns the caller's 10 most recent trades,
// newest first, or null for anonymous callers.
func (h *TradingHandler) GetTransactionHistory(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(nil)
	}

	transactions, err := h.svc.TransactionHistory(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching transactions for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transaction history"})
	}

	// If no transactions found, return empty array, not null
	if transactions == nil {
		transactions = make([]*models.Transaction, 0)
	}
	return c.Status(fiber.StatusOK).JSON(transactions)
}

// SimulateTrade applies a buy or sell against the caller's wallet and
// returns the new balance.
func (h *TradingHandler) SimulateTrade(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(TradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	if req.Type != "buy" && req.Type != "sell" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid type, must be 'buy' or 'sell'"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Positive amount is required"})
	}
	if req.Currency == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Currency is required"})
	}

	newBalance, err := h.svc.SimulateTrade(c.Context(), userID, req.Type, req.Amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, trading.ErrWalletNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Wallet not found"})
		case errors.Is(err, trading.ErrInsufficientBalance):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Insufficient balance"})
		default:
			log.Printf("Error simulating trade for user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to execute trade"})
		}
	}

	metrics.TradesTotal.WithLabelValues(req.Type).Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"balance": newBalance})
}

// InitializeWallet creates the caller's wallet with the demo starting
// balance. Safe to call repeatedly.
func (h *TradingHandler) InitializeWallet(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(InitializeWalletRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if strings.TrimSpace(req.Address) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Address is required"})
	}

	if err := h.svc.InitializeWallet(c.Context(), userID, req.Address); err != nil {
		log.Printf("Error initializing wallet for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize wallet"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
