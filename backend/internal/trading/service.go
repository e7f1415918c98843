package trading

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/cryptodesk/backend/internal/models"
)

// historyLimit caps getTransactionHistory at the 10 most recent trades.
const historyLimit = 10

var (
	// ErrWalletNotFound is returned when a trade is attempted before a
	// wallet exists for the user.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance is returned when a sell would drive the
	// balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidTradeType is returned for trade types other than buy/sell.
	ErrInvalidTradeType = errors.New("invalid trade type")
)

// Store is the persistence surface the ledger needs.
// Implemented by database.Store; faked in tests.
type Store interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	ApplyTrade(ctx context.Context, userID uuid.UUID, newBalance float64, txn *models.Transaction) error
	RecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error)
}

// Service owns wallet balance mutation and the append-only trade
// history. Trades are simulated: no market data, no order matching,
// just balance arithmetic against the amount the caller supplies.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates the trading service.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// WalletBalance returns the user's wallet, or nil if none exists.
func (s *Service) WalletBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.store.GetWallet(ctx, userID)
}

// TransactionHistory returns the user's 10 most recent transactions,
// newest first.
func (s *Service) TransactionHistory(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	return s.store.RecentTransactions(ctx, userID, historyLimit)
}

// SimulateTrade applies a buy or sell against the wallet balance and
// appends the transaction record. Buys are unconstrained; a sell that
// would go negative is rejected before anything is written. Returns
// the new balance.
func (s *Service) SimulateTrade(ctx context.Context, userID uuid.UUID, tradeType string, amount float64, currency string) (float64, error) {
	wallet, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, ErrWalletNotFound
	}

	var newBalance float64
	switch tradeType {
	case "buy":
		newBalance = wallet.Balance + amount
	case "sell":
		newBalance = wallet.Balance - amount
		if newBalance < 0 {
			return 0, ErrInsufficientBalance
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTradeType, tradeType)
	}

	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        tradeType,
		Amount:      amount,
		Currency:    currency,
		Status:      models.StatusCompleted,
		Timestamp:   s.now().UTC(),
		Description: tradeDescription(tradeType, amount, currency),
	}

	if err := s.store.ApplyTrade(ctx, userID, newBalance, txn); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// InitializeWallet creates the wallet with the demo starting balance
// if the user doesn't have one yet. Safe to call repeatedly.
func (s *Service) InitializeWallet(ctx context.Context, userID uuid.UUID, address string) error {
	existing, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // Wallet already exists, nothing to do
	}

	return s.store.CreateWallet(ctx, &models.Wallet{
		UserID:   userID,
		Address:  address,
		Balance:  models.StartingBalance,
		Currency: models.DefaultCurrency,
	})
}

// tradeDescription renders the human-readable ledger line, e.g.
// "BUY 50 USDT".
func tradeDescription(tradeType string, amount float64, currency string) string {
	return fmt.Sprintf("%s %s %s",
		strings.ToUpper(tradeType),
		strconv.FormatFloat(amount, 'f', -1, 64),
		currency)
}
