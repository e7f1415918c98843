package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user/cryptodesk/backend/internal/models"
)

// GetWallet retrieves a user's wallet record.
// Returns nil, nil if the user has no wallet yet.
func (s *Store) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `SELECT user_id, address, balance, currency FROM wallets WHERE user_id = $1`

	err := s.pool.QueryRow(ctx, query, userID).
		Scan(&wallet.UserID, &wallet.Address, &wallet.Balance, &wallet.Currency)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No wallet record for this user yet
		}
		return nil, fmt.Errorf("error getting wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// CreateWallet inserts a wallet record if one doesn't already exist.
// ON CONFLICT DO NOTHING keeps the operation idempotent.
func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `INSERT INTO wallets (user_id, address, balance, currency)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		wallet.UserID, wallet.Address, wallet.Balance, wallet.Currency)
	if err != nil {
		return fmt.Errorf("error creating wallet for user %s: %w", wallet.UserID, err)
	}
	return nil
}

// ApplyTrade patches the wallet balance and appends the trade's
// transaction record in one database transaction, so a crash between
// the two writes can't leave the ledger out of step with the balance.
func (s *Store) ApplyTrade(ctx context.Context, userID uuid.UUID, newBalance float64, txn *models.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting trade transaction for user %s: %w", userID, err)
	}
	defer tx.Rollback(ctx)

	updateQuery := `UPDATE wallets SET balance = $1 WHERE user_id = $2`
	cmdTag, err := tx.Exec(ctx, updateQuery, newBalance, userID)
	if err != nil {
		return fmt.Errorf("error updating balance for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("wallet for user %s not found", userID)
	}

	insertQuery := `INSERT INTO transactions (id, user_id, type, amount, currency, status, timestamp, description)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.Exec(ctx, insertQuery,
		txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Currency,
		txn.Status, txn.Timestamp, txn.Description); err != nil {
		return fmt.Errorf("error recording transaction for user %s: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing trade for user %s: %w", userID, err)
	}
	return nil
}

// RecentTransactions returns the user's most recent transactions,
// newest first, capped at limit.
func (s *Store) RecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	transactions := make([]*models.Transaction, 0)
	query := `SELECT id, user_id, type, amount, currency, status, timestamp, description
			  FROM transactions WHERE user_id = $1
			  ORDER BY timestamp DESC
			  LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		txn := &models.Transaction{}
		err := rows.Scan(&txn.ID, &txn.UserID, &txn.Type, &txn.Amount,
			&txn.Currency, &txn.Status, &txn.Timestamp, &txn.Description)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row for user %s: %w", userID, err)
		}
		transactions = append(transactions, txn)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating transaction rows for user %s: %w", userID, rows.Err())
	}

	return transactions, nil
}
