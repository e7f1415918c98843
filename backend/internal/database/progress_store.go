package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user/cryptodesk/backend/internal/models"
)

// GetProgress retrieves a user's onboarding record.
// Returns nil, nil if the user has not initialized onboarding yet.
func (s *Store) GetProgress(ctx context.Context, userID uuid.UUID) (*models.OnboardingProgress, error) {
	p := &models.OnboardingProgress{}
	var (
		riskLevel     *string
		kycJSON       []byte
		walletAddress *string
		recoveryEmail *string
	)

	query := `SELECT user_id, step, status, risk_level, verification_attempts,
					 kyc_data, wallet_address, recovery_email, backup_codes, last_updated
			  FROM onboarding_progress WHERE user_id = $1`

	err := s.pool.QueryRow(ctx, query, userID).
		Scan(&p.UserID, &p.Step, &p.Status, &riskLevel, &p.VerificationAttempts,
			&kycJSON, &walletAddress, &recoveryEmail, &p.BackupCodes, &p.LastUpdated)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Onboarding not started for this user
		}
		return nil, fmt.Errorf("error getting onboarding progress for user %s: %w", userID, err)
	}

	if riskLevel != nil {
		p.RiskLevel = *riskLevel
	}
	if walletAddress != nil {
		p.WalletAddress = *walletAddress
	}
	if recoveryEmail != nil {
		p.RecoveryEmail = *recoveryEmail
	}
	if len(kycJSON) > 0 {
		kyc := &models.KYCData{}
		if err := json.Unmarshal(kycJSON, kyc); err != nil {
			return nil, fmt.Errorf("error decoding kyc data for user %s: %w", userID, err)
		}
		p.KYCData = kyc
	}

	return p, nil
}

// CreateProgress inserts the initial onboarding record for a user.
// ON CONFLICT DO NOTHING makes repeated initialization a no-op, even
// under concurrent requests.
func (s *Store) CreateProgress(ctx context.Context, p *models.OnboardingProgress) error {
	query := `INSERT INTO onboarding_progress (user_id, step, status, verification_attempts, last_updated)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		p.UserID, p.Step, p.Status, p.VerificationAttempts, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("error creating onboarding progress for user %s: %w", p.UserID, err)
	}
	return nil
}

// UpdateProgress overwrites the mutable onboarding fields for a user.
// Used by the KYC and verification transitions.
func (s *Store) UpdateProgress(ctx context.Context, p *models.OnboardingProgress) error {
	kycJSON, err := marshalKYC(p.KYCData)
	if err != nil {
		return err
	}

	query := `UPDATE onboarding_progress
			  SET step = $1, status = $2, risk_level = $3, verification_attempts = $4,
				  kyc_data = $5, last_updated = $6
			  WHERE user_id = $7`

	cmdTag, err := s.pool.Exec(ctx, query,
		p.Step, p.Status, nullable(p.RiskLevel), p.VerificationAttempts,
		kycJSON, p.LastUpdated, p.UserID)
	if err != nil {
		return fmt.Errorf("error updating onboarding progress for user %s: %w", p.UserID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("onboarding progress for user %s not found", p.UserID)
	}
	return nil
}

// CompleteOnboarding patches the progress record to its terminal state
// and creates the wallet and security-settings records, all in one
// transaction. Both inserts are idempotent so a retried call after a
// network blip cannot leave duplicates behind.
func (s *Store) CompleteOnboarding(ctx context.Context, p *models.OnboardingProgress, wallet *models.Wallet, settings *models.SecuritySettings) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction for user %s: %w", p.UserID, err)
	}
	// Ensure rollback happens if anything goes wrong before commit
	defer tx.Rollback(ctx)

	query := `UPDATE onboarding_progress
			  SET step = $1, status = $2, wallet_address = $3, recovery_email = $4,
				  backup_codes = $5, last_updated = $6
			  WHERE user_id = $7`

	cmdTag, err := tx.Exec(ctx, query,
		p.Step, p.Status, p.WalletAddress, p.RecoveryEmail,
		p.BackupCodes, p.LastUpdated, p.UserID)
	if err != nil {
		return fmt.Errorf("error completing onboarding for user %s: %w", p.UserID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("onboarding progress for user %s not found", p.UserID)
	}

	walletQuery := `INSERT INTO wallets (user_id, address, balance, currency)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, walletQuery,
		wallet.UserID, wallet.Address, wallet.Balance, wallet.Currency); err != nil {
		return fmt.Errorf("error creating wallet for user %s: %w", p.UserID, err)
	}

	settingsQuery := `INSERT INTO security_settings (user_id, two_factor_enabled, login_notifications, trading_limit)
					  VALUES ($1, $2, $3, $4)
					  ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, settingsQuery,
		settings.UserID, settings.TwoFactorEnabled, settings.LoginNotifications, settings.TradingLimit); err != nil {
		return fmt.Errorf("error creating security settings for user %s: %w", p.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing onboarding completion for user %s: %w", p.UserID, err)
	}
	return nil
}

func marshalKYC(kyc *models.KYCData) ([]byte, error) {
	if kyc == nil {
		return nil, nil
	}
	data, err := json.Marshal(kyc)
	if err != nil {
		return nil, fmt.Errorf("error encoding kyc data: %w", err)
	}
	return data, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
