package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user/cryptodesk/backend/internal/models"
)

// GetSettings retrieves a user's security settings.
// Returns nil, nil if no settings record exists yet.
func (s *Store) GetSettings(ctx context.Context, userID uuid.UUID) (*models.SecuritySettings, error) {
	settings := &models.SecuritySettings{}
	query := `SELECT user_id, two_factor_enabled, login_notifications, trading_limit, last_password_change
			  FROM security_settings WHERE user_id = $1`

	err := s.pool.QueryRow(ctx, query, userID).
		Scan(&settings.UserID, &settings.TwoFactorEnabled, &settings.LoginNotifications,
			&settings.TradingLimit, &settings.LastPasswordChange)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No settings record for this user yet
		}
		return nil, fmt.Errorf("error getting security settings for user %s: %w", userID, err)
	}
	return settings, nil
}

// UpsertSettings overwrites the three editable fields, inserting the
// record if it doesn't exist. last_password_change is left untouched
// on update.
func (s *Store) UpsertSettings(ctx context.Context, settings *models.SecuritySettings) error {
	query := `INSERT INTO security_settings (user_id, two_factor_enabled, login_notifications, trading_limit)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id) DO UPDATE
			  SET two_factor_enabled = EXCLUDED.two_factor_enabled,
				  login_notifications = EXCLUDED.login_notifications,
				  trading_limit = EXCLUDED.trading_limit`

	_, err := s.pool.Exec(ctx, query,
		settings.UserID, settings.TwoFactorEnabled, settings.LoginNotifications, settings.TradingLimit)
	if err != nil {
		return fmt.Errorf("error upserting security settings for user %s: %w", settings.UserID, err)
	}
	return nil
}
