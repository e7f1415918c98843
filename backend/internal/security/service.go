package security

import (
	"context"

	"github.com/google/uuid"
	"github.com/user/cryptodesk/backend/internal/models"
)

// Store is the persistence surface the settings store needs.
// Implemented by database.Store; faked in tests.
type Store interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.SecuritySettings, error)
	UpsertSettings(ctx context.Context, settings *models.SecuritySettings) error
}

// Service owns the per-user security settings record.
type Service struct {
	store Store
}

// NewService creates the security settings service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Settings returns the user's settings, or nil if none exist yet.
func (s *Service) Settings(ctx context.Context, userID uuid.UUID) (*models.SecuritySettings, error) {
	return s.store.GetSettings(ctx, userID)
}

// UpdateSettings overwrites the three editable fields, creating the
// record on first update. A nil tradingLimit clears the limit.
func (s *Service) UpdateSettings(ctx context.Context, userID uuid.UUID, twoFactorEnabled, loginNotifications bool, tradingLimit *float64) error {
	return s.store.UpsertSettings(ctx, &models.SecuritySettings{
		UserID:             userID,
		TwoFactorEnabled:   twoFactorEnabled,
		LoginNotifications: loginNotifications,
		TradingLimit:       tradingLimit,
	})
}
