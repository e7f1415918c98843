package security

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cryptodesk/backend/internal/models"
)

type fakeStore struct {
	settings map[uuid.UUID]*models.SecuritySettings
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[uuid.UUID]*models.SecuritySettings)}
}

func (f *fakeStore) GetSettings(ctx context.Context, userID uuid.UUID) (*models.SecuritySettings, error) {
	s, ok := f.settings[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) UpsertSettings(ctx context.Context, settings *models.SecuritySettings) error {
	existing, ok := f.settings[settings.UserID]
	if ok {
		// Only the three editable fields are overwritten.
		existing.TwoFactorEnabled = settings.TwoFactorEnabled
		existing.LoginNotifications = settings.LoginNotifications
		existing.TradingLimit = settings.TradingLimit
		return nil
	}
	cp := *settings
	f.settings[settings.UserID] = &cp
	return nil
}

func TestSettingsReturnsNilWhenAbsent(t *testing.T) {
	svc := NewService(newFakeStore())

	settings, err := svc.Settings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestUpdateSettingsInsertsThenPatches(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	userID := uuid.New()

	limit := 5000.0
	require.NoError(t, svc.UpdateSettings(context.Background(), userID, true, false, &limit))

	settings, err := svc.Settings(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.True(t, settings.TwoFactorEnabled)
	assert.False(t, settings.LoginNotifications)
	require.NotNil(t, settings.TradingLimit)
	assert.Equal(t, 5000.0, *settings.TradingLimit)

	// Second update overwrites all three editable fields.
	require.NoError(t, svc.UpdateSettings(context.Background(), userID, false, true, nil))

	settings, err = svc.Settings(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, settings.TwoFactorEnabled)
	assert.True(t, settings.LoginNotifications)
	assert.Nil(t, settings.TradingLimit)

	require.Len(t, store.settings, 1)
}

func TestUpdateSettingsLeavesPasswordChangeTimestamp(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	userID := uuid.New()

	require.NoError(t, svc.UpdateSettings(context.Background(), userID, true, true, nil))

	// A password change recorded out of band must survive later updates.
	changed := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	store.settings[userID].LastPasswordChange = &changed

	require.NoError(t, svc.UpdateSettings(context.Background(), userID, false, false, nil))

	settings, err := svc.Settings(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, settings.LastPasswordChange)
	assert.Equal(t, changed, *settings.LastPasswordChange)
}
