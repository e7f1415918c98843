package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressFixture(step string) *OnboardingProgress {
	return &OnboardingProgress{
		UserID:               uuid.New(),
		Step:                 step,
		Status:               StatusPending,
		RiskLevel:            RiskMedium,
		VerificationAttempts: 2,
		KYCData:              &KYCData{FirstName: "Ada", LastName: "Lovelace"},
		WalletAddress:        "0xabc",
		RecoveryEmail:        "ada@example.com",
		BackupCodes:          []string{"ABC123"},
		LastUpdated:          time.Now(),
	}
}

func TestViewHidesFieldsBeforeTheirStep(t *testing.T) {
	view := progressFixture(StepKYC).View()

	assert.Equal(t, StepKYC, view.Step)
	assert.Empty(t, view.RiskLevel)
	assert.Nil(t, view.KYCData)
	assert.Empty(t, view.WalletAddress)
	assert.Empty(t, view.RecoveryEmail)
}

func TestViewExposesKYCFromVerificationOn(t *testing.T) {
	for _, step := range []string{StepVerification, StepWallet} {
		view := progressFixture(step).View()
		assert.Equal(t, RiskMedium, view.RiskLevel, step)
		require.NotNil(t, view.KYCData, step)
		assert.Empty(t, view.WalletAddress, step)
	}
}

func TestViewExposesWalletDetailsOnlyAtComplete(t *testing.T) {
	view := progressFixture(StepComplete).View()

	assert.Equal(t, "0xabc", view.WalletAddress)
	assert.Equal(t, "ada@example.com", view.RecoveryEmail)
	require.NotNil(t, view.KYCData)
}

func TestBackupCodesNeverSerialized(t *testing.T) {
	p := progressFixture(StepComplete)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ABC123")

	raw, err = json.Marshal(p.View())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ABC123")
}
