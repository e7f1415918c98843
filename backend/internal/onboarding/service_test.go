package onboarding

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cryptodesk/backend/internal/models"
)

// fakeStore mimics the database semantics: one record per user,
// idempotent creates, copy-on-read like a real row scan.
type fakeStore struct {
	progress map[uuid.UUID]*models.OnboardingProgress
	wallets  map[uuid.UUID]*models.Wallet
	settings map[uuid.UUID]*models.SecuritySettings

	createCalls   int
	completeCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		progress: make(map[uuid.UUID]*models.OnboardingProgress),
		wallets:  make(map[uuid.UUID]*models.Wallet),
		settings: make(map[uuid.UUID]*models.SecuritySettings),
	}
}

func (f *fakeStore) GetProgress(ctx context.Context, userID uuid.UUID) (*models.OnboardingProgress, error) {
	p, ok := f.progress[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateProgress(ctx context.Context, p *models.OnboardingProgress) error {
	f.createCalls++
	if _, ok := f.progress[p.UserID]; ok {
		return nil // ON CONFLICT DO NOTHING
	}
	cp := *p
	f.progress[p.UserID] = &cp
	return nil
}

func (f *fakeStore) UpdateProgress(ctx context.Context, p *models.OnboardingProgress) error {
	if _, ok := f.progress[p.UserID]; !ok {
		return fmt.Errorf("onboarding progress for user %s not found", p.UserID)
	}
	cp := *p
	f.progress[p.UserID] = &cp
	return nil
}

func (f *fakeStore) CompleteOnboarding(ctx context.Context, p *models.OnboardingProgress, wallet *models.Wallet, settings *models.SecuritySettings) error {
	f.completeCalls++
	if _, ok := f.progress[p.UserID]; !ok {
		return fmt.Errorf("onboarding progress for user %s not found", p.UserID)
	}
	cp := *p
	f.progress[p.UserID] = &cp
	if _, ok := f.wallets[wallet.UserID]; !ok {
		w := *wallet
		f.wallets[wallet.UserID] = &w
	}
	if _, ok := f.settings[settings.UserID]; !ok {
		s := *settings
		f.settings[settings.UserID] = &s
	}
	return nil
}

// scriptedVerifier returns a fixed sequence of outcomes.
type scriptedVerifier struct {
	outcomes []bool
	calls    int
}

func (v *scriptedVerifier) Verify() bool {
	outcome := v.outcomes[v.calls%len(v.outcomes)]
	v.calls++
	return outcome
}

func kycFixture(dateOfBirth string) models.KYCData {
	return models.KYCData{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DateOfBirth:    dateOfBirth,
		Address:        "12 Analytical St",
		DocumentType:   "passport",
		DocumentNumber: "P1234567",
		Nationality:    "GB",
		PhoneNumber:    "+441234567890",
	}
}

func dobForAge(age int) string {
	return fmt.Sprintf("%d-06-15", time.Now().Year()-age)
}

func TestInitializeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &scriptedVerifier{outcomes: []bool{true}})
	userID := uuid.New()

	require.NoError(t, svc.Initialize(context.Background(), userID))
	require.NoError(t, svc.Initialize(context.Background(), userID))

	require.Len(t, store.progress, 1)
	p := store.progress[userID]
	assert.Equal(t, models.StepKYC, p.Step)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Equal(t, 0, p.VerificationAttempts)
}

func TestSubmitKYCRequiresInitialization(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	err := svc.SubmitKYC(context.Background(), uuid.New(), kycFixture(dobForAge(30)))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSubmitKYCRiskLevels(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{24, models.RiskHigh},
		{30, models.RiskMedium},
		{40, models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("age_%d", tt.age), func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, nil)
			userID := uuid.New()
			require.NoError(t, svc.Initialize(context.Background(), userID))

			data := kycFixture(dobForAge(tt.age))
			require.NoError(t, svc.SubmitKYC(context.Background(), userID, data))

			p := store.progress[userID]
			assert.Equal(t, tt.want, p.RiskLevel)
			assert.Equal(t, models.StepVerification, p.Step)
			assert.Equal(t, models.StatusVerificationPending, p.Status)
			require.NotNil(t, p.KYCData)
			assert.Equal(t, data, *p.KYCData)
		})
	}
}

func TestSubmitKYCRejectsBadDateOfBirth(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	userID := uuid.New()
	require.NoError(t, svc.Initialize(context.Background(), userID))

	err := svc.SubmitKYC(context.Background(), userID, kycFixture("not-a-date"))
	assert.ErrorIs(t, err, ErrInvalidDateOfBirth)

	// Record untouched on rejection
	assert.Equal(t, models.StepKYC, store.progress[userID].Step)
}

func TestVerifyDocumentsCountsAttemptsAcrossBranches(t *testing.T) {
	store := newFakeStore()
	verifier := &scriptedVerifier{outcomes: []bool{false, false, true}}
	svc := NewService(store, verifier)
	userID := uuid.New()

	require.NoError(t, svc.Initialize(context.Background(), userID))
	require.NoError(t, svc.SubmitKYC(context.Background(), userID, kycFixture(dobForAge(40))))

	// Two failures: step stays at verification, status flips to failed.
	for i := 1; i <= 2; i++ {
		ok, err := svc.VerifyDocuments(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, ok)

		p := store.progress[userID]
		assert.Equal(t, models.StepVerification, p.Step)
		assert.Equal(t, models.StatusVerificationFailed, p.Status)
		assert.Equal(t, i, p.VerificationAttempts)
	}

	// Third attempt succeeds and advances the step.
	ok, err := svc.VerifyDocuments(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, ok)

	p := store.progress[userID]
	assert.Equal(t, models.StepWallet, p.Step)
	assert.Equal(t, models.StatusKYCCompleted, p.Status)
	assert.Equal(t, 3, p.VerificationAttempts)
}

func TestVerifyDocumentsRequiresInitialization(t *testing.T) {
	svc := NewService(newFakeStore(), &scriptedVerifier{outcomes: []bool{true}})

	_, err := svc.VerifyDocuments(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestConnectWalletCompletesOnboarding(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &scriptedVerifier{outcomes: []bool{true}})
	userID := uuid.New()

	require.NoError(t, svc.Initialize(context.Background(), userID))
	require.NoError(t, svc.SubmitKYC(context.Background(), userID, kycFixture(dobForAge(40))))
	_, err := svc.VerifyDocuments(context.Background(), userID)
	require.NoError(t, err)

	codes, err := svc.ConnectWallet(context.Background(), userID, "0xabc123", "ada@example.com")
	require.NoError(t, err)

	codePattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	require.Len(t, codes, 8)
	for _, code := range codes {
		assert.Regexp(t, codePattern, code)
	}

	p := store.progress[userID]
	assert.Equal(t, models.StepComplete, p.Step)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, "0xabc123", p.WalletAddress)
	assert.Equal(t, "ada@example.com", p.RecoveryEmail)
	assert.Equal(t, codes, p.BackupCodes)

	require.Len(t, store.wallets, 1)
	wallet := store.wallets[userID]
	assert.Equal(t, "0xabc123", wallet.Address)
	assert.Equal(t, models.StartingBalance, wallet.Balance)
	assert.Equal(t, models.DefaultCurrency, wallet.Currency)

	require.Len(t, store.settings, 1)
	settings := store.settings[userID]
	assert.False(t, settings.TwoFactorEnabled)
	assert.False(t, settings.LoginNotifications)
	require.NotNil(t, settings.TradingLimit)
	assert.Equal(t, models.DefaultTradingLimit, *settings.TradingLimit)
}

func TestConnectWalletTwiceKeepsSingleWallet(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &scriptedVerifier{outcomes: []bool{true}})
	userID := uuid.New()

	require.NoError(t, svc.Initialize(context.Background(), userID))

	_, err := svc.ConnectWallet(context.Background(), userID, "0xabc", "a@example.com")
	require.NoError(t, err)
	_, err = svc.ConnectWallet(context.Background(), userID, "0xdef", "a@example.com")
	require.NoError(t, err)

	// The second call re-patches progress but the idempotent inserts
	// keep exactly one wallet and one settings record.
	require.Len(t, store.wallets, 1)
	require.Len(t, store.settings, 1)
	assert.Equal(t, "0xabc", store.wallets[userID].Address)
}

func TestConnectWalletRequiresInitialization(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.ConnectWallet(context.Background(), uuid.New(), "0xabc", "a@example.com")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCurrentStepHidesLaterFields(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	userID := uuid.New()

	view, err := svc.CurrentStep(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, view)

	require.NoError(t, svc.Initialize(context.Background(), userID))

	view, err = svc.CurrentStep(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, models.StepKYC, view.Step)
	assert.Nil(t, view.KYCData)
	assert.Empty(t, view.RiskLevel)
	assert.Empty(t, view.WalletAddress)
}

func TestGenerateBackupCodesShape(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, 8)

	codePattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for _, code := range codes {
		assert.Regexp(t, codePattern, code)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		dob  string
		want string
	}{
		{"2002-01-01", models.RiskHigh},   // age 24
		{"2001-12-31", models.RiskMedium}, // age 25, calendar-year subtraction
		{"1996-01-01", models.RiskMedium}, // age 30
		{"1991-12-31", models.RiskLow},    // age 35
		{"1986-01-01", models.RiskLow},    // age 40
	}

	for _, tt := range tests {
		level, err := riskLevelFromDateOfBirth(tt.dob, now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, level, "dob %s", tt.dob)
	}
}
