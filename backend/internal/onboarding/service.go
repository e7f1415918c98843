package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/cryptodesk/backend/internal/models"
)

var (
	// ErrNotInitialized is returned when an onboarding operation is
	// invoked before initializeOnboarding created the progress record.
	ErrNotInitialized = errors.New("onboarding not initialized")

	// ErrInvalidDateOfBirth is returned when the submitted date of
	// birth cannot be parsed.
	ErrInvalidDateOfBirth = errors.New("invalid date of birth")
)

// Store is the persistence surface the state machine needs.
// Implemented by database.Store; faked in tests.
type Store interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*models.OnboardingProgress, error)
	CreateProgress(ctx context.Context, p *models.OnboardingProgress) error
	UpdateProgress(ctx context.Context, p *models.OnboardingProgress) error
	CompleteOnboarding(ctx context.Context, p *models.OnboardingProgress, wallet *models.Wallet, settings *models.SecuritySettings) error
}

// Service owns the onboarding step/status progression for a user:
// kyc -> verification -> wallet -> complete, where verification may
// repeat on failed attempts but no step ever regresses.
type Service struct {
	store    Store
	verifier Verifier
	now      func() time.Time
}

// NewService creates the onboarding service. A nil verifier falls back
// to the default random one.
func NewService(store Store, verifier Verifier) *Service {
	if verifier == nil {
		verifier = NewRandomVerifier()
	}
	return &Service{
		store:    store,
		verifier: verifier,
		now:      time.Now,
	}
}

// CurrentStep returns the user's progress projected onto the fields
// valid for its step, or nil if onboarding hasn't started.
func (s *Service) CurrentStep(ctx context.Context, userID uuid.UUID) (*models.ProgressView, error) {
	progress, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, nil
	}
	return progress.View(), nil
}

// Initialize creates the progress record at the kyc step. Calling it
// again when a record already exists is a no-op.
func (s *Service) Initialize(ctx context.Context, userID uuid.UUID) error {
	existing, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // Already initialized, nothing to do
	}

	return s.store.CreateProgress(ctx, &models.OnboardingProgress{
		UserID:               userID,
		Step:                 models.StepKYC,
		Status:               models.StatusPending,
		VerificationAttempts: 0,
		LastUpdated:          s.now().UTC(),
	})
}

// SubmitKYC stores the submitted personal data verbatim, assigns a
// risk level from the applicant's age and advances to verification.
func (s *Service) SubmitKYC(ctx context.Context, userID uuid.UUID, data models.KYCData) error {
	progress, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return err
	}
	if progress == nil {
		return ErrNotInitialized
	}

	riskLevel, err := riskLevelFromDateOfBirth(data.DateOfBirth, s.now())
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDateOfBirth, data.DateOfBirth)
	}

	progress.KYCData = &data
	progress.RiskLevel = riskLevel
	progress.Step = models.StepVerification
	progress.Status = models.StatusVerificationPending
	progress.LastUpdated = s.now().UTC()

	return s.store.UpdateProgress(ctx, progress)
}

// VerifyDocuments runs a mock document check. The outcome comes from
// the injected Verifier (random by default). The attempt counter
// increments on both branches; only a success advances the step. There
// is no maximum-attempts cutoff.
func (s *Service) VerifyDocuments(ctx context.Context, userID uuid.UUID) (bool, error) {
	progress, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return false, err
	}
	if progress == nil {
		return false, ErrNotInitialized
	}

	verified := s.verifier.Verify()
	progress.VerificationAttempts++
	progress.LastUpdated = s.now().UTC()

	if verified {
		progress.Step = models.StepWallet
		progress.Status = models.StatusKYCCompleted
	} else {
		// Step stays at verification so the user can retry.
		progress.Status = models.StatusVerificationFailed
	}

	if err := s.store.UpdateProgress(ctx, progress); err != nil {
		return false, err
	}
	return verified, nil
}

// ConnectWallet records the wallet address and recovery email,
// generates the user's backup codes and completes onboarding. As part
// of the same transaction it creates the wallet (demo starting
// balance) and the security-settings record (everything off, default
// trading limit). The codes are returned exactly once; they are stored
// but never exposed again.
func (s *Service) ConnectWallet(ctx context.Context, userID uuid.UUID, address, recoveryEmail string) ([]string, error) {
	progress, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, ErrNotInitialized
	}

	codes, err := GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("generating backup codes: %w", err)
	}

	progress.WalletAddress = address
	progress.RecoveryEmail = recoveryEmail
	progress.BackupCodes = codes
	progress.Step = models.StepComplete
	progress.Status = models.StatusCompleted
	progress.LastUpdated = s.now().UTC()

	tradingLimit := models.DefaultTradingLimit
	wallet := &models.Wallet{
		UserID:   userID,
		Address:  address,
		Balance:  models.StartingBalance,
		Currency: models.DefaultCurrency,
	}
	settings := &models.SecuritySettings{
		UserID:             userID,
		TwoFactorEnabled:   false,
		LoginNotifications: false,
		TradingLimit:       &tradingLimit,
	}

	if err := s.store.CompleteOnboarding(ctx, progress, wallet, settings); err != nil {
		return nil, err
	}
	return codes, nil
}

// riskLevelFromDateOfBirth scores risk from calendar-year age:
// under 25 high, under 35 medium, otherwise low. Month and day are
// deliberately ignored, matching the product's simplified rule.
func riskLevelFromDateOfBirth(dateOfBirth string, now time.Time) (string, error) {
	born, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return "", err
	}

	age := now.Year() - born.Year()
	switch {
	case age < 25:
		return models.RiskHigh, nil
	case age < 35:
		return models.RiskMedium, nil
	default:
		return models.RiskLow, nil
	}
}
