package models

import (
	"time"

	"github.com/google/uuid"
)

// Onboarding steps, in order. A user only ever moves forward through
// these (verification may repeat on failed attempts).
const (
	StepKYC          = "kyc"
	StepVerification = "verification"
	StepWallet       = "wallet"
	StepComplete     = "complete"
)

// Status labels correlated with the current step.
const (
	StatusPending             = "pending"
	StatusVerificationPending = "verification_pending"
	StatusVerificationFailed  = "verification_failed"
	StatusKYCCompleted        = "kyc_completed"
	StatusCompleted           = "completed"
)

// Risk levels assigned at KYC submission.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Demo platform defaults applied when wallet / settings records are created.
const (
	StartingBalance     = 1000.0
	DefaultCurrency     = "USDT"
	DefaultTradingLimit = 10000.0
)

// User represents a user account
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // Store hash, exclude from JSON responses
	CreatedAt time.Time `json:"created_at"`
}

// KYCData holds the personal/document fields submitted during KYC.
// Stored verbatim; nothing is checked against real registries.
type KYCData struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DateOfBirth    string `json:"dateOfBirth"`
	Address        string `json:"address"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Nationality    string `json:"nationality"`
	PhoneNumber    string `json:"phoneNumber"`
}

// OnboardingProgress is the single per-user onboarding record.
type OnboardingProgress struct {
	UserID               uuid.UUID `json:"user_id"`
	Step                 string    `json:"step"`
	Status               string    `json:"status"`
	RiskLevel            string    `json:"risk_level,omitempty"`
	VerificationAttempts int       `json:"verification_attempts"`
	KYCData              *KYCData  `json:"kyc_data,omitempty"`
	WalletAddress        string    `json:"wallet_address,omitempty"`
	RecoveryEmail        string    `json:"recovery_email,omitempty"`
	BackupCodes          []string  `json:"-"` // returned once by wallet connect, never re-exposed
	LastUpdated          time.Time `json:"last_updated"`
}

// ProgressView is the step-discriminated shape handed to clients.
// Each step exposes exactly the fields valid for that state, so the
// frontend never sees KYC data or wallet details before they exist.
type ProgressView struct {
	Step                 string    `json:"step"`
	Status               string    `json:"status"`
	VerificationAttempts int       `json:"verification_attempts"`
	RiskLevel            string    `json:"risk_level,omitempty"`
	KYCData              *KYCData  `json:"kyc_data,omitempty"`
	WalletAddress        string    `json:"wallet_address,omitempty"`
	RecoveryEmail        string    `json:"recovery_email,omitempty"`
	LastUpdated          time.Time `json:"last_updated"`
}

// View projects the progress record onto the fields valid for its step.
// Backup codes are deliberately absent from every branch.
func (p *OnboardingProgress) View() *ProgressView {
	v := &ProgressView{
		Step:                 p.Step,
		Status:               p.Status,
		VerificationAttempts: p.VerificationAttempts,
		LastUpdated:          p.LastUpdated,
	}

	switch p.Step {
	case StepVerification, StepWallet:
		v.RiskLevel = p.RiskLevel
		v.KYCData = p.KYCData
	case StepComplete:
		v.RiskLevel = p.RiskLevel
		v.KYCData = p.KYCData
		v.WalletAddress = p.WalletAddress
		v.RecoveryEmail = p.RecoveryEmail
	}
	return v
}

// Wallet is the single per-user wallet record, mutated by trades.
type Wallet struct {
	UserID   uuid.UUID `json:"user_id"`
	Address  string    `json:"address"`
	Balance  float64   `json:"balance"`
	Currency string    `json:"currency"`
}

// Transaction is an append-only trade record. Never mutated after creation.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"` // "buy" or "sell"
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"` // always "completed" for simulated trades
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// SecuritySettings is the single per-user settings record. Freely
// overwritten on update; no history is kept.
type SecuritySettings struct {
	UserID             uuid.UUID  `json:"user_id"`
	TwoFactorEnabled   bool       `json:"two_factor_enabled"`
	LoginNotifications bool       `json:"login_notifications"`
	TradingLimit       *float64   `json:"trading_limit,omitempty"`
	LastPasswordChange *time.Time `json:"last_password_change,omitempty"`
}
