package database

import (
	"context"
	"fmt"
	"log"
)

// Schema for the demo platform. Applied idempotently at startup so a
// fresh database is usable without a separate migration step.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS onboarding_progress (
		user_id UUID PRIMARY KEY,
		step TEXT NOT NULL,
		status TEXT NOT NULL,
		risk_level TEXT,
		verification_attempts INT NOT NULL DEFAULT 0,
		kyc_data JSONB,
		wallet_address TEXT,
		recovery_email TEXT,
		backup_codes TEXT[],
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id UUID PRIMARY KEY,
		address TEXT NOT NULL,
		balance DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		type TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_time
		ON transactions (user_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS security_settings (
		user_id UUID PRIMARY KEY,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		login_notifications BOOLEAN NOT NULL DEFAULT FALSE,
		trading_limit DOUBLE PRECISION,
		last_password_change TIMESTAMPTZ
	)`,
}

// Migrate applies the schema statements in order.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	log.Println("Database schema is up to date")
	return nil
}
