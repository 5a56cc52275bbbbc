package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema when absent. Idempotent, safe to run on every
// start. The movement tables have no UPDATE or DELETE path anywhere in the
// codebase; history is append-only.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id BIGINT PRIMARY KEY,
			total_balance BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_transactions (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS money_transfers (
			id UUID PRIMARY KEY,
			sender_id BIGINT NOT NULL,
			getter_id BIGINT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_user ON payment_transactions (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_money_transfers_sender ON money_transfers (sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_money_transfers_getter ON money_transfers (getter_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}
