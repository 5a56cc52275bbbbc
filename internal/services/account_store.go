package services

import (
	"context"
	"database/sql"

	"github.com/Asihat/ht-test-task/internal/models"
)

// Querier is the atomic-unit abstraction: it is satisfied by both *sql.DB
// and *sql.Tx, so store operations compose into a surrounding transaction
// when the caller supplies one.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const accountColumns = `user_id, total_balance, created_at, updated_at`

// AccountStore is the durable mapping from user ID to current balance.
type AccountStore struct{}

func NewAccountStore() *AccountStore {
	return &AccountStore{}
}

// GetOrCreate returns the account for userID, creating a zero-balance row
// if none exists. The second return reports whether the row was created.
func (s *AccountStore) GetOrCreate(ctx context.Context, q Querier, userID int64) (*models.Account, bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	created := rowsAffected > 0

	account, err := s.Get(ctx, q, userID)
	if err != nil {
		return nil, false, err
	}
	return account, created, nil
}

// Get reads an account without locking. Returns ErrAccountNotFound when no
// row exists.
func (s *AccountStore) Get(ctx context.Context, q Querier, userID int64) (*models.Account, error) {
	var account models.Account
	err := q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1`, userID).
		Scan(&account.UserID, &account.TotalBalance, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// LockForUpdate reads an account under a row lock, serializing concurrent
// writers on the same user ID for the lifetime of the transaction.
func (s *AccountStore) LockForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		FOR UPDATE`, userID).
		Scan(&account.UserID, &account.TotalBalance, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ApplyDelta atomically adds delta (positive or negative) to the balance and
// returns the new state. The single-statement update cannot lose concurrent
// increments.
func (s *AccountStore) ApplyDelta(ctx context.Context, q Querier, userID int64, delta int64) (*models.Account, error) {
	var account models.Account
	err := q.QueryRowContext(ctx, `
		UPDATE accounts
		SET total_balance = total_balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING `+accountColumns, delta, userID).
		Scan(&account.UserID, &account.TotalBalance, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitGuarded subtracts amount only when the balance covers it. When the
// guard fails no row changes and ErrInsufficientFunds is returned; callers
// must have established that the account exists.
func (s *AccountStore) DebitGuarded(ctx context.Context, q Querier, userID int64, amount int64) (*models.Account, error) {
	var account models.Account
	err := q.QueryRowContext(ctx, `
		UPDATE accounts
		SET total_balance = total_balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND total_balance >= $1
		RETURNING `+accountColumns, amount, userID).
		Scan(&account.UserID, &account.TotalBalance, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
