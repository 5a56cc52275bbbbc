package services

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/Asihat/ht-test-task/internal/audit"
	"github.com/Asihat/ht-test-task/internal/models"
)

// LedgerService is the transactional core. Every mutating operation runs its
// balance writes and movement-log appends as a single all-or-nothing unit;
// on any failure inside the unit the deferred rollback undoes everything and
// the original error is surfaced.
type LedgerService struct {
	db        *sql.DB
	store     *AccountStore
	movements *MovementLog
	cache     *BalanceCache
	audit     *audit.Logger
}

func NewLedgerService(db *sql.DB, cache *BalanceCache) *LedgerService {
	return &LedgerService{
		db:        db,
		store:     NewAccountStore(),
		movements: NewMovementLog(),
		cache:     cache,
		audit:     audit.NewLogger(),
	}
}

// Deposit credits amount to the user's account, creating it on first touch,
// and appends one PaymentTransaction in the same atomic unit.
func (s *LedgerService) Deposit(ctx context.Context, userID, amount int64) (*models.Account, *models.PaymentTransaction, error) {
	if amount <= 0 {
		return nil, nil, errAmountNotPositive()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, storageErr("deposit", err)
	}
	defer tx.Rollback()

	if _, _, err := s.store.GetOrCreate(ctx, tx, userID); err != nil {
		s.audit.LogError("DEPOSIT", userID, err)
		return nil, nil, storageErr("deposit", err)
	}

	account, err := s.store.ApplyDelta(ctx, tx, userID, amount)
	if err != nil {
		s.audit.LogError("DEPOSIT", userID, err)
		return nil, nil, storageErr("deposit", err)
	}

	record, err := s.movements.AppendPayment(ctx, tx, userID, amount)
	if err != nil {
		s.audit.LogError("DEPOSIT", userID, err)
		return nil, nil, storageErr("deposit", err)
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError("DEPOSIT", userID, err)
		return nil, nil, storageErr("deposit", err)
	}

	s.cache.Invalidate(ctx, userID)
	s.audit.LogDeposit(userID, amount)
	return account, record, nil
}

// Withdraw debits amount from the user's account, creating it on first
// touch. A withdrawal exceeding the balance is rejected with
// ErrInsufficientFunds and leaves the stored balance untouched; the lazily
// created account persists even then. Withdrawals write no movement-log
// record.
func (s *LedgerService) Withdraw(ctx context.Context, userID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, errAmountNotPositive()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("withdraw", err)
	}
	defer tx.Rollback()

	if _, _, err := s.store.GetOrCreate(ctx, tx, userID); err != nil {
		s.audit.LogError("WITHDRAWAL", userID, err)
		return nil, storageErr("withdraw", err)
	}

	account, err := s.store.DebitGuarded(ctx, tx, userID, amount)
	if errors.Is(err, ErrInsufficientFunds) {
		log.Printf("[LEDGER] Withdrawal rejected for user %d: amount %d exceeds balance", userID, amount)
		// The guarded debit changed no rows, so committing persists only the
		// lazy account creation above. A first-touch withdrawal is always
		// rejected, but the zero-balance account must survive it.
		if commitErr := tx.Commit(); commitErr != nil {
			s.audit.LogError("WITHDRAWAL", userID, commitErr)
			return nil, storageErr("withdraw", commitErr)
		}
		return nil, err
	}
	if err != nil {
		s.audit.LogError("WITHDRAWAL", userID, err)
		return nil, storageErr("withdraw", err)
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError("WITHDRAWAL", userID, err)
		return nil, storageErr("withdraw", err)
	}

	s.cache.Invalidate(ctx, userID)
	s.audit.LogWithdrawal(userID, amount)
	return account, nil
}

// Transfer moves amount between two existing accounts. Neither side is
// created implicitly; an unknown sender or getter fails with
// ErrAccountNotFound before any write. Row locks are taken in ascending
// user-ID order so two transfers crossing in opposite directions cannot
// deadlock. A self-transfer is permitted: it nets to zero on the balance but
// still appends a MoneyTransfer record.
func (s *LedgerService) Transfer(ctx context.Context, senderID, getterID, amount int64) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, errAmountNotPositive()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("transfer", err)
	}
	defer tx.Rollback()

	sender, getter, err := s.lockPair(ctx, tx, senderID, getterID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	if err != nil {
		s.audit.LogError("TRANSFER", senderID, err)
		return nil, storageErr("transfer", err)
	}

	if sender.TotalBalance < amount {
		log.Printf("[LEDGER] Transfer rejected: sender %d balance %d below amount %d", senderID, sender.TotalBalance, amount)
		s.audit.LogTransfer(senderID, getterID, amount, "REJECTED")
		return nil, ErrInsufficientFunds
	}

	if senderID != getterID {
		sender, err = s.store.ApplyDelta(ctx, tx, senderID, -amount)
		if err != nil {
			s.audit.LogError("TRANSFER", senderID, err)
			return nil, storageErr("transfer", err)
		}

		getter, err = s.store.ApplyDelta(ctx, tx, getterID, amount)
		if err != nil {
			s.audit.LogError("TRANSFER", getterID, err)
			return nil, storageErr("transfer", err)
		}
	}

	record, err := s.movements.AppendTransfer(ctx, tx, senderID, getterID, amount)
	if err != nil {
		s.audit.LogError("TRANSFER", senderID, err)
		return nil, storageErr("transfer", err)
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError("TRANSFER", senderID, err)
		return nil, storageErr("transfer", err)
	}

	s.cache.Invalidate(ctx, senderID)
	s.cache.Invalidate(ctx, getterID)
	s.audit.LogTransfer(senderID, getterID, amount, "SUCCESS")

	return &models.TransferResult{Sender: sender, Getter: getter, Transfer: record}, nil
}

// lockPair locks both accounts in ascending user-ID order and returns them
// as (sender, getter) regardless of which locked first.
func (s *LedgerService) lockPair(ctx context.Context, tx *sql.Tx, senderID, getterID int64) (*models.Account, *models.Account, error) {
	if senderID == getterID {
		account, err := s.store.LockForUpdate(ctx, tx, senderID)
		if err != nil {
			return nil, nil, err
		}
		return account, account, nil
	}

	firstID, secondID := senderID, getterID
	if getterID < senderID {
		firstID, secondID = getterID, senderID
	}

	first, err := s.store.LockForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.store.LockForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if firstID == senderID {
		return first, second, nil
	}
	return second, first, nil
}

// GetBalance returns the account snapshot for userID, served from the cache
// when a fresh entry exists. Never creates an account.
func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (*models.Account, error) {
	if account, ok := s.cache.Get(ctx, userID); ok {
		return account, nil
	}

	account, err := s.store.Get(ctx, s.db, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("get balance", err)
	}

	s.cache.Put(ctx, account)
	return account, nil
}
