package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Asihat/ht-test-task/internal/models"
)

// MovementLog appends immutable records of deposits and transfers. Records
// are written on the caller's Querier so they commit or abort together with
// the balance writes they describe. Nothing here updates or deletes.
type MovementLog struct{}

func NewMovementLog() *MovementLog {
	return &MovementLog{}
}

// AppendPayment records a single deposit against userID.
func (l *MovementLog) AppendPayment(ctx context.Context, q Querier, userID int64, amount int64) (*models.PaymentTransaction, error) {
	record := &models.PaymentTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO payment_transactions (id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4)`,
		record.ID, record.UserID, record.Amount, record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AppendTransfer records a completed transfer between two accounts.
func (l *MovementLog) AppendTransfer(ctx context.Context, q Querier, senderID, getterID int64, amount int64) (*models.MoneyTransfer, error) {
	record := &models.MoneyTransfer{
		ID:        uuid.New(),
		SenderID:  senderID,
		GetterID:  getterID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO money_transfers (id, sender_id, getter_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.SenderID, record.GetterID, record.Amount, record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}
