package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentTransaction is an append-only record of a single deposit.
type PaymentTransaction struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Amount    int64     `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MoneyTransfer is an append-only record of a completed transfer between
// two accounts.
type MoneyTransfer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SenderID  int64     `json:"sender_id" db:"sender_id"`
	GetterID  int64     `json:"getter_id" db:"getter_id"`
	Amount    int64     `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransferResult is the post-commit state returned by a transfer.
type TransferResult struct {
	Sender   *Account       `json:"sender"`
	Getter   *Account       `json:"getter"`
	Transfer *MoneyTransfer `json:"transfer"`
}
