package models

import (
	"time"
)

// Account holds a user's current balance. One row per user, created lazily
// on the first deposit or withdrawal touching the user ID.
type Account struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	TotalBalance int64     `json:"total_balance" db:"total_balance"` // smallest currency unit
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
