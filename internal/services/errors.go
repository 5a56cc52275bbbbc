package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds rejects a withdrawal or transfer whose amount
	// exceeds the sender's balance. Business outcome, not a system fault.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound signals that no account was ever created for the
	// requested user ID, on paths where creation is not implied.
	ErrAccountNotFound = errors.New("account not found")
)

// ValidationError reports malformed or out-of-range input. The caller can
// recover by correcting the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func errAmountNotPositive() *ValidationError {
	return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
}

// StorageError wraps a failure of the backing store to complete an atomic
// unit. The unit was rolled back in full; the caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
