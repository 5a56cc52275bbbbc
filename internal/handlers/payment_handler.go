package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Asihat/ht-test-task/internal/services"
)

// PaymentHandler is the HTTP adapter over the ledger engine. It owns request
// decoding, payload validation and error-to-status mapping; all balance
// semantics live in the service.
type PaymentHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewPaymentHandler(ledger *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// AddMoneyRequest is the deposit payload
// @Description Deposit request structure
type AddMoneyRequest struct {
	UserID int64 `json:"user_id" validate:"min=0" example:"1"`          // Target user ID, zero is a valid ID
	Amount int64 `json:"amount" validate:"required,gt=0" example:"100"` // Amount in smallest currency unit
}

// SubMoneyRequest is the withdrawal payload
// @Description Withdrawal request structure
type SubMoneyRequest struct {
	UserID int64 `json:"user_id" validate:"min=0" example:"1"`          // Target user ID, zero is a valid ID
	Amount int64 `json:"amount" validate:"required,gt=0" example:"100"` // Amount in smallest currency unit
}

// TransferRequest is the transfer payload
// @Description Transfer request structure
type TransferRequest struct {
	SenderID int64 `json:"sender_id" validate:"min=0" example:"1"`        // Sending user ID, zero is a valid ID
	GetterID int64 `json:"getter_id" validate:"min=0" example:"2"`        // Receiving user ID, zero is a valid ID
	Amount   int64 `json:"amount" validate:"required,gt=0" example:"100"` // Amount in smallest currency unit
}

// AddMoney deposits funds into a user's balance
// @Summary Add money to balance
// @Description Credit an amount to a user's account, creating the account on first touch
// @Tags payments
// @Accept json
// @Produce json
// @Param request body AddMoneyRequest true "Deposit request"
// @Success 200 {object} object{message=string,account=models.Account,transaction=models.PaymentTransaction}
// @Failure 422 {object} services.ErrorResponse "Validation failed"
// @Failure 500 {object} services.ErrorResponse "Storage failure"
// @Router /add [post]
func (h *PaymentHandler) AddMoney(w http.ResponseWriter, r *http.Request) {
	var req AddMoneyRequest
	if !h.decode(w, r, &req) {
		return
	}

	account, transaction, err := h.ledger.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":     "ADD MONEY TO BALANCE",
		"account":     account,
		"transaction": transaction,
	})
}

// SubMoney withdraws funds from a user's balance
// @Summary Subtract money from balance
// @Description Debit an amount from a user's account; rejected when the balance does not cover it
// @Tags payments
// @Accept json
// @Produce json
// @Param request body SubMoneyRequest true "Withdrawal request"
// @Success 200 {object} object{message=string,account=models.Account}
// @Failure 400 {object} services.ErrorResponse "Not enough money"
// @Failure 422 {object} services.ErrorResponse "Validation failed"
// @Router /sub [post]
func (h *PaymentHandler) SubMoney(w http.ResponseWriter, r *http.Request) {
	var req SubMoneyRequest
	if !h.decode(w, r, &req) {
		return
	}

	account, err := h.ledger.Withdraw(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "SUB MONEY FROM BALANCE",
		"account": account,
	})
}

// TransferMoney moves funds between two existing users
// @Summary Transfer money to user
// @Description Atomically move an amount from sender to getter; both accounts must exist
// @Tags payments
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer request"
// @Success 200 {object} object{message=string,sender=models.Account,getter=models.Account,transfer=models.MoneyTransfer}
// @Failure 400 {object} services.ErrorResponse "Not enough money"
// @Failure 404 {object} services.ErrorResponse "Unknown sender or getter"
// @Failure 422 {object} services.ErrorResponse "Validation failed"
// @Router /transfer [post]
func (h *PaymentHandler) TransferMoney(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req.SenderID, req.GetterID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":  "TRANSFER MONEY TO USER",
		"sender":   result.Sender,
		"getter":   result.Getter,
		"transfer": result.Transfer,
	})
}

// GetBalance returns a user's current balance
// @Summary Get balance
// @Description Read a user's balance, served from the cache when fresh
// @Tags payments
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string,account=models.Account}
// @Failure 404 {object} services.ErrorResponse "Account not found"
// @Router /balance/{id} [get]
func (h *PaymentHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid user id", http.StatusUnprocessableEntity, nil)
		return
	}

	account, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "GET BALANCE",
		"account": account,
	})
}

func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		log.Printf("[PAYMENT] Failed to decode request body: %v", err)
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := h.validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusUnprocessableEntity, err)
		return false
	}

	return true
}

// writeLedgerError maps the core's error taxonomy onto transport status
// codes: validation 422, insufficient funds 400, unknown account 404,
// storage failure 500 (retryable by the caller).
func (h *PaymentHandler) writeLedgerError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var storageErr *services.StorageError

	switch {
	case errors.As(err, &validationErr):
		services.SendErrorResponse(w, "Validation failed", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, services.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Not enough money", http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrAccountNotFound):
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
	case errors.As(err, &storageErr):
		log.Printf("[PAYMENT] %v", err)
		services.SendErrorResponse(w, "Database transaction failed", http.StatusInternalServerError, nil)
	default:
		log.Printf("[PAYMENT] Unexpected error: %v", err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
