package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Asihat/ht-test-task/internal/services"
)

func newTestRouter(t *testing.T) (*chi.Mux, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	handler := NewPaymentHandler(services.NewLedgerService(db, services.NewBalanceCache(nil, time.Minute)))

	router := chi.NewRouter()
	router.Post("/add", handler.AddMoney)
	router.Post("/sub", handler.SubMoney)
	router.Post("/transfer", handler.TransferMoney)
	router.Get("/balance/{id}", handler.GetBalance)
	return router, mock, db
}

func postJSON(router *chi.Mux, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func accountRow(userID, balance int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"user_id", "total_balance", "created_at", "updated_at"}).
		AddRow(userID, balance, now, now)
}

func TestPaymentHandler_AddMoney(t *testing.T) {
	t.Run("returns the credited account", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(1)).
			WillReturnRows(accountRow(1, 0))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance \\+ \\$1").
			WithArgs(int64(100), int64(1)).
			WillReturnRows(accountRow(1, 100))
		mock.ExpectExec("INSERT INTO payment_transactions").
			WithArgs(sqlmock.AnyArg(), int64(1), int64(100), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		recorder := postJSON(router, "/add", `{"user_id": 1, "amount": 100}`)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "ADD MONEY TO BALANCE", response["message"])
		account := response["account"].(map[string]any)
		assert.Equal(t, float64(100), account["total_balance"])
		assert.NotEmpty(t, response["transaction"].(map[string]any)["id"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative amount fails validation", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		recorder := postJSON(router, "/add", `{"user_id": 1, "amount": -5}`)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

		var response services.ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "Amount")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user id zero is accepted", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(int64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(0)).
			WillReturnRows(accountRow(0, 0))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance \\+ \\$1").
			WithArgs(int64(25), int64(0)).
			WillReturnRows(accountRow(0, 25))
		mock.ExpectExec("INSERT INTO payment_transactions").
			WithArgs(sqlmock.AnyArg(), int64(0), int64(25), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		recorder := postJSON(router, "/add", `{"user_id": 0, "amount": 25}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative user id fails validation", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		recorder := postJSON(router, "/add", `{"user_id": -1, "amount": 25}`)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		recorder := postJSON(router, "/add", `{"user_id": 1, "amount": 100, "extra": true}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentHandler_SubMoney(t *testing.T) {
	t.Run("insufficient balance returns 400", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(1)).
			WillReturnRows(accountRow(1, 50))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance - \\$1").
			WithArgs(int64(200), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_balance", "created_at", "updated_at"}))
		mock.ExpectCommit()

		recorder := postJSON(router, "/sub", `{"user_id": 1, "amount": 200}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var response services.ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "Not enough money", response.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful withdrawal returns the debited account", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(1)).
			WillReturnRows(accountRow(1, 500))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance - \\$1").
			WithArgs(int64(200), int64(1)).
			WillReturnRows(accountRow(1, 300))
		mock.ExpectCommit()

		recorder := postJSON(router, "/sub", `{"user_id": 1, "amount": 200}`)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "SUB MONEY FROM BALANCE", response["message"])
		assert.Equal(t, float64(300), response["account"].(map[string]any)["total_balance"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentHandler_TransferMoney(t *testing.T) {
	t.Run("unknown sender returns 404", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts WHERE user_id = \\$1 FOR UPDATE").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_balance", "created_at", "updated_at"}))
		mock.ExpectRollback()

		recorder := postJSON(router, "/transfer", `{"sender_id": 1, "getter_id": 2, "amount": 100}`)

		assert.Equal(t, http.StatusNotFound, recorder.Code)

		var response services.ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "Account not found", response.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful transfer returns both accounts", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		lockQuery := "SELECT user_id, total_balance, created_at, updated_at FROM accounts WHERE user_id = \\$1 FOR UPDATE"
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(int64(1)).WillReturnRows(accountRow(1, 1000))
		mock.ExpectQuery(lockQuery).WithArgs(int64(2)).WillReturnRows(accountRow(2, 0))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance \\+ \\$1").
			WithArgs(int64(-300), int64(1)).
			WillReturnRows(accountRow(1, 700))
		mock.ExpectQuery("UPDATE accounts SET total_balance = total_balance \\+ \\$1").
			WithArgs(int64(300), int64(2)).
			WillReturnRows(accountRow(2, 300))
		mock.ExpectExec("INSERT INTO money_transfers").
			WithArgs(sqlmock.AnyArg(), int64(1), int64(2), int64(300), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		recorder := postJSON(router, "/transfer", `{"sender_id": 1, "getter_id": 2, "amount": 300}`)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "TRANSFER MONEY TO USER", response["message"])
		assert.Equal(t, float64(700), response["sender"].(map[string]any)["total_balance"])
		assert.Equal(t, float64(300), response["getter"].(map[string]any)["total_balance"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative getter fails validation", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		recorder := postJSON(router, "/transfer", `{"sender_id": 1, "getter_id": -2, "amount": 300}`)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentHandler_GetBalance(t *testing.T) {
	t.Run("returns the current balance", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(1)).
			WillReturnRows(accountRow(1, 950))

		req := httptest.NewRequest(http.MethodGet, "/balance/1", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "GET BALANCE", response["message"])
		assert.Equal(t, float64(950), response["account"].(map[string]any)["total_balance"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		mock.ExpectQuery("SELECT user_id, total_balance, created_at, updated_at FROM accounts").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_balance", "created_at", "updated_at"}))

		req := httptest.NewRequest(http.MethodGet, "/balance/42", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-numeric id fails validation", func(t *testing.T) {
		router, mock, db := newTestRouter(t)
		defer db.Close()

		req := httptest.NewRequest(http.MethodGet, "/balance/abc", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
