package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type validatedPayload struct {
	UserID int64 `validate:"required"`
	Amount int64 `validate:"required,gt=0"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	helper := NewValidationHelper()

	t.Run("valid struct passes", func(t *testing.T) {
		err := helper.ValidateStruct(&validatedPayload{UserID: 1, Amount: 100})
		assert.NoError(t, err)
	})

	t.Run("zero amount fails required", func(t *testing.T) {
		err := helper.ValidateStruct(&validatedPayload{UserID: 1})
		assert.Error(t, err)
	})

	t.Run("negative amount fails gt", func(t *testing.T) {
		err := helper.ValidateStruct(&validatedPayload{UserID: 1, Amount: -10})
		assert.Error(t, err)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("writes status and message", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		SendErrorResponse(recorder, "Not enough money", http.StatusBadRequest, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var response ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "Not enough money", response.Error)
		assert.False(t, response.Success)
		assert.Empty(t, response.Details)
	})

	t.Run("includes field details for validation errors", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		err := NewValidationHelper().ValidateStruct(&validatedPayload{UserID: 1, Amount: -10})

		SendErrorResponse(recorder, "Validation failed", http.StatusUnprocessableEntity, err)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

		var response ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Contains(t, response.Details, "Amount")
	})

	t.Run("ignores non-validator errors", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		SendErrorResponse(recorder, "Internal server error", http.StatusInternalServerError, assert.AnError)

		var response ErrorResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Empty(t, response.Details)
	})
}
