package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    int64     `json:"user_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogDeposit(userID, amount int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "DEPOSIT",
		UserID:    userID,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogWithdrawal(userID, amount int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "WITHDRAWAL",
		UserID:    userID,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogTransfer(senderID, getterID, amount int64, status string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "TRANSFER",
		Amount:    amount,
		Status:    status,
		Details: map[string]int64{
			"sender_id": senderID,
			"getter_id": getterID,
		},
	})
}

func (a *Logger) LogError(operation string, userID int64, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		UserID:    userID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
