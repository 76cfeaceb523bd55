package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// EventType names what happened to a transaction.
type EventType string

const (
	EventTransactionCreated    EventType = "transaction.created"
	EventTransactionUpdated    EventType = "transaction.updated"
	EventTransactionDeleted    EventType = "transaction.deleted"
	EventTransactionRolledOver EventType = "transaction.rolled_over"
)

// TransactionEvent carries a snapshot of a transaction after a change so that
// consumers never need to read the database.
type TransactionEvent struct {
	Type            EventType            `json:"type"`
	TransactionID   int64                `json:"transactionId"`
	OwnerID         uuid.UUID            `json:"ownerId"`
	TransactionType core.TransactionType `json:"transactionType"`
	Title           string               `json:"title"`
	Amount          decimal.Decimal      `json:"amount"`
	CreatedAt       time.Time            `json:"createdAt"`
	Timestamp       time.Time            `json:"timestamp"`
}

// NewTransactionEvent snapshots t for the given event type.
func NewTransactionEvent(typ EventType, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:            typ,
		TransactionID:   t.ID,
		OwnerID:         t.OwnerID,
		TransactionType: t.Type,
		Title:           t.Title,
		Amount:          t.Amount,
		CreatedAt:       t.CreatedAt,
		Timestamp:       time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
