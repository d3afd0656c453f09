package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerEventMessage announces a committed ledger change to other
// processes. It carries only identifiers; consumers reload the user's
// snapshot from their own store.
type LedgerEventMessage struct {
	UserID        string    `json:"userId"`
	TransactionID uuid.UUID `json:"transactionId"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(userID string, transactionID uuid.UUID, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		UserID:        userID,
		TransactionID: transactionID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
