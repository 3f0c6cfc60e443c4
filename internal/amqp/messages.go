package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation names the kind of mutation a change event reports.
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// RecordChangeMessage announces that one of a user's records changed.
// It carries identifiers only; consumers reload the user's data from the store.
type RecordChangeMessage struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Op        Operation `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChangeMessage(userID, kind, id string, op Operation) *RecordChangeMessage {
	return &RecordChangeMessage{
		UserID:    userID,
		Kind:      kind,
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON decodes a message and rejects ones without a user.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("message without user_id")
	}
	return &msg, nil
}
