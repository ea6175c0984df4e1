package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"myfinances/internal/sheets"
)

// RowSyncMessage asks the worker to mirror one stored row to Google Sheets.
// It carries only the row id and version; the worker loads the row itself.
type RowSyncMessage struct {
	MessageID string         `json:"message_id"`
	Dataset   sheets.Dataset `json:"dataset"`
	ID        int64          `json:"id"`
	Version   int64          `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewRowSyncMessage creates a sync message with a fresh message id.
func NewRowSyncMessage(dataset sheets.Dataset, id, version int64) *RowSyncMessage {
	return &RowSyncMessage{
		MessageID: uuid.NewString(),
		Dataset:   dataset,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RowSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RowSyncMessageFromJSON decodes a message published by ToJSON.
func RowSyncMessageFromJSON(data []byte) (*RowSyncMessage, error) {
	var msg RowSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
