package amqp

import (
	"encoding/json"
	"time"
)

// Message actions. Upserts and deletes travel on the same queue so the
// worker applies them in publish order.
const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// SyncMessage tells the worker that one imputation changed. It carries
// only the record id; the worker reads the current row from the database,
// so a stale message after a later edit is harmless.
type SyncMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id string) *SyncMessage {
	return &SyncMessage{ID: id, Action: ActionSync, Timestamp: time.Now()}
}

func NewDeleteMessage(id string) *SyncMessage {
	return &SyncMessage{ID: id, Action: ActionDelete, Timestamp: time.Now()}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
