package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// EventMessage wraps a domain event for the queue. The worker acts on the
// event alone; no further lookup of the producer's state is needed.
type EventMessage struct {
	ID        string     `json:"id"`
	Event     core.Event `json:"event"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewEventMessage(ev core.Event) *EventMessage {
	return &EventMessage{
		ID:        uuid.NewString(),
		Event:     ev,
		Timestamp: time.Now(),
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes a message and rejects envelopes without an
// event kind or owner.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event.Kind == "" || msg.Event.OwnerID == "" {
		return nil, fmt.Errorf("event message %s: missing kind or owner", msg.ID)
	}
	return &msg, nil
}
