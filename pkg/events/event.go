package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields for concrete events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string { return e.Type }

func (e BaseEvent) Payload() map[string]interface{} { return e.Data }

func (e BaseEvent) Timestamp() time.Time { return e.OccurredAt }

// Event type codes emitted by the chat service.
const (
	TypeSessionCreated = "SESSION_CREATED"
	TypeSessionDeleted = "SESSION_DELETED"
	TypeTurnAnswered   = "TURN_ANSWERED"
)

// NewSessionCreated is emitted when a chat session is opened.
func NewSessionCreated(sessionID, userID string) Event {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewSessionDeleted is emitted when a chat session is closed by its owner.
func NewSessionDeleted(sessionID, userID string) Event {
	return BaseEvent{
		Type: TypeSessionDeleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewTurnAnswered is emitted after a pipeline turn completes with an answer.
func NewTurnAnswered(sessionID, userID, category string, useRAG bool, snippetCount int) Event {
	return BaseEvent{
		Type: TypeTurnAnswered,
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"user_id":       userID,
			"category":      category,
			"use_rag":       useRAG,
			"snippet_count": snippetCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}
