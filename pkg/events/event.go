package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Document lifecycle event codes published to the event bus.
const (
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeDocumentRemoved  = "DOCUMENT_REMOVED"
)

func NewDocumentIngested(documentID, title string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentID,
			"title":       title,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

func NewDocumentRemoved(documentID, title string) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentRemoved,
		Data: map[string]interface{}{
			"document_id": documentID,
			"title":       title,
		},
		OccurredAt: time.Now(),
	}
}
