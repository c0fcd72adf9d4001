package models

import "time"

// Event types
const (
	EventTypeDocumentCreated = "DOCUMENT_CREATED"
	EventTypeDocumentUpdated = "DOCUMENT_UPDATED"
	EventTypeDocumentDeleted = "DOCUMENT_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentChangedEvent published after a successful write to a collection
type DocumentChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
}
