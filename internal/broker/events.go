package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clothing-store/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher is the subset of Producer the event publisher needs.
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishDocumentChanged publishes a change to one document. Events of the
// same document share a key and therefore a partition.
func (ep *EventPublisher) PublishDocumentChanged(ctx context.Context, eventType, collection, documentID string) error {
	event := &models.DocumentChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now().UTC(),
		},
		Collection: collection,
		DocumentID: documentID,
	}
	key := fmt.Sprintf("%s-%s", collection, documentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming change events to a callback.
type EventHandler struct {
	onDocumentChanged func(context.Context, *models.DocumentChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

func (eh *EventHandler) OnDocumentChanged(handler func(context.Context, *models.DocumentChangedEvent) error) {
	eh.onDocumentChanged = handler
}

// HandleMessage decodes a change event. Unknown event types are skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeDocumentCreated, models.EventTypeDocumentUpdated, models.EventTypeDocumentDeleted:
		if eh.onDocumentChanged == nil {
			return nil
		}
		var event models.DocumentChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal DocumentChanged event: %w", err)
		}
		return eh.onDocumentChanged(ctx, &event)
	}

	return nil
}
