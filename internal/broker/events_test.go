package broker

import (
	"context"
	"encoding/json"
	"testing"

	"clothing-store/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys   []string
	events []interface{}
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, key string, event interface{}) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func TestPublishDocumentChanged(t *testing.T) {
	rec := &recordingPublisher{}
	ep := NewEventPublisher(rec)

	err := ep.PublishDocumentChanged(context.Background(), models.EventTypeDocumentCreated, "brands", "b1")
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	assert.Equal(t, "brands-b1", rec.keys[0])

	event, ok := rec.events[0].(*models.DocumentChangedEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeDocumentCreated, event.EventType)
	assert.Equal(t, "brands", event.Collection)
	assert.Equal(t, "b1", event.DocumentID)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestHandleMessageRoutesChangeEvents(t *testing.T) {
	var got *models.DocumentChangedEvent
	eh := NewEventHandler()
	eh.OnDocumentChanged(func(ctx context.Context, e *models.DocumentChangedEvent) error {
		got = e
		return nil
	})

	body, err := json.Marshal(models.DocumentChangedEvent{
		BaseEvent:  models.BaseEvent{EventID: "e1", EventType: models.EventTypeDocumentDeleted},
		Collection: "sales",
		DocumentID: "s1",
	})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: body}))
	require.NotNil(t, got)
	assert.Equal(t, "sales", got.Collection)
	assert.Equal(t, "s1", got.DocumentID)
}

func TestHandleMessageSkipsUnknownTypes(t *testing.T) {
	called := false
	eh := NewEventHandler()
	eh.OnDocumentChanged(func(ctx context.Context, e *models.DocumentChangedEvent) error {
		called = true
		return nil
	})

	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)})
	require.NoError(t, err)
	assert.False(t, called)

	err = eh.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}
