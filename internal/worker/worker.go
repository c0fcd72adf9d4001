package worker

import (
	"context"

	"clothing-store/internal/broker"
	"clothing-store/internal/models"
	"clothing-store/internal/util"

	"go.uber.org/zap"
)

// ChangeWorker follows the document change stream and records it in metrics
// and logs.
type ChangeWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewChangeWorker creates a worker reading from consumer.
func NewChangeWorker(consumer *broker.Consumer) *ChangeWorker {
	w := &ChangeWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		logger:       util.Named("worker.changes"),
	}
	w.eventHandler.OnDocumentChanged(w.HandleDocumentChanged)
	return w
}

// Start blocks until ctx is cancelled.
func (w *ChangeWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting change worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ChangeWorker) Stop() error {
	w.logger.Info("Stopping change worker")
	return w.consumer.Close()
}

func (w *ChangeWorker) HandleDocumentChanged(ctx context.Context, event *models.DocumentChangedEvent) error {
	util.StoreChangesConsumedTotal.WithLabelValues(event.Collection, event.EventType).Inc()
	w.logger.Info("Document changed",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("collection", event.Collection),
		zap.String("document_id", event.DocumentID))
	return nil
}
