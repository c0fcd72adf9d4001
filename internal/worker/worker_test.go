package worker

import (
	"context"
	"testing"

	"clothing-store/internal/models"
	"clothing-store/internal/util"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestHandleDocumentChangedCountsEvents(t *testing.T) {
	w := NewChangeWorker(nil)
	counter := util.StoreChangesConsumedTotal.WithLabelValues("reviews", models.EventTypeDocumentUpdated)
	before := counterValue(t, counter)

	err := w.HandleDocumentChanged(context.Background(), &models.DocumentChangedEvent{
		BaseEvent:  models.BaseEvent{EventID: "e1", EventType: models.EventTypeDocumentUpdated},
		Collection: "reviews",
		DocumentID: "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, counterValue(t, counter))
}
