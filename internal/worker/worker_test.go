package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"pedidos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLedger struct {
	processed map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: make(map[string]string)}
}

func (f *fakeLedger) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeLedger) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	f.processed[eventID] = eventType
	return nil
}

type fakeReverser struct {
	reversed []models.LineItem
	failFor  string
}

func (f *fakeReverser) ReverseItem(_ context.Context, item models.LineItem, _ string) error {
	if item.Name == f.failFor {
		return errors.New("increment failed")
	}
	f.reversed = append(f.reversed, item)
	return nil
}

func newTestWorker(ledger EventLedger, reverser ShortageReverser) *ShortageWorker {
	return &ShortageWorker{
		ledger:          ledger,
		shortageService: reverser,
		logger:          zap.NewNop(),
	}
}

func cancelledEvent(eventID string, items ...models.LineItemData) *models.OrderCancelledEvent {
	return &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:  "order-1",
		Supplier: "Zuccardi",
		Items:    items,
	}
}

func TestHandleOrderCancelledReversesOncePerEvent(t *testing.T) {
	ledger := newFakeLedger()
	reverser := &fakeReverser{}
	w := newTestWorker(ledger, reverser)

	event := cancelledEvent("evt-1",
		models.LineItemData{Quantity: 3, UnitsPerCase: 6, Name: "MALBEC", Price: "12.5"},
		models.LineItemData{Quantity: 1, UnitsPerCase: 12, Name: "TORRONTES"},
	)

	require.NoError(t, w.handleOrderCancelled(context.Background(), event))
	require.Len(t, reverser.reversed, 2)
	assert.Equal(t, "MALBEC", reverser.reversed[0].Name)
	assert.Equal(t, "12.5", reverser.reversed[0].PriceB.String())

	// Redelivery of the same event ID must not reverse again.
	require.NoError(t, w.handleOrderCancelled(context.Background(), event))
	assert.Len(t, reverser.reversed, 2)
	assert.Equal(t, models.EventTypeOrderCancelled, ledger.processed["evt-1"])
}

func TestHandleOrderCancelledItemFailureDoesNotBlockOthers(t *testing.T) {
	ledger := newFakeLedger()
	reverser := &fakeReverser{failFor: "MALBEC"}
	w := newTestWorker(ledger, reverser)

	event := cancelledEvent("evt-2",
		models.LineItemData{Quantity: 3, UnitsPerCase: 6, Name: "MALBEC"},
		models.LineItemData{Quantity: 2, UnitsPerCase: 6, Name: "TORRONTES"},
	)

	require.NoError(t, w.handleOrderCancelled(context.Background(), event))

	// The failed item is logged and skipped; the rest still reverse and
	// the event is marked so it is not retried wholesale.
	require.Len(t, reverser.reversed, 1)
	assert.Equal(t, "TORRONTES", reverser.reversed[0].Name)
	processed, err := ledger.IsEventProcessed(context.Background(), "evt-2")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestHandleOrderItemRemovedDeduplicates(t *testing.T) {
	ledger := newFakeLedger()
	reverser := &fakeReverser{}
	w := newTestWorker(ledger, reverser)

	event := &models.OrderItemRemovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-3",
			EventType: models.EventTypeOrderItemRemoved,
			Timestamp: time.Now(),
		},
		OrderID:  "order-2",
		Supplier: "Speed VM",
		Item:     models.LineItemData{Quantity: 5, UnitsPerCase: 24, Name: "SPEED XL"},
	}

	require.NoError(t, w.handleOrderItemRemoved(context.Background(), event))
	require.NoError(t, w.handleOrderItemRemoved(context.Background(), event))

	assert.Len(t, reverser.reversed, 1)
	assert.Equal(t, 5, reverser.reversed[0].Quantity)
}

func TestItemFromData(t *testing.T) {
	item := itemFromData(models.LineItemData{
		Quantity:     2,
		UnitsPerCase: 6,
		Name:         "WIDGET",
		Price:        "10.00",
		RawLine:      "2x6 WIDGET $8.00/10.00",
	})

	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 6, item.UnitsPerCase)
	assert.Equal(t, "WIDGET", item.Name)
	assert.Equal(t, "10", item.PriceB.String())
	assert.Equal(t, "2x6 WIDGET $8.00/10.00", item.RawLine)
}
