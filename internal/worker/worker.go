// Package worker runs the background side of order cancellation: it
// consumes cancellation and item-removal events and re-adds the affected
// items to the shortage registry. Reversal is per item; a failure on one
// item does not roll back the others.
package worker

import (
	"context"
	"fmt"
	"log"

	"pedidos-service/internal/broker"
	"pedidos-service/internal/models"
	"pedidos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventLedger records consumed event IDs so a redelivered event is
// skipped instead of reversed twice.
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ShortageReverser re-adds a line item to the shortage registry.
type ShortageReverser interface {
	ReverseItem(ctx context.Context, item models.LineItem, fallbackSupplier string) error
}

// ShortageWorker applies shortage reversals for cancelled orders
type ShortageWorker struct {
	consumer        *broker.Consumer
	eventHandler    *broker.EventHandler
	ledger          EventLedger
	shortageService ShortageReverser
	logger          *zap.Logger
}

// NewShortageWorker creates a new shortage worker
func NewShortageWorker(
	consumer *broker.Consumer,
	ledger EventLedger,
	shortageService ShortageReverser,
) *ShortageWorker {
	w := &ShortageWorker{
		consumer:        consumer,
		ledger:          ledger,
		shortageService: shortageService,
		logger:          util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	eventHandler.OnOrderItemRemoved(w.handleOrderItemRemoved)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ShortageWorker) Start(ctx context.Context) error {
	log.Println("Starting shortage worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ShortageWorker) Stop() error {
	log.Println("Stopping shortage worker...")
	return w.consumer.Close()
}

// handleOrderCancelled re-adds every item of a cancelled order to the
// shortage registry, deduplicated by event ID so redelivery is safe.
func (w *ShortageWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	processed, err := w.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Reversing shortages for cancelled order",
		zap.String("order_id", event.OrderID),
		zap.Int("items", len(event.Items)))

	for _, data := range event.Items {
		item := itemFromData(data)
		if err := w.shortageService.ReverseItem(ctx, item, event.Supplier); err != nil {
			w.logger.Error("Failed to reverse shortage for item",
				zap.String("order_id", event.OrderID),
				zap.String("name", item.Name),
				zap.Error(err))
		}
	}

	if err := w.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

func (w *ShortageWorker) handleOrderItemRemoved(ctx context.Context, event *models.OrderItemRemovedEvent) error {
	processed, err := w.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	item := itemFromData(event.Item)
	if err := w.shortageService.ReverseItem(ctx, item, event.Supplier); err != nil {
		return fmt.Errorf("failed to reverse shortage for removed item: %w", err)
	}

	if err := w.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

func itemFromData(data models.LineItemData) models.LineItem {
	item := models.LineItem{
		Quantity:     data.Quantity,
		UnitsPerCase: data.UnitsPerCase,
		Name:         data.Name,
		RawLine:      data.RawLine,
	}
	if data.Price != "" {
		if price, err := decimal.NewFromString(data.Price); err == nil {
			item.PriceB = price
		}
	}
	return item
}
