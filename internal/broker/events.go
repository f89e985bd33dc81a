package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"pedidos-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderItemRemoved publishes OrderItemRemoved event
func (ep *EventPublisher) PublishOrderItemRemoved(ctx context.Context, event *models.OrderItemRemovedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishShortageResolved publishes ShortageResolved event
func (ep *EventPublisher) PublishShortageResolved(ctx context.Context, event *models.ShortageResolvedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishShortageReduced publishes ShortageReduced event
func (ep *EventPublisher) PublishShortageReduced(ctx context.Context, event *models.ShortageReducedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishShortageReopened publishes ShortageReopened event
func (ep *EventPublisher) PublishShortageReopened(ctx context.Context, event *models.ShortageReopenedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("shortage-%s", event.ShortageID), event)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onOrderCancelled   func(context.Context, *models.OrderCancelledEvent) error
	onOrderItemRemoved func(context.Context, *models.OrderItemRemovedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderCancelled registers a handler for OrderCancelled events
func (eh *EventHandler) OnOrderCancelled(handler func(context.Context, *models.OrderCancelledEvent) error) {
	eh.onOrderCancelled = handler
}

// OnOrderItemRemoved registers a handler for OrderItemRemoved events
func (eh *EventHandler) OnOrderItemRemoved(handler func(context.Context, *models.OrderItemRemovedEvent) error) {
	eh.onOrderItemRemoved = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeOrderCancelled:
		if eh.onOrderCancelled != nil {
			var event models.OrderCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCancelled event: %w", err)
			}
			return eh.onOrderCancelled(ctx, &event)
		}

	case models.EventTypeOrderItemRemoved:
		if eh.onOrderItemRemoved != nil {
			var event models.OrderItemRemovedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderItemRemoved event: %w", err)
			}
			return eh.onOrderItemRemoved(ctx, &event)
		}

	default:
		// Other event types on the topic are informational only.
	}

	return nil
}
