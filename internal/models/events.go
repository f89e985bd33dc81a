package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypeOrderItemRemoved   = "ORDER_ITEM_REMOVED"
	EventTypeShortageResolved   = "SHORTAGE_RESOLVED"
	EventTypeShortageReduced    = "SHORTAGE_REDUCED"
	EventTypeShortageReopened   = "SHORTAGE_REOPENED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LineItemData represents item data carried in events
type LineItemData struct {
	Quantity     int    `json:"quantity"`
	UnitsPerCase int    `json:"units_per_case"`
	Name         string `json:"name"`
	Price        string `json:"price,omitempty"`
	RawLine      string `json:"raw_line,omitempty"`
}

// OrderPlacedEvent published when an order is saved
type OrderPlacedEvent struct {
	BaseEvent
	OrderID  string         `json:"order_id"`
	Supplier string         `json:"supplier"`
	Items    []LineItemData `json:"items"`
}

// OrderStatusChangedEvent published when an order moves between
// transito and completado
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderCancelledEvent published when an order is deleted. Carries a
// snapshot of the items so the shortage reversal can run after the rows
// are gone.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID  string         `json:"order_id"`
	Supplier string         `json:"supplier"`
	Items    []LineItemData `json:"items"`
}

// OrderItemRemovedEvent published when a single item is removed from an
// order
type OrderItemRemovedEvent struct {
	BaseEvent
	OrderID  string       `json:"order_id"`
	Supplier string       `json:"supplier"`
	Item     LineItemData `json:"item"`
}

// ShortageResolvedEvent published when reconciliation closes a shortage
type ShortageResolvedEvent struct {
	BaseEvent
	ShortageID string `json:"shortage_id"`
	Name       string `json:"name"`
	OrderID    string `json:"order_id"`
}

// ShortageReducedEvent published when reconciliation partially covers a
// shortage
type ShortageReducedEvent struct {
	BaseEvent
	ShortageID  string `json:"shortage_id"`
	Name        string `json:"name"`
	OrderID     string `json:"order_id"`
	NewQuantity int    `json:"new_quantity"`
}

// ShortageReopenedEvent published when a cancellation re-adds a shortage
type ShortageReopenedEvent struct {
	BaseEvent
	ShortageID string `json:"shortage_id"`
	Name       string `json:"name"`
	Supplier   string `json:"supplier"`
	Quantity   int    `json:"quantity"`
}
