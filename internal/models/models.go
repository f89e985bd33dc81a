package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a supplier purchase order (pedido)
type Order struct {
	ID             string     `db:"id" json:"id"`
	Supplier       string     `db:"supplier" json:"supplier"`
	Status         string     `db:"status" json:"status"`
	OrderDate      time.Time  `db:"order_date" json:"order_date"`
	EstimatedDays  *int       `db:"estimated_days" json:"estimated_days,omitempty"`
	IdempotencyKey string     `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	Items          []LineItem `db:"-" json:"items,omitempty"`
}

// Order statuses
const (
	OrderStatusInTransit = "transito"
	OrderStatusCompleted = "completado"
)

// ValidStatusTransition reports whether an order may move from one status
// to another. Both statuses are mutually reachable; there is no terminal
// state.
func ValidStatusTransition(from, to string) error {
	if from != OrderStatusInTransit && from != OrderStatusCompleted {
		return fmt.Errorf("unknown order status: %q", from)
	}
	if to != OrderStatusInTransit && to != OrderStatusCompleted {
		return fmt.Errorf("unknown order status: %q", to)
	}
	return nil
}

// EstimatedArrival returns order_date + estimated_days, or nil when no
// estimate was given.
func (o *Order) EstimatedArrival() *time.Time {
	if o.EstimatedDays == nil {
		return nil
	}
	t := o.OrderDate.AddDate(0, 0, *o.EstimatedDays)
	return &t
}

// Total returns the estimated order total: price_b times real units,
// summed over all items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	return total
}

// LineItem represents one parsed product line within an order (producto)
type LineItem struct {
	ID           string          `db:"id" json:"id"`
	OrderID      string          `db:"order_id" json:"order_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitsPerCase int             `db:"units_per_case" json:"units_per_case"`
	Name         string          `db:"name" json:"name"`
	PriceA       decimal.Decimal `db:"price_a" json:"price_a"`
	PriceB       decimal.Decimal `db:"price_b" json:"price_b"`
	RawLine      string          `db:"raw_line" json:"raw_line"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// TotalUnits returns cases times units per case.
func (li *LineItem) TotalUnits() int {
	return li.Quantity * li.UnitsPerCase
}

// LineTotal returns price_b (the effective unit cost) times total units.
func (li *LineItem) LineTotal() decimal.Decimal {
	return li.PriceB.Mul(decimal.NewFromInt(int64(li.TotalUnits())))
}

// ShortageRecord represents an out-of-stock product awaiting fulfillment
// by a future order (producto faltante)
type ShortageRecord struct {
	ID           string              `db:"id" json:"id"`
	Name         string              `db:"name" json:"name"`
	Quantity     int                 `db:"quantity" json:"quantity"`
	UnitsPerCase int                 `db:"units_per_case" json:"units_per_case"`
	Supplier     string              `db:"supplier" json:"supplier"`
	Price        decimal.NullDecimal `db:"price" json:"price,omitempty"`
	Resolved     bool                `db:"resolved" json:"resolved"`
	RegisteredAt time.Time           `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}

// TotalUnits returns cases times units per case.
func (s *ShortageRecord) TotalUnits() int {
	return s.Quantity * s.UnitsPerCase
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
