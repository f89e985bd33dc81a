package store

import (
	"context"
	"database/sql"
	"fmt"

	"pedidos-service/internal/models"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, supplier, status, order_date, estimated_days, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.ID, order.Supplier, order.Status, order.OrderDate,
		order.EstimatedDays, order.IdempotencyKey)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves orders newest-first, optionally filtered by status
func (s *Store) GetOrders(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	if status == "" {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders ORDER BY created_at DESC")
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
	return orders, err
}

// GetOrdersWithItems retrieves every order with its items attached,
// newest-first. Used by the duplicate scan, which needs the full history.
func (s *Store) GetOrdersWithItems(ctx context.Context) ([]models.Order, error) {
	orders, err := s.GetOrders(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	var items []models.LineItem
	if err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items ORDER BY created_at"); err != nil {
		return nil, err
	}

	byOrder := make(map[string][]models.LineItem)
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// DeleteOrder deletes an order; its items cascade at the database level
func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}

// CreateOrderItem creates a new order item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.LineItem) error {
	query := `
		INSERT INTO order_items (id, order_id, quantity, units_per_case, name, price_a, price_b, raw_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return s.db.GetContext(ctx, &item.CreatedAt, query,
		item.ID, item.OrderID, item.Quantity, item.UnitsPerCase,
		item.Name, item.PriceA, item.PriceB, item.RawLine)
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.LineItem, error) {
	var items []models.LineItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at", orderID)
	return items, err
}

// GetOrderItemByID retrieves a single order item
func (s *Store) GetOrderItemByID(ctx context.Context, itemID string) (*models.LineItem, error) {
	var item models.LineItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM order_items WHERE id = $1", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order item not found: %s", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteOrderItem deletes a single order item
func (s *Store) DeleteOrderItem(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM order_items WHERE id = $1", itemID)
	return err
}
