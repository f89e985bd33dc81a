package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pedidos-service/internal/broker"
	"pedidos-service/internal/models"
	"pedidos-service/internal/parser"
	"pedidos-service/internal/reconcile"
	"pedidos-service/internal/redisclient"
	"pedidos-service/internal/store"
	"pedidos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoLinesParsed is returned when none of the pasted lines matched the
// expected format. Surfaced to the user as a format-check message.
var ErrNoLinesParsed = errors.New("no lines could be parsed, check the format")

// ErrValidation is the base error for missing required fields.
var ErrValidation = errors.New("validation failed")

// OrderService handles order business logic
type OrderService struct {
	store                *store.Store
	redis                *redisclient.Client
	eventPublisher       *broker.EventPublisher
	logger               *zap.Logger
	reconcileShortages   bool
	defaultEstimatedDays int
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	reconcileShortages bool,
	defaultEstimatedDays int,
) *OrderService {
	return &OrderService{
		store:                store,
		redis:                redis,
		eventPublisher:       eventPublisher,
		logger:               util.GetLogger(),
		reconcileShortages:   reconcileShortages,
		defaultEstimatedDays: defaultEstimatedDays,
	}
}

// PlaceOrderRequest represents a request to place an order from pasted
// invoice text
type PlaceOrderRequest struct {
	Supplier       string `json:"supplier" binding:"required"`
	Text           string `json:"text" binding:"required"`
	EstimatedDays  *int   `json:"estimated_days,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PlaceOrderResponse represents the result of placing an order
type PlaceOrderResponse struct {
	Order          *models.Order                `json:"order"`
	UnparsedLines  []string                     `json:"unparsed_lines,omitempty"`
	Duplicates     []reconcile.Duplicate        `json:"duplicates,omitempty"`
	Reconciliation []reconcile.AllocationAction `json:"reconciliation,omitempty"`
}

// PreviewOrderResponse represents a parse without persistence
type PreviewOrderResponse struct {
	Items         []models.LineItem     `json:"items"`
	UnparsedLines []string              `json:"unparsed_lines,omitempty"`
	Duplicates    []reconcile.Duplicate `json:"duplicates,omitempty"`
}

// PreviewOrder parses pasted text and runs the duplicate scan without
// saving anything
func (s *OrderService) PreviewOrder(ctx context.Context, text string) (*PreviewOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PreviewOrder")
	defer span.End()

	items, unparsed := parser.ParseOrderText(text)
	countParsedLines(len(items), len(unparsed))
	if len(items) == 0 {
		return nil, ErrNoLinesParsed
	}

	orders, err := s.store.GetOrdersWithItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing orders: %w", err)
	}

	return &PreviewOrderResponse{
		Items:         items,
		UnparsedLines: unparsed,
		Duplicates:    reconcile.FindDuplicates(items, orders),
	}, nil
}

// PlaceOrder parses the pasted text, persists the order with its items
// and nets the items against the outstanding shortage registry. The
// duplicate scan result is advisory and never blocks saving. The save and
// its shortage cascade are independent statements: a mid-cascade failure
// is logged and counted, not rolled back.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if req.Supplier == "" {
		util.OrdersFailedTotal.WithLabelValues("missing_supplier").Inc()
		return nil, fmt.Errorf("%w: supplier is required", ErrValidation)
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existingOrder, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingOrder != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("order_id", existingOrder.ID))
		existingOrder.Items, _ = s.store.GetOrderItemsByOrderID(ctx, existingOrder.ID)
		return &PlaceOrderResponse{Order: existingOrder}, nil
	}

	items, unparsed := parser.ParseOrderText(req.Text)
	countParsedLines(len(items), len(unparsed))
	if len(items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("parse_failed").Inc()
		return nil, ErrNoLinesParsed
	}

	existingOrders, err := s.store.GetOrdersWithItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing orders: %w", err)
	}
	duplicates := reconcile.FindDuplicates(items, existingOrders)

	order := &models.Order{
		ID:             uuid.New().String(),
		Supplier:       req.Supplier,
		Status:         models.OrderStatusInTransit,
		OrderDate:      time.Now(),
		EstimatedDays:  s.effectiveEstimatedDays(req.EstimatedDays),
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("supplier", order.Supplier),
		zap.Int("items", len(items)))

	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].OrderID = order.ID
		if err := s.store.CreateOrderItem(ctx, &items[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	order.Items = items

	var actions []reconcile.AllocationAction
	if s.reconcileShortages {
		actions = s.reconcileOrder(ctx, order)
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:  order.ID,
		Supplier: order.Supplier,
		Items:    toItemData(items),
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &PlaceOrderResponse{
		Order:          order,
		UnparsedLines:  unparsed,
		Duplicates:     duplicates,
		Reconciliation: actions,
	}, nil
}

// reconcileOrder nets every item of a freshly saved order against the
// unresolved shortages with the same name, oldest first. Each store
// update is an independent statement; failures are logged and the
// cascade continues.
func (s *OrderService) reconcileOrder(ctx context.Context, order *models.Order) []reconcile.AllocationAction {
	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
	}()

	var applied []reconcile.AllocationAction

	for _, item := range order.Items {
		candidates, err := s.store.GetUnresolvedByName(ctx, item.Name)
		if err != nil {
			util.ShortageUpdatesFailed.WithLabelValues("lookup").Inc()
			s.logger.Error("Failed to load shortages for item",
				zap.String("name", item.Name),
				zap.Error(err))
			continue
		}

		for _, action := range reconcile.AllocateItem(item, candidates) {
			if err := s.applyAllocation(ctx, order.ID, action); err != nil {
				util.ShortageUpdatesFailed.WithLabelValues(action.Action).Inc()
				s.logger.Error("Failed to apply shortage allocation",
					zap.String("shortage_id", action.Shortage.ID),
					zap.String("action", action.Action),
					zap.Error(err))
				continue
			}
			applied = append(applied, action)
		}
	}

	if len(applied) > 0 {
		if err := s.redis.InvalidateShortageSummary(ctx); err != nil {
			s.logger.Warn("Failed to invalidate shortage summary cache", zap.Error(err))
		}
	}

	return applied
}

func (s *OrderService) applyAllocation(ctx context.Context, orderID string, action reconcile.AllocationAction) error {
	switch action.Action {
	case reconcile.ActionResolved:
		if err := s.store.MarkShortageResolved(ctx, action.Shortage.ID); err != nil {
			return err
		}
		util.ShortagesResolvedTotal.Inc()
		event := &models.ShortageResolvedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeShortageResolved,
				Timestamp: time.Now(),
			},
			ShortageID: action.Shortage.ID,
			Name:       action.Shortage.Name,
			OrderID:    orderID,
		}
		if err := s.eventPublisher.PublishShortageResolved(ctx, event); err != nil {
			s.logger.Error("Failed to publish ShortageResolved event", zap.Error(err))
		}
		return nil

	case reconcile.ActionReduced:
		if err := s.store.UpdateShortageQuantity(ctx, action.Shortage.ID, action.NewQuantity); err != nil {
			return err
		}
		util.ShortagesReducedTotal.Inc()
		event := &models.ShortageReducedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeShortageReduced,
				Timestamp: time.Now(),
			},
			ShortageID:  action.Shortage.ID,
			Name:        action.Shortage.Name,
			OrderID:     orderID,
			NewQuantity: action.NewQuantity,
		}
		if err := s.eventPublisher.PublishShortageReduced(ctx, event); err != nil {
			s.logger.Error("Failed to publish ShortageReduced event", zap.Error(err))
		}
		return nil

	default:
		return fmt.Errorf("unknown allocation action: %s", action.Action)
	}
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Items, err = s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves orders newest-first, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	if status != "" && status != models.OrderStatusInTransit && status != models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	orders, err := s.store.GetOrders(ctx, status)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = s.store.GetOrderItemsByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ChangeStatus moves an order between transito and completado
func (s *OrderService) ChangeStatus(ctx context.Context, orderID, newStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ChangeStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidStatusTransition(order.Status, newStatus); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		OldStatus: order.Status,
		NewStatus: newStatus,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	order.Status = newStatus
	return order, nil
}

// CancelOrder deletes an order and publishes a cancellation event
// carrying the item snapshot so the shortage worker can run the reversal
// after the rows are gone.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to delete order: %w", err)
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.String("order_id", orderID),
		zap.String("supplier", order.Supplier))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:  orderID,
		Supplier: order.Supplier,
		Items:    toItemData(order.Items),
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return nil
}

// RemoveItem deletes a single item from an order and publishes the
// removal event that triggers the shortage reversal for that item.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.RemoveItem")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	item, err := s.store.GetOrderItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OrderID != orderID {
		return fmt.Errorf("%w: item %s does not belong to order %s", ErrValidation, itemID, orderID)
	}

	if err := s.store.DeleteOrderItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}

	s.logger.Info("Order item removed",
		zap.String("order_id", orderID),
		zap.String("item", item.Name))

	event := &models.OrderItemRemovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderItemRemoved,
			Timestamp: time.Now(),
		},
		OrderID:  orderID,
		Supplier: order.Supplier,
		Item:     toItemData([]models.LineItem{*item})[0],
	}
	if err := s.eventPublisher.PublishOrderItemRemoved(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderItemRemoved event", zap.Error(err))
	}

	return nil
}

// effectiveEstimatedDays falls back to the configured default when the
// request carries no arrival estimate. A zero default disables the
// fallback.
func (s *OrderService) effectiveEstimatedDays(requested *int) *int {
	if requested != nil {
		return requested
	}
	if s.defaultEstimatedDays > 0 {
		d := s.defaultEstimatedDays
		return &d
	}
	return nil
}

func toItemData(items []models.LineItem) []models.LineItemData {
	data := make([]models.LineItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.LineItemData{
			Quantity:     item.Quantity,
			UnitsPerCase: item.UnitsPerCase,
			Name:         item.Name,
			Price:        item.PriceB.String(),
			RawLine:      item.RawLine,
		})
	}
	return data
}

func countParsedLines(parsed, unparsed int) {
	util.OrderLinesParsedTotal.WithLabelValues("parsed").Add(float64(parsed))
	util.OrderLinesParsedTotal.WithLabelValues("unparsed").Add(float64(unparsed))
}
