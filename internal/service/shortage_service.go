package service

import (
	"context"
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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShortageService manages the out-of-stock registry
type ShortageService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	summaryTTL     time.Duration
}

// NewShortageService creates a new shortage service
func NewShortageService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	summaryTTL time.Duration,
) *ShortageService {
	return &ShortageService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		summaryTTL:     summaryTTL,
	}
}

// AddShortageRequest represents a manually registered shortage
type AddShortageRequest struct {
	Name         string  `json:"name" binding:"required"`
	Quantity     int     `json:"quantity" binding:"required,min=1"`
	UnitsPerCase int     `json:"units_per_case" binding:"required,min=1"`
	Supplier     string  `json:"supplier" binding:"required"`
	Price        *string `json:"price,omitempty"`
}

// AddShortage registers a single shortage record
func (s *ShortageService) AddShortage(ctx context.Context, req *AddShortageRequest) (*models.ShortageRecord, error) {
	ctx, span := util.StartSpan(ctx, "ShortageService.AddShortage")
	defer span.End()

	if req.Name == "" || req.Supplier == "" || req.Quantity < 1 || req.UnitsPerCase < 1 {
		return nil, fmt.Errorf("%w: name, quantity, units_per_case and supplier are required", ErrValidation)
	}

	record := &models.ShortageRecord{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Quantity:     req.Quantity,
		UnitsPerCase: req.UnitsPerCase,
		Supplier:     req.Supplier,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid price %q", ErrValidation, *req.Price)
		}
		record.Price = decimal.NullDecimal{Decimal: price, Valid: true}
	}

	if err := s.store.CreateShortage(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create shortage: %w", err)
	}

	util.ShortagesRegisteredTotal.Inc()
	s.invalidateSummary(ctx)
	s.logger.Info("Shortage registered",
		zap.String("name", record.Name),
		zap.String("supplier", record.Supplier))
	return record, nil
}

// ImportShortagesResponse represents the result of a bulk text import
type ImportShortagesResponse struct {
	Records       []models.ShortageRecord `json:"records"`
	UnparsedLines []string                `json:"unparsed_lines,omitempty"`
}

// ImportShortages bulk-registers shortages from pasted text, all
// attributed to one supplier. Inserts are independent statements; a
// failed insert is logged and skipped.
func (s *ShortageService) ImportShortages(ctx context.Context, text, supplier string) (*ImportShortagesResponse, error) {
	ctx, span := util.StartSpan(ctx, "ShortageService.ImportShortages")
	defer span.End()

	if supplier == "" {
		return nil, fmt.Errorf("%w: supplier is required", ErrValidation)
	}

	parsed, unparsed := parser.ParseShortageText(text, supplier)
	countParsedLines(len(parsed), len(unparsed))
	if len(parsed) == 0 {
		return nil, ErrNoLinesParsed
	}

	records := make([]models.ShortageRecord, 0, len(parsed))
	for _, record := range parsed {
		record.ID = uuid.New().String()
		if err := s.store.CreateShortage(ctx, &record); err != nil {
			util.ShortageUpdatesFailed.WithLabelValues("insert").Inc()
			s.logger.Error("Failed to insert imported shortage",
				zap.String("name", record.Name),
				zap.Error(err))
			continue
		}
		util.ShortagesRegisteredTotal.Inc()
		records = append(records, record)
	}

	s.invalidateSummary(ctx)
	s.logger.Info("Shortages imported",
		zap.String("supplier", supplier),
		zap.Int("count", len(records)))

	return &ImportShortagesResponse{Records: records, UnparsedLines: unparsed}, nil
}

// DeleteShortage removes a shortage record
func (s *ShortageService) DeleteShortage(ctx context.Context, id string) error {
	if _, err := s.store.GetShortageByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteShortage(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shortage: %w", err)
	}
	s.invalidateSummary(ctx)
	return nil
}

// ListShortages retrieves shortage records by resolved state
func (s *ShortageService) ListShortages(ctx context.Context, resolved bool) ([]models.ShortageRecord, error) {
	return s.store.GetShortages(ctx, resolved)
}

// SupplierSummary aggregates the outstanding shortages of one supplier
type SupplierSummary struct {
	Supplier   string                  `json:"supplier"`
	Count      int                     `json:"count"`
	TotalUnits int                     `json:"total_units"`
	Shortages  []models.ShortageRecord `json:"shortages"`
}

// Summary groups the unresolved shortages per supplier with outstanding
// unit totals. Served from the redis cache when warm.
func (s *ShortageService) Summary(ctx context.Context) ([]SupplierSummary, error) {
	ctx, span := util.StartSpan(ctx, "ShortageService.Summary")
	defer span.End()

	var cached []SupplierSummary
	hit, err := s.redis.GetShortageSummary(ctx, &cached)
	if err != nil {
		s.logger.Warn("Shortage summary cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	shortages, err := s.store.GetShortages(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load shortages: %w", err)
	}

	index := make(map[string]int)
	var summaries []SupplierSummary
	for _, shortage := range shortages {
		i, ok := index[shortage.Supplier]
		if !ok {
			i = len(summaries)
			index[shortage.Supplier] = i
			summaries = append(summaries, SupplierSummary{Supplier: shortage.Supplier})
		}
		summaries[i].Count++
		summaries[i].TotalUnits += shortage.TotalUnits()
		summaries[i].Shortages = append(summaries[i].Shortages, shortage)
	}

	if err := s.redis.SetShortageSummary(ctx, summaries, s.summaryTTL); err != nil {
		s.logger.Warn("Shortage summary cache write failed", zap.Error(err))
	}

	return summaries, nil
}

// ReverseItem re-adds a cancelled or removed order item to the shortage
// registry. Attribution follows the most recent resolved shortage with
// the same name, falling back to the order's supplier. This is a
// best-effort compensation, not an exact undo: the full original
// quantity is re-added even when the order only partially reduced a
// shortage.
func (s *ShortageService) ReverseItem(ctx context.Context, item models.LineItem, fallbackSupplier string) error {
	ctx, span := util.StartSpan(ctx, "ShortageService.ReverseItem")
	defer span.End()

	latestResolved, err := s.store.GetLatestResolvedByName(ctx, item.Name)
	if err != nil {
		return fmt.Errorf("failed to look up resolved shortages: %w", err)
	}

	var resolved []models.ShortageRecord
	if latestResolved != nil {
		resolved = append(resolved, *latestResolved)
	}
	supplier := reconcile.ReversalSupplier(item, resolved, fallbackSupplier)

	open, err := s.store.GetUnresolvedByNameAndSupplier(ctx, item.Name, supplier)
	if err != nil {
		return fmt.Errorf("failed to look up open shortages: %w", err)
	}

	plan := reconcile.PlanReversal(item, supplier, open)

	var shortageID string
	var quantity int
	switch plan.Action {
	case reconcile.ReversalIncrement:
		if err := s.store.IncrementShortageQuantity(ctx, plan.Target.ID, item.Quantity); err != nil {
			util.ShortageUpdatesFailed.WithLabelValues("increment").Inc()
			return fmt.Errorf("failed to increment shortage: %w", err)
		}
		shortageID = plan.Target.ID
		quantity = plan.Target.Quantity + item.Quantity

	case reconcile.ReversalInsert:
		record := plan.Insert
		record.ID = uuid.New().String()
		if err := s.store.CreateShortage(ctx, &record); err != nil {
			util.ShortageUpdatesFailed.WithLabelValues("insert").Inc()
			return fmt.Errorf("failed to recreate shortage: %w", err)
		}
		shortageID = record.ID
		quantity = record.Quantity

	default:
		return fmt.Errorf("unknown reversal action: %s", plan.Action)
	}

	util.ShortagesReopenedTotal.Inc()
	s.invalidateSummary(ctx)
	s.logger.Info("Shortage reopened",
		zap.String("name", item.Name),
		zap.String("supplier", supplier),
		zap.Int("quantity", quantity))

	event := &models.ShortageReopenedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeShortageReopened,
			Timestamp: time.Now(),
		},
		ShortageID: shortageID,
		Name:       item.Name,
		Supplier:   supplier,
		Quantity:   quantity,
	}
	if err := s.eventPublisher.PublishShortageReopened(ctx, event); err != nil {
		s.logger.Error("Failed to publish ShortageReopened event", zap.Error(err))
	}

	return nil
}

func (s *ShortageService) invalidateSummary(ctx context.Context) {
	if err := s.redis.InvalidateShortageSummary(ctx); err != nil {
		s.logger.Warn("Failed to invalidate shortage summary cache", zap.Error(err))
	}
}
