package store

import (
	"context"
	"database/sql"
	"fmt"

	"pedidos-service/internal/models"
)

// CreateShortage creates a new shortage record
func (s *Store) CreateShortage(ctx context.Context, shortage *models.ShortageRecord) error {
	query := `
		INSERT INTO shortages (id, name, quantity, units_per_case, supplier, price, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING registered_at, updated_at`

	return s.db.GetContext(ctx, shortage, query,
		shortage.ID, shortage.Name, shortage.Quantity, shortage.UnitsPerCase,
		shortage.Supplier, shortage.Price, shortage.Resolved)
}

// GetShortageByID retrieves a shortage record by ID
func (s *Store) GetShortageByID(ctx context.Context, id string) (*models.ShortageRecord, error) {
	var shortage models.ShortageRecord
	err := s.db.GetContext(ctx, &shortage, "SELECT * FROM shortages WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shortage not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &shortage, nil
}

// GetShortages retrieves shortage records filtered by resolved state,
// oldest registration first
func (s *Store) GetShortages(ctx context.Context, resolved bool) ([]models.ShortageRecord, error) {
	var shortages []models.ShortageRecord
	err := s.db.SelectContext(ctx, &shortages,
		"SELECT * FROM shortages WHERE resolved = $1 ORDER BY registered_at, id", resolved)
	return shortages, err
}

// GetUnresolvedByName retrieves the unresolved shortages matching a name
// case-insensitively, oldest registration first (FIFO for reconciliation)
func (s *Store) GetUnresolvedByName(ctx context.Context, name string) ([]models.ShortageRecord, error) {
	var shortages []models.ShortageRecord
	err := s.db.SelectContext(ctx, &shortages,
		"SELECT * FROM shortages WHERE resolved = FALSE AND LOWER(name) = LOWER($1) ORDER BY registered_at, id",
		name)
	return shortages, err
}

// GetLatestResolvedByName retrieves the most-recently-updated resolved
// shortage with the given name, or nil if none exists
func (s *Store) GetLatestResolvedByName(ctx context.Context, name string) (*models.ShortageRecord, error) {
	var shortage models.ShortageRecord
	err := s.db.GetContext(ctx, &shortage,
		"SELECT * FROM shortages WHERE resolved = TRUE AND LOWER(name) = LOWER($1) ORDER BY updated_at DESC LIMIT 1",
		name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shortage, nil
}

// GetUnresolvedByNameAndSupplier retrieves the unresolved shortage with
// the given name and exact supplier, or nil if none exists
func (s *Store) GetUnresolvedByNameAndSupplier(ctx context.Context, name, supplier string) (*models.ShortageRecord, error) {
	var shortage models.ShortageRecord
	err := s.db.GetContext(ctx, &shortage,
		"SELECT * FROM shortages WHERE resolved = FALSE AND LOWER(name) = LOWER($1) AND supplier = $2 ORDER BY registered_at LIMIT 1",
		name, supplier)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shortage, nil
}

// MarkShortageResolved closes a shortage record
func (s *Store) MarkShortageResolved(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE shortages SET resolved = TRUE, updated_at = NOW() WHERE id = $1", id)
	return err
}

// UpdateShortageQuantity sets the remaining case count on a shortage
func (s *Store) UpdateShortageQuantity(ctx context.Context, id string, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE shortages SET quantity = $1, updated_at = NOW() WHERE id = $2",
		quantity, id)
	return err
}

// IncrementShortageQuantity bumps an open shortage by the given number of
// cases (cancellation reversal)
func (s *Store) IncrementShortageQuantity(ctx context.Context, id string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE shortages SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2",
		delta, id)
	return err
}

// DeleteShortage deletes a shortage record
func (s *Store) DeleteShortage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM shortages WHERE id = $1", id)
	return err
}
