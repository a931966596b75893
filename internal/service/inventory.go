package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// InventoryEvents publishes inventory domain events.
type InventoryEvents interface {
	StockAdjusted(ctx context.Context, size *domain.SizeStock, change int) error
	LowStock(ctx context.Context, size *domain.SizeStock) error
}

// InventoryService implements stock level management.
type InventoryService struct {
	pool   database.Pool
	repo   repository.InventoryRepository
	events InventoryEvents
	cache  ListingCache
	logger *slog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(
	pool database.Pool,
	repo repository.InventoryRepository,
	events InventoryEvents,
	listingCache ListingCache,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		pool:   pool,
		repo:   repo,
		events: events,
		cache:  listingCache,
		logger: logger,
	}
}

// StockFilter re-exports the repository filter for handlers.
type StockFilter = repository.StockFilter

// AdjustStock applies a relative change to the inventory of one size.
// The size row is locked for the duration of the transaction, so two
// concurrent adjustments serialize and both land. A change that would
// take inventory below zero is rejected with a conflict.
func (s *InventoryService) AdjustStock(ctx context.Context, sizeID string, change int, reason string) (*domain.SizeStock, error) {
	if change == 0 {
		return nil, apperrors.InvalidInput("change must be non-zero")
	}
	if reason == "" {
		reason = domain.MovementReasonAdjustment
	}
	if !domain.IsValidMovementReason(reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid movement reason %q", reason))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin adjustment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	size, err := s.repo.GetSizeForUpdate(ctx, tx, sizeID)
	if err != nil {
		return nil, err
	}

	newInventory := size.Inventory + change
	if newInventory < 0 {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"insufficient stock: size %s has %d, change of %d would go negative",
			size.Size, size.Inventory, change,
		))
	}

	if err := s.repo.UpdateInventory(ctx, tx, sizeID, newInventory); err != nil {
		return nil, err
	}

	movement := &domain.StockMovement{
		ID:        uuid.New().String(),
		SizeID:    sizeID,
		ProductID: size.ProductID,
		Change:    change,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit adjustment transaction: %w", err)
	}

	size.Inventory = newInventory

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidation failed", slog.String("error", err.Error()))
	}

	if err := s.events.StockAdjusted(ctx, size, change); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock_adjusted event",
			slog.String("size_id", sizeID),
			slog.String("error", err.Error()),
		)
	}

	if newInventory <= domain.LowStockThreshold {
		if err := s.events.LowStock(ctx, size); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish low_stock event",
				slog.String("size_id", sizeID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("size_id", sizeID),
		slog.String("product_id", size.ProductID),
		slog.String("size", size.Size),
		slog.Int("change", change),
		slog.String("reason", reason),
		slog.Int("inventory", newInventory),
	)

	return size, nil
}

// ListStock returns the inventory view across all products.
func (s *InventoryService) ListStock(ctx context.Context, filter StockFilter) ([]domain.StockLevel, error) {
	return s.repo.ListStockLevels(ctx, s.pool, filter)
}

// ListMovements returns the recent adjustment history of one size.
func (s *InventoryService) ListMovements(ctx context.Context, sizeID string, limit int) ([]domain.StockMovement, error) {
	return s.repo.ListMovements(ctx, s.pool, sizeID, limit)
}
