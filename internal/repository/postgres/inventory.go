package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// InventoryRepository implements repository.InventoryRepository using PostgreSQL.
type InventoryRepository struct{}

// NewInventoryRepository creates a new PostgreSQL-backed inventory repository.
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

// GetSizeForUpdate retrieves a size row with FOR UPDATE. Callers must run
// this inside a transaction; the lock serializes concurrent adjustments
// on the same size.
func (r *InventoryRepository) GetSizeForUpdate(ctx context.Context, db database.DBTX, sizeID string) (*domain.SizeStock, error) {
	query := `
		SELECT id, product_id, size, inventory, updated_at
		FROM product_sizes
		WHERE id = $1
		FOR UPDATE`

	var s domain.SizeStock
	err := db.QueryRow(ctx, query, sizeID).Scan(
		&s.ID,
		&s.ProductID,
		&s.Size,
		&s.Inventory,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("size", sizeID)
		}
		return nil, fmt.Errorf("lock size row: %w", err)
	}

	return &s, nil
}

// UpdateInventory sets the inventory level of a size row.
func (r *InventoryRepository) UpdateInventory(ctx context.Context, db database.DBTX, sizeID string, inventory int) error {
	query := `UPDATE product_sizes SET inventory = $1, updated_at = now() WHERE id = $2`

	ct, err := db.Exec(ctx, query, inventory, sizeID)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("size", sizeID)
	}

	return nil
}

// InsertMovement appends a stock movement audit row.
func (r *InventoryRepository) InsertMovement(ctx context.Context, db database.DBTX, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, size_id, product_id, change, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db.Exec(ctx, query,
		m.ID,
		m.SizeID,
		m.ProductID,
		m.Change,
		m.Reason,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	return nil
}

// ListStockLevels returns the inventory view joining sizes with their
// products, optionally filtered by category or low stock.
func (r *InventoryRepository) ListStockLevels(ctx context.Context, db database.DBTX, filter repository.StockFilter) ([]domain.StockLevel, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.LowOnly {
		conditions = append(conditions, fmt.Sprintf("s.inventory <= $%d", argIndex))
		args = append(args, domain.LowStockThreshold)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.product_id, p.name, p.category, s.size, s.inventory
		FROM product_sizes s
		JOIN products p ON p.id = s.product_id
		%s
		ORDER BY p.name, s.size`,
		whereClause,
	)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var l domain.StockLevel
		if err := rows.Scan(
			&l.SizeID,
			&l.ProductID,
			&l.ProductName,
			&l.Category,
			&l.Size,
			&l.Inventory,
		); err != nil {
			return nil, fmt.Errorf("scan stock level row: %w", err)
		}
		l.LowStock = l.Inventory <= domain.LowStockThreshold
		levels = append(levels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock level rows: %w", err)
	}

	if levels == nil {
		levels = []domain.StockLevel{}
	}

	return levels, nil
}

// ListMovements returns the most recent movements of a size, newest first.
func (r *InventoryRepository) ListMovements(ctx context.Context, db database.DBTX, sizeID string, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, size_id, product_id, change, reason, created_at
		FROM stock_movements
		WHERE size_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.Query(ctx, query, sizeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.SizeID, &m.ProductID, &m.Change, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement row: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movement rows: %w", err)
	}

	if movements == nil {
		movements = []domain.StockMovement{}
	}

	return movements, nil
}
