package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

func setupInventory(t *testing.T) (*InventoryRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewInventoryRepository(), mock
}

var stockLevelColumns = []string{"id", "product_id", "name", "category", "size", "inventory"}

func TestInventoryRepository_GetSizeForUpdate(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM product_sizes(.+)FOR UPDATE").
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows(sizeColumns).
			AddRow("s-1", "p-1", "9", 7, now))

	got, err := repo.GetSizeForUpdate(context.Background(), mock, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Inventory)
	assert.Equal(t, "p-1", got.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_GetSizeForUpdate_NotFound(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM product_sizes(.+)FOR UPDATE").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(sizeColumns))

	_, err := repo.GetSizeForUpdate(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInventoryRepository_UpdateInventory(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE product_sizes").
		WithArgs(12, "s-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateInventory(context.Background(), mock, "s-1", 12)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_InsertMovement(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	m := domain.StockMovement{
		ID:        "m-1",
		SizeID:    "s-1",
		ProductID: "p-1",
		Change:    -2,
		Reason:    domain.MovementReasonSale,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO stock_movements").
		WithArgs(m.ID, m.SizeID, m.ProductID, m.Change, m.Reason, m.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertMovement(context.Background(), mock, &m)
	assert.NoError(t, err)
}

func TestInventoryRepository_ListStockLevels(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM product_sizes s").
		WillReturnRows(pgxmock.NewRows(stockLevelColumns).
			AddRow("s-1", "p-1", "Air Runner 90", domain.CategoryRunning, "8", 3).
			AddRow("s-2", "p-1", "Air Runner 90", domain.CategoryRunning, "9", 20))

	levels, err := repo.ListStockLevels(context.Background(), mock, repository.StockFilter{})
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.True(t, levels[0].LowStock)
	assert.False(t, levels[1].LowStock)
}

func TestInventoryRepository_ListStockLevels_LowOnlyFilter(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM product_sizes s").
		WithArgs(domain.LowStockThreshold).
		WillReturnRows(pgxmock.NewRows(stockLevelColumns).
			AddRow("s-1", "p-1", "Air Runner 90", domain.CategoryRunning, "8", 1))

	levels, err := repo.ListStockLevels(context.Background(), mock, repository.StockFilter{LowOnly: true})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].LowStock)
}

func TestInventoryRepository_ListMovements(t *testing.T) {
	repo, mock := setupInventory(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM stock_movements").
		WithArgs("s-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "size_id", "product_id", "change", "reason", "created_at"}).
			AddRow("m-2", "s-1", "p-1", 5, domain.MovementReasonRestock, now).
			AddRow("m-1", "s-1", "p-1", -1, domain.MovementReasonSale, now.Add(-time.Hour)))

	movements, err := repo.ListMovements(context.Background(), mock, "s-1", 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, 5, movements[0].Change)
}
