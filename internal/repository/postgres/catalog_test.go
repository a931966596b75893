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

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupCatalog(t *testing.T) (*CatalogRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewCatalogRepository(), mock
}

var productColumns = []string{"id", "name", "description", "price", "category", "created_at", "updated_at"}

var productColumnsWithCount = append(append([]string{}, productColumns...), "total_count")

var sizeColumns = []string{"id", "product_id", "size", "inventory", "updated_at"}

var imageColumns = []string{"id", "product_id", "path", "sort_order", "created_at"}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          "11111111-1111-1111-1111-111111111111",
		Name:        "Air Runner 90",
		Description: "Retro mesh runner",
		Price:       129.99,
		Category:    domain.CategoryRunning,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// products
// ---------------------------------------------------------------------------

func TestCatalogRepository_InsertProduct(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Description, p.Price, p.Category, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertProduct(context.Background(), mock, &p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_UpdateProduct_NotFound(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(p.Name, p.Description, p.Price, p.Category, pgxmock.AnyArg(), p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateProduct(context.Background(), mock, &p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetProduct(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow(p.ID, p.Name, p.Description, p.Price, p.Category, p.CreatedAt, p.UpdatedAt))

	got, err := repo.GetProduct(context.Background(), mock, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Price, got.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetProduct_NotFound(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(productColumns))

	_, err := repo.GetProduct(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogRepository_ListProducts_CategoryFilter(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	p := sampleProduct()
	category := domain.CategoryRunning

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(category, 20, 0).
		WillReturnRows(pgxmock.NewRows(productColumnsWithCount).
			AddRow(p.ID, p.Name, p.Description, p.Price, p.Category, p.CreatedAt, p.UpdatedAt, 1))

	products, total, err := repo.ListProducts(context.Background(), mock, repository.ProductFilter{Category: &category})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListProducts_Empty(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(productColumnsWithCount))

	products, total, err := repo.ListProducts(context.Background(), mock, repository.ProductFilter{})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Zero(t, total)
}

func TestCatalogRepository_DeleteProduct_NotFound(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM products").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteProduct(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// sizes
// ---------------------------------------------------------------------------

func TestCatalogRepository_UpsertSizes(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	productID := "11111111-1111-1111-1111-111111111111"
	entries := []domain.SizeEntry{
		{Size: "8", Inventory: 10},
		{Size: "9", Inventory: 5},
	}

	mock.ExpectExec("INSERT INTO product_sizes").
		WithArgs(productID, "8", 10).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO product_sizes").
		WithArgs(productID, "9", 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM product_sizes").
		WithArgs(productID, []string{"8", "9"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.UpsertSizes(context.Background(), mock, productID, entries)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_UpsertSizes_EmptyRemovesAll(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	productID := "11111111-1111-1111-1111-111111111111"

	mock.ExpectExec("DELETE FROM product_sizes").
		WithArgs(productID, []string{}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.UpsertSizes(context.Background(), mock, productID, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListSizesForProducts(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	now := time.Now().UTC()
	ids := []string{"p-1", "p-2"}

	mock.ExpectQuery("SELECT (.+) FROM product_sizes").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(sizeColumns).
			AddRow("s-1", "p-1", "8", 4, now).
			AddRow("s-2", "p-1", "9", 0, now).
			AddRow("s-3", "p-2", "10", 2, now))

	got, err := repo.ListSizesForProducts(context.Background(), mock, ids)
	require.NoError(t, err)
	assert.Len(t, got["p-1"], 2)
	assert.Len(t, got["p-2"], 1)
}

func TestCatalogRepository_ListSizesForProducts_NoIDs(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	got, err := repo.ListSizesForProducts(context.Background(), mock, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ---------------------------------------------------------------------------
// images
// ---------------------------------------------------------------------------

func TestCatalogRepository_InsertImage(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	img := domain.ProductImage{
		ID:        "img-1",
		ProductID: "p-1",
		Path:      "products/p-1/img-1.jpg",
		SortOrder: 0,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO product_images").
		WithArgs(img.ID, img.ProductID, img.Path, img.SortOrder, img.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertImage(context.Background(), mock, &img)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_DeleteImagesExcept_ReturnsRemoved(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("DELETE FROM product_images").
		WithArgs("p-1", []string{"img-keep"}).
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow("img-old", "p-1", "products/p-1/img-old.jpg", 1, now))

	removed, err := repo.DeleteImagesExcept(context.Background(), mock, "p-1", []string{"img-keep"})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "products/p-1/img-old.jpg", removed[0].Path)
}

func TestCatalogRepository_DeleteImagesExcept_NilKeepRemovesAll(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("DELETE FROM product_images").
		WithArgs("p-1", []string{}).
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow("img-1", "p-1", "products/p-1/a.jpg", 0, now).
			AddRow("img-2", "p-1", "products/p-1/b.jpg", 1, now))

	removed, err := repo.DeleteImagesExcept(context.Background(), mock, "p-1", nil)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
}

func TestCatalogRepository_CountImages(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountImages(context.Background(), mock, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCatalogRepository_DeleteImage_NotFound(t *testing.T) {
	repo, mock := setupCatalog(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM product_images").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteImage(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
