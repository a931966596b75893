package repository

import (
	"context"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/pkg/database"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category *string
	Search   *string
	Page     int
	PerPage  int
}

// StockFilter defines filter criteria for listing stock levels.
type StockFilter struct {
	Category *string
	LowOnly  bool
}

// CatalogRepository defines persistence operations for products, their
// per-size stock rows, and their image rows. Every method takes the
// database handle explicitly so callers decide whether the statement
// runs on the pool or inside a transaction they own.
type CatalogRepository interface {
	InsertProduct(ctx context.Context, db database.DBTX, product *domain.Product) error
	UpdateProduct(ctx context.Context, db database.DBTX, product *domain.Product) error
	DeleteProduct(ctx context.Context, db database.DBTX, id string) error

	// GetProduct retrieves the base product row without sizes or images.
	GetProduct(ctx context.Context, db database.DBTX, id string) (*domain.Product, error)

	// ListProducts returns base product rows matching the filter along
	// with the total count.
	ListProducts(ctx context.Context, db database.DBTX, filter ProductFilter) ([]domain.Product, int, error)

	// UpsertSizes reconciles the size rows of a product against the given
	// entries: listed sizes are inserted or updated in place, unlisted
	// sizes are removed.
	UpsertSizes(ctx context.Context, db database.DBTX, productID string, sizes []domain.SizeEntry) error
	ListSizes(ctx context.Context, db database.DBTX, productID string) ([]domain.SizeStock, error)
	ListSizesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.SizeStock, error)

	InsertImage(ctx context.Context, db database.DBTX, image *domain.ProductImage) error
	GetImage(ctx context.Context, db database.DBTX, id string) (*domain.ProductImage, error)
	ListImages(ctx context.Context, db database.DBTX, productID string) ([]domain.ProductImage, error)
	ListImagesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.ProductImage, error)
	CountImages(ctx context.Context, db database.DBTX, productID string) (int, error)
	DeleteImage(ctx context.Context, db database.DBTX, id string) error

	// DeleteImagesExcept removes all image rows of a product whose IDs are
	// not in keep, returning the removed rows so the caller can clean up
	// their blobs after commit.
	DeleteImagesExcept(ctx context.Context, db database.DBTX, productID string, keep []string) ([]domain.ProductImage, error)
}

// InventoryRepository defines persistence operations for stock levels
// and their audit trail.
type InventoryRepository interface {
	// GetSizeForUpdate retrieves a size row with a row lock so that a
	// concurrent adjustment on the same size blocks until commit.
	GetSizeForUpdate(ctx context.Context, db database.DBTX, sizeID string) (*domain.SizeStock, error)

	UpdateInventory(ctx context.Context, db database.DBTX, sizeID string, inventory int) error
	InsertMovement(ctx context.Context, db database.DBTX, movement *domain.StockMovement) error

	ListStockLevels(ctx context.Context, db database.DBTX, filter StockFilter) ([]domain.StockLevel, error)
	ListMovements(ctx context.Context, db database.DBTX, sizeID string, limit int) ([]domain.StockMovement, error)
}

// FeedbackRepository defines persistence operations for shopper feedback.
type FeedbackRepository interface {
	Insert(ctx context.Context, db database.DBTX, feedback *domain.Feedback) error
	Delete(ctx context.Context, db database.DBTX, id string) error
	List(ctx context.Context, db database.DBTX, page, perPage int) ([]domain.Feedback, int, error)
	Summary(ctx context.Context, db database.DBTX) (*domain.FeedbackSummary, error)
}
