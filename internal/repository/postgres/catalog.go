package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// CatalogRepository implements repository.CatalogRepository using PostgreSQL.
type CatalogRepository struct{}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

// InsertProduct inserts a new product row.
func (r *CatalogRepository) InsertProduct(ctx context.Context, db database.DBTX, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// UpdateProduct modifies an existing product row.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, db database.DBTX, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, updated_at = $5
		WHERE id = $6`

	ct, err := db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// DeleteProduct removes a product row. Size and image rows go with it
// through ON DELETE CASCADE.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, db database.DBTX, id string) error {
	ct, err := db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// GetProduct retrieves the base product row by ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, db database.DBTX, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, category, created_at, updated_at
		FROM products
		WHERE id = $1`

	var p domain.Product
	err := db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// ListProducts returns base product rows matching the filter with the total count.
func (r *CatalogRepository) ListProducts(ctx context.Context, db database.DBTX, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() yields the unpaginated total in the same query.
	query := fmt.Sprintf(`
		SELECT id, name, description, price, category, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// UpsertSizes reconciles the size rows of a product against the submitted
// entries. Existing sizes keep their row (and therefore their ID and any
// stock movement history); sizes absent from the entries are deleted.
func (r *CatalogRepository) UpsertSizes(ctx context.Context, db database.DBTX, productID string, sizes []domain.SizeEntry) error {
	keep := make([]string, 0, len(sizes))

	for _, entry := range sizes {
		query := `
			INSERT INTO product_sizes (product_id, size, inventory, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (product_id, size)
			DO UPDATE SET inventory = EXCLUDED.inventory, updated_at = now()`

		if _, err := db.Exec(ctx, query, productID, entry.Size, entry.Inventory); err != nil {
			return fmt.Errorf("upsert size %q: %w", entry.Size, err)
		}
		keep = append(keep, entry.Size)
	}

	deleteQuery := `DELETE FROM product_sizes WHERE product_id = $1 AND NOT (size = ANY($2))`
	if _, err := db.Exec(ctx, deleteQuery, productID, keep); err != nil {
		return fmt.Errorf("prune sizes: %w", err)
	}

	return nil
}

// ListSizes returns the size rows of a product ordered by size.
func (r *CatalogRepository) ListSizes(ctx context.Context, db database.DBTX, productID string) ([]domain.SizeStock, error) {
	query := `
		SELECT id, product_id, size, inventory, updated_at
		FROM product_sizes
		WHERE product_id = $1
		ORDER BY size`

	rows, err := db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	defer rows.Close()

	return scanSizes(rows)
}

// ListSizesForProducts returns size rows for many products in one query,
// keyed by product ID.
func (r *CatalogRepository) ListSizesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.SizeStock, error) {
	result := make(map[string][]domain.SizeStock, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, product_id, size, inventory, updated_at
		FROM product_sizes
		WHERE product_id = ANY($1)
		ORDER BY product_id, size`

	rows, err := db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list sizes for products: %w", err)
	}
	defer rows.Close()

	sizes, err := scanSizes(rows)
	if err != nil {
		return nil, err
	}

	for _, s := range sizes {
		result[s.ProductID] = append(result[s.ProductID], s)
	}
	return result, nil
}

// InsertImage inserts a new image row.
func (r *CatalogRepository) InsertImage(ctx context.Context, db database.DBTX, img *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, path, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := db.Exec(ctx, query,
		img.ID,
		img.ProductID,
		img.Path,
		img.SortOrder,
		img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	return nil
}

// GetImage retrieves an image row by ID.
func (r *CatalogRepository) GetImage(ctx context.Context, db database.DBTX, id string) (*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, path, sort_order, created_at
		FROM product_images
		WHERE id = $1`

	var img domain.ProductImage
	err := db.QueryRow(ctx, query, id).Scan(
		&img.ID,
		&img.ProductID,
		&img.Path,
		&img.SortOrder,
		&img.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("image", id)
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}

	return &img, nil
}

// ListImages returns the image rows of a product in display order.
func (r *CatalogRepository) ListImages(ctx context.Context, db database.DBTX, productID string) ([]domain.ProductImage, error) {
	query := `
		SELECT id, product_id, path, sort_order, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY sort_order, created_at`

	rows, err := db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	return scanImages(rows)
}

// ListImagesForProducts returns image rows for many products in one query,
// keyed by product ID.
func (r *CatalogRepository) ListImagesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.ProductImage, error) {
	result := make(map[string][]domain.ProductImage, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, product_id, path, sort_order, created_at
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, sort_order, created_at`

	rows, err := db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list images for products: %w", err)
	}
	defer rows.Close()

	images, err := scanImages(rows)
	if err != nil {
		return nil, err
	}

	for _, img := range images {
		result[img.ProductID] = append(result[img.ProductID], img)
	}
	return result, nil
}

// CountImages returns the number of image rows for a product.
func (r *CatalogRepository) CountImages(ctx context.Context, db database.DBTX, productID string) (int, error) {
	var count int
	err := db.QueryRow(ctx, `SELECT count(*) FROM product_images WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// DeleteImage removes one image row by ID.
func (r *CatalogRepository) DeleteImage(ctx context.Context, db database.DBTX, id string) error {
	ct, err := db.Exec(ctx, `DELETE FROM product_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("image", id)
	}

	return nil
}

// DeleteImagesExcept removes all image rows of a product not listed in
// keep and returns the removed rows.
func (r *CatalogRepository) DeleteImagesExcept(ctx context.Context, db database.DBTX, productID string, keep []string) ([]domain.ProductImage, error) {
	if keep == nil {
		keep = []string{}
	}

	query := `
		DELETE FROM product_images
		WHERE product_id = $1 AND NOT (id = ANY($2))
		RETURNING id, product_id, path, sort_order, created_at`

	rows, err := db.Query(ctx, query, productID, keep)
	if err != nil {
		return nil, fmt.Errorf("delete images: %w", err)
	}
	defer rows.Close()

	return scanImages(rows)
}

func scanSizes(rows pgx.Rows) ([]domain.SizeStock, error) {
	var sizes []domain.SizeStock
	for rows.Next() {
		var s domain.SizeStock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Size, &s.Inventory, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan size row: %w", err)
		}
		sizes = append(sizes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate size rows: %w", err)
	}
	return sizes, nil
}

func scanImages(rows pgx.Rows) ([]domain.ProductImage, error) {
	var images []domain.ProductImage
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Path, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}
	return images, nil
}
