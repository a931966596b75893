package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/retrosole/storefront/internal/cache"
	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/internal/storage"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// CatalogEvents publishes catalog domain events.
type CatalogEvents interface {
	ProductCreated(ctx context.Context, product *domain.Product) error
	ProductUpdated(ctx context.Context, product *domain.Product) error
	ProductDeleted(ctx context.Context, product *domain.Product) error
}

// ListingCache caches shop listing pages.
type ListingCache interface {
	Get(ctx context.Context, key string) (*cache.ProductList, error)
	Set(ctx context.Context, key string, list *cache.ProductList) error
	Invalidate(ctx context.Context) error
}

// CatalogService implements product, size, and image management. Every
// mutation keeps the three tables and the blob store consistent: rows
// change inside one transaction, and blob writes are ordered so a
// failure can only leave an orphaned blob, never a product row that
// references a missing file.
type CatalogService struct {
	pool    database.Pool
	repo    repository.CatalogRepository
	storage storage.Storage
	events  CatalogEvents
	cache   ListingCache
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	pool database.Pool,
	repo repository.CatalogRepository,
	store storage.Storage,
	events CatalogEvents,
	listingCache ListingCache,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		pool:    pool,
		repo:    repo,
		storage: store,
		events:  events,
		cache:   listingCache,
		logger:  logger,
	}
}

// ImageUpload holds one image file submitted with a product form.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Sizes       []domain.SizeEntry
	Images      []ImageUpload
}

// UpdateProductInput holds the parameters for updating a product.
// KeepImageIDs lists the existing images to retain; any image of the
// product not listed is removed together with its blob.
type UpdateProductInput struct {
	Name         string
	Description  string
	Price        float64
	Category     string
	Sizes        []domain.SizeEntry
	KeepImageIDs []string
	NewImages    []ImageUpload
}

// ProductFilter re-exports the repository filter for handlers.
type ProductFilter = repository.ProductFilter

// CreateProduct stores the image blobs, then creates the product, size,
// and image rows in one transaction. If the transaction fails the
// written blobs are removed best-effort; a leftover blob is harmless
// because nothing references it.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if err := validateProductFields(input.Name, input.Price, input.Category, input.Sizes); err != nil {
		return nil, err
	}
	if err := validateImageCount(len(input.Images)); err != nil {
		return nil, err
	}

	productID := uuid.New().String()
	now := time.Now().UTC()

	images, err := s.storeImages(ctx, productID, input.Images, 0)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          productID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.InsertProduct(ctx, tx, product); err != nil {
			return err
		}
		if err := s.repo.UpsertSizes(ctx, tx, productID, input.Sizes); err != nil {
			return err
		}
		for i := range images {
			if err := s.repo.InsertImage(ctx, tx, &images[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeBlobs(ctx, images)
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterCatalogChange(ctx)
	if err := s.events.ProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_created event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", productID),
		slog.String("name", product.Name),
		slog.Int("sizes", len(input.Sizes)),
		slog.Int("images", len(images)),
	)

	return s.GetProduct(ctx, productID)
}

// UpdateProduct rewrites a product. New blobs are stored before the
// transaction; superseded blobs are deleted only after commit, so a
// failure at any point never leaves an image row without its file.
// Size rows named in the input keep their identity so their stock
// movement history survives the edit.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, input *UpdateProductInput) (*domain.Product, error) {
	if err := validateProductFields(input.Name, input.Price, input.Category, input.Sizes); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, s.pool, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListImages(ctx, s.pool, productID)
	if err != nil {
		return nil, err
	}

	existingByID := make(map[string]domain.ProductImage, len(existing))
	for _, img := range existing {
		existingByID[img.ID] = img
	}

	// New images sort after the highest surviving sort_order so the kept
	// cover image stays first.
	nextOrder := 0
	for _, id := range input.KeepImageIDs {
		img, ok := existingByID[id]
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("image %s does not belong to this product", id))
		}
		if img.SortOrder >= nextOrder {
			nextOrder = img.SortOrder + 1
		}
	}

	if err := validateImageCount(len(input.KeepImageIDs) + len(input.NewImages)); err != nil {
		return nil, err
	}

	newImages, err := s.storeImages(ctx, productID, input.NewImages, nextOrder)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Category = input.Category

	var removed []domain.ProductImage
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.UpdateProduct(ctx, tx, product); err != nil {
			return err
		}
		if err := s.repo.UpsertSizes(ctx, tx, productID, input.Sizes); err != nil {
			return err
		}
		removed, err = s.repo.DeleteImagesExcept(ctx, tx, productID, input.KeepImageIDs)
		if err != nil {
			return err
		}
		for i := range newImages {
			if err := s.repo.InsertImage(ctx, tx, &newImages[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeBlobs(ctx, newImages)
		return nil, fmt.Errorf("update product: %w", err)
	}

	// Superseded blobs go only after the commit that unreferenced them.
	s.removeBlobs(ctx, removed)

	s.afterCatalogChange(ctx)
	if err := s.events.ProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_updated event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", productID),
		slog.Int("images_removed", len(removed)),
		slog.Int("images_added", len(newImages)),
	)

	return s.GetProduct(ctx, productID)
}

// DeleteProduct removes the product row (sizes and images cascade) and
// then deletes the blobs. Blob deletion failures are logged, not
// returned: once the row is gone the files are unreachable orphans.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.repo.GetProduct(ctx, s.pool, productID)
	if err != nil {
		return err
	}

	images, err := s.repo.ListImages(ctx, s.pool, productID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, s.pool, productID); err != nil {
		return err
	}

	s.removeBlobs(ctx, images)

	s.afterCatalogChange(ctx)
	if err := s.events.ProductDeleted(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_deleted event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", productID),
		slog.Int("images", len(images)),
	)

	return nil
}

// RemoveImage deletes one image of a product: row first, blob after.
func (s *CatalogService) RemoveImage(ctx context.Context, productID, imageID string) error {
	img, err := s.repo.GetImage(ctx, s.pool, imageID)
	if err != nil {
		return err
	}
	if img.ProductID != productID {
		return apperrors.NotFound("image", imageID)
	}

	if err := s.repo.DeleteImage(ctx, s.pool, imageID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, img.Path); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete image blob",
			slog.String("image_id", imageID),
			slog.String("path", img.Path),
			slog.String("error", err.Error()),
		)
	}

	s.afterCatalogChange(ctx)

	s.logger.InfoContext(ctx, "product image removed",
		slog.String("product_id", productID),
		slog.String("image_id", imageID),
	)

	return nil
}

// GetProduct returns a product with its sizes and images.
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, s.pool, productID)
	if err != nil {
		return nil, err
	}

	if err := s.populate(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// ListProducts returns a page of products with sizes and images. Shop
// pages are served from the listing cache when possible; the cache is
// dropped wholesale on any catalog mutation.
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error) {
	key := cacheKey(filter)

	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "listing cache read failed", slog.String("error", err.Error()))
	} else if cached != nil {
		return cached.Products, cached.Total, nil
	}

	products, total, err := s.repo.ListProducts(ctx, s.pool, filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	sizes, err := s.repo.ListSizesForProducts(ctx, s.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	images, err := s.repo.ListImagesForProducts(ctx, s.pool, ids)
	if err != nil {
		return nil, 0, err
	}

	for i := range products {
		products[i].Sizes = orEmptySizes(sizes[products[i].ID])
		products[i].Images = s.withURLs(images[products[i].ID])
	}

	if err := s.cache.Set(ctx, key, &cache.ProductList{Products: products, Total: total}); err != nil {
		s.logger.WarnContext(ctx, "listing cache write failed", slog.String("error", err.Error()))
	}

	return products, total, nil
}

// storeImages validates and writes the upload blobs, returning the image
// rows to insert. A failed write removes the blobs already written.
func (s *CatalogService) storeImages(ctx context.Context, productID string, uploads []ImageUpload, sortOffset int) ([]domain.ProductImage, error) {
	images := make([]domain.ProductImage, 0, len(uploads))

	for i, up := range uploads {
		if !domain.IsAllowedImageType(up.ContentType) {
			s.removeBlobs(ctx, images)
			return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", up.ContentType))
		}
		if up.Size <= 0 || up.Size > domain.MaxImageSize {
			s.removeBlobs(ctx, images)
			return nil, apperrors.InvalidInput(fmt.Sprintf("image %q exceeds the %d byte limit", up.FileName, domain.MaxImageSize))
		}

		imageID := uuid.New().String()
		key := path.Join("products", productID, imageID+domain.AllowedImageTypes[up.ContentType])

		if _, err := s.storage.Put(ctx, &storage.PutInput{
			Key:         key,
			ContentType: up.ContentType,
			Size:        up.Size,
			Data:        up.Data,
		}); err != nil {
			s.removeBlobs(ctx, images)
			return nil, apperrors.Storage(fmt.Errorf("store image %q: %w", up.FileName, err))
		}

		images = append(images, domain.ProductImage{
			ID:        imageID,
			ProductID: productID,
			Path:      key,
			SortOrder: sortOffset + i,
			CreatedAt: time.Now().UTC(),
		})
	}

	return images, nil
}

// removeBlobs deletes image blobs best-effort, logging failures.
func (s *CatalogService) removeBlobs(ctx context.Context, images []domain.ProductImage) {
	for _, img := range images {
		if err := s.storage.Delete(ctx, img.Path); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete image blob",
				slog.String("path", img.Path),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *CatalogService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *CatalogService) populate(ctx context.Context, product *domain.Product) error {
	sizes, err := s.repo.ListSizes(ctx, s.pool, product.ID)
	if err != nil {
		return err
	}
	images, err := s.repo.ListImages(ctx, s.pool, product.ID)
	if err != nil {
		return err
	}

	product.Sizes = orEmptySizes(sizes)
	product.Images = s.withURLs(images)
	return nil
}

func (s *CatalogService) withURLs(images []domain.ProductImage) []domain.ProductImage {
	if images == nil {
		return []domain.ProductImage{}
	}
	for i := range images {
		images[i].URL = s.storage.URL(images[i].Path)
	}
	return images
}

// afterCatalogChange drops the listing cache. Failures are logged only;
// a stale page expires on its own TTL.
func (s *CatalogService) afterCatalogChange(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidation failed", slog.String("error", err.Error()))
	}
}

func cacheKey(filter ProductFilter) string {
	category, search := "", ""
	if filter.Category != nil {
		category = *filter.Category
	}
	if filter.Search != nil {
		search = *filter.Search
	}
	return cache.Key(category, search, filter.Page, filter.PerPage)
}

func orEmptySizes(sizes []domain.SizeStock) []domain.SizeStock {
	if sizes == nil {
		return []domain.SizeStock{}
	}
	return sizes
}

func validateProductFields(name string, price float64, category string, sizes []domain.SizeEntry) error {
	if name == "" {
		return apperrors.InvalidInput("name is required")
	}
	if price < 0 {
		return apperrors.InvalidInput("price cannot be negative")
	}
	if !domain.IsValidCategory(category) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid category %q", category))
	}
	if len(sizes) == 0 {
		return apperrors.InvalidInput("at least one size is required")
	}

	seen := make(map[string]struct{}, len(sizes))
	for _, entry := range sizes {
		if entry.Size == "" {
			return apperrors.InvalidInput("size label cannot be empty")
		}
		if entry.Inventory < 0 {
			return apperrors.InvalidInput(fmt.Sprintf("inventory for size %q cannot be negative", entry.Size))
		}
		if _, dup := seen[entry.Size]; dup {
			return apperrors.InvalidInput(fmt.Sprintf("duplicate size %q", entry.Size))
		}
		seen[entry.Size] = struct{}{}
	}

	return nil
}

func validateImageCount(count int) error {
	if count > domain.MaxImagesPerProduct {
		return apperrors.InvalidInput(fmt.Sprintf("a product can have at most %d images", domain.MaxImagesPerProduct))
	}
	return nil
}
