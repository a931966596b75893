package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrosole/storefront/internal/cache"
	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// --- Mock CatalogRepository ---

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) InsertProduct(ctx context.Context, db database.DBTX, p *domain.Product) error {
	return m.Called(ctx, db, p).Error(0)
}

func (m *mockCatalogRepo) UpdateProduct(ctx context.Context, db database.DBTX, p *domain.Product) error {
	return m.Called(ctx, db, p).Error(0)
}

func (m *mockCatalogRepo) DeleteProduct(ctx context.Context, db database.DBTX, id string) error {
	return m.Called(ctx, db, id).Error(0)
}

func (m *mockCatalogRepo) GetProduct(ctx context.Context, db database.DBTX, id string) (*domain.Product, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalogRepo) ListProducts(ctx context.Context, db database.DBTX, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockCatalogRepo) UpsertSizes(ctx context.Context, db database.DBTX, productID string, sizes []domain.SizeEntry) error {
	return m.Called(ctx, db, productID, sizes).Error(0)
}

func (m *mockCatalogRepo) ListSizes(ctx context.Context, db database.DBTX, productID string) ([]domain.SizeStock, error) {
	args := m.Called(ctx, db, productID)
	return args.Get(0).([]domain.SizeStock), args.Error(1)
}

func (m *mockCatalogRepo) ListSizesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.SizeStock, error) {
	args := m.Called(ctx, db, productIDs)
	return args.Get(0).(map[string][]domain.SizeStock), args.Error(1)
}

func (m *mockCatalogRepo) InsertImage(ctx context.Context, db database.DBTX, img *domain.ProductImage) error {
	return m.Called(ctx, db, img).Error(0)
}

func (m *mockCatalogRepo) GetImage(ctx context.Context, db database.DBTX, id string) (*domain.ProductImage, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductImage), args.Error(1)
}

func (m *mockCatalogRepo) ListImages(ctx context.Context, db database.DBTX, productID string) ([]domain.ProductImage, error) {
	args := m.Called(ctx, db, productID)
	return args.Get(0).([]domain.ProductImage), args.Error(1)
}

func (m *mockCatalogRepo) ListImagesForProducts(ctx context.Context, db database.DBTX, productIDs []string) (map[string][]domain.ProductImage, error) {
	args := m.Called(ctx, db, productIDs)
	return args.Get(0).(map[string][]domain.ProductImage), args.Error(1)
}

func (m *mockCatalogRepo) CountImages(ctx context.Context, db database.DBTX, productID string) (int, error) {
	args := m.Called(ctx, db, productID)
	return args.Int(0), args.Error(1)
}

func (m *mockCatalogRepo) DeleteImage(ctx context.Context, db database.DBTX, id string) error {
	return m.Called(ctx, db, id).Error(0)
}

func (m *mockCatalogRepo) DeleteImagesExcept(ctx context.Context, db database.DBTX, productID string, keep []string) ([]domain.ProductImage, error) {
	args := m.Called(ctx, db, productID, keep)
	return args.Get(0).([]domain.ProductImage), args.Error(1)
}

// --- Mock InventoryRepository ---

type mockInventoryRepo struct {
	mock.Mock
}

func (m *mockInventoryRepo) GetSizeForUpdate(ctx context.Context, db database.DBTX, sizeID string) (*domain.SizeStock, error) {
	args := m.Called(ctx, db, sizeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SizeStock), args.Error(1)
}

func (m *mockInventoryRepo) UpdateInventory(ctx context.Context, db database.DBTX, sizeID string, inventory int) error {
	return m.Called(ctx, db, sizeID, inventory).Error(0)
}

func (m *mockInventoryRepo) InsertMovement(ctx context.Context, db database.DBTX, movement *domain.StockMovement) error {
	return m.Called(ctx, db, movement).Error(0)
}

func (m *mockInventoryRepo) ListStockLevels(ctx context.Context, db database.DBTX, filter repository.StockFilter) ([]domain.StockLevel, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).([]domain.StockLevel), args.Error(1)
}

func (m *mockInventoryRepo) ListMovements(ctx context.Context, db database.DBTX, sizeID string, limit int) ([]domain.StockMovement, error) {
	args := m.Called(ctx, db, sizeID, limit)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

// --- Mock FeedbackRepository ---

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Insert(ctx context.Context, db database.DBTX, f *domain.Feedback) error {
	return m.Called(ctx, db, f).Error(0)
}

func (m *mockFeedbackRepo) Delete(ctx context.Context, db database.DBTX, id string) error {
	return m.Called(ctx, db, id).Error(0)
}

func (m *mockFeedbackRepo) List(ctx context.Context, db database.DBTX, page, perPage int) ([]domain.Feedback, int, error) {
	args := m.Called(ctx, db, page, perPage)
	return args.Get(0).([]domain.Feedback), args.Int(1), args.Error(2)
}

func (m *mockFeedbackRepo) Summary(ctx context.Context, db database.DBTX) (*domain.FeedbackSummary, error) {
	args := m.Called(ctx, db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedbackSummary), args.Error(1)
}

// --- Fake event recorder ---

type fakeEvents struct {
	mu        sync.Mutex
	created   []string
	updated   []string
	deleted   []string
	adjusted  []int
	lowStock  []string
	feedbacks []string
	fail      bool
}

func (f *fakeEvents) ProductCreated(_ context.Context, p *domain.Product) error {
	return f.record(&f.created, p.ID)
}

func (f *fakeEvents) ProductUpdated(_ context.Context, p *domain.Product) error {
	return f.record(&f.updated, p.ID)
}

func (f *fakeEvents) ProductDeleted(_ context.Context, p *domain.Product) error {
	return f.record(&f.deleted, p.ID)
}

func (f *fakeEvents) StockAdjusted(_ context.Context, size *domain.SizeStock, change int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("brokers unreachable")
	}
	f.adjusted = append(f.adjusted, change)
	return nil
}

func (f *fakeEvents) LowStock(_ context.Context, size *domain.SizeStock) error {
	return f.record(&f.lowStock, size.ID)
}

func (f *fakeEvents) FeedbackSubmitted(_ context.Context, fb *domain.Feedback) error {
	return f.record(&f.feedbacks, fb.ID)
}

func (f *fakeEvents) record(dst *[]string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("brokers unreachable")
	}
	*dst = append(*dst, id)
	return nil
}

// --- Fake listing cache ---

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*cache.ProductList
	invalidated int
	getErr      error
	setErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*cache.ProductList{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (*cache.ProductList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, list *cache.ProductList) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = list
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.entries = map[string]*cache.ProductList{}
	return nil
}
