package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/service"
	apperrors "github.com/retrosole/storefront/pkg/errors"
	"github.com/retrosole/storefront/pkg/httputil"
)

// ShopHandler handles the public storefront endpoints.
type ShopHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(catalog *service.CatalogService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		catalog: catalog,
		logger:  logger,
	}
}

type listResponse struct {
	Products   []domain.Product `json:"products"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// ListProducts handles GET /api/v1/shop/products.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeProductList(w, r, h.catalog, h.logger)
}

// GetProduct handles GET /api/v1/shop/products/{id}.
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// writeProductList serves a filtered, paginated product listing. Shop
// and admin listings share the same shape.
func writeProductList(w http.ResponseWriter, r *http.Request, catalog *service.CatalogService, logger *slog.Logger) {
	filter := service.ProductFilter{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
	}

	if category := r.URL.Query().Get("category"); category != "" {
		if !domain.IsValidCategory(category) {
			httputil.WriteError(w, r, apperrors.InvalidInput("unknown category "+category), logger)
			return
		}
		filter.Category = &category
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = &search
	}

	products, total, err := catalog.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, logger)
		return
	}

	totalPages := 0
	if filter.PerPage > 0 {
		totalPages = (total + filter.PerPage - 1) / filter.PerPage
	}

	httputil.WriteData(w, http.StatusOK, listResponse{
		Products:   products,
		TotalCount: total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
