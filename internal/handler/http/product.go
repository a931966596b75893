package http

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/service"
	apperrors "github.com/retrosole/storefront/pkg/errors"
	"github.com/retrosole/storefront/pkg/httputil"
)

// ProductHandler handles the admin product management endpoints.
type ProductHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new admin product HTTP handler.
func NewProductHandler(catalog *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// maxFormMemory bounds the in-memory portion of a multipart parse; the
// product form carries at most three images.
const maxFormMemory = int64(domain.MaxImagesPerProduct)*domain.MaxImageSize + (1 << 20)

// CreateProduct handles POST /api/v1/admin/products (multipart/form-data).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("failed to parse multipart form: "+err.Error()), h.logger)
		return
	}

	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	sizes, err := decodeSizeEntries(r.FormValue("sizeInventory"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	uploads, closers, err := formImages(r, "images")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer closeAll(closers)

	input := &service.CreateProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Sizes:       sizes,
		Images:      uploads,
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id} (multipart/form-data).
// The existing_images field lists the IDs of images to keep; images of
// the product not listed are removed.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("failed to parse multipart form: "+err.Error()), h.logger)
		return
	}

	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	sizes, err := decodeSizeEntries(r.FormValue("sizeInventory"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	keep, err := decodeKeepList(r.FormValue("existing_images"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	uploads, closers, err := formImages(r, "images")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer closeAll(closers)

	input := &service.UpdateProductInput{
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Price:        price,
		Category:     r.FormValue("category"),
		Sizes:        sizes,
		KeepImageIDs: keep,
		NewImages:    uploads,
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProduct handles GET /api/v1/admin/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
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

// ListProducts handles GET /api/v1/admin/products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeProductList(w, r, h.catalog, h.logger)
}

// RemoveImage handles DELETE /api/v1/admin/products/{id}/images/{imageID}.
func (h *ProductHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	imageID, ok := httputil.ParseUUID(w, chi.URLParam(r, "imageID"))
	if !ok {
		return
	}

	if err := h.catalog.RemoveImage(r.Context(), id.String(), imageID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- form decoding helpers ---

func parsePrice(raw string) (float64, error) {
	if raw == "" {
		return 0, apperrors.InvalidInput("price is required")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.InvalidInput("price must be a number")
	}
	return price, nil
}

// decodeSizeEntries accepts the sizeInventory form field either as a
// JSON array or as a JSON string wrapping that array, which is how
// browser form serializers tend to double-encode it.
func decodeSizeEntries(raw string) ([]domain.SizeEntry, error) {
	if raw == "" {
		return nil, apperrors.InvalidInput("sizeInventory is required")
	}

	data := []byte(raw)
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, apperrors.InvalidInput("sizeInventory is not valid JSON")
		}
		data = []byte(inner)
	}

	var entries []domain.SizeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.InvalidInput("sizeInventory must be an array of {size, inventory}")
	}

	return entries, nil
}

// decodeKeepList parses the existing_images field: a JSON array of image
// IDs, or empty for none.
func decodeKeepList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, apperrors.InvalidInput("existing_images must be an array of image ids")
	}
	return ids, nil
}

func formImages(r *http.Request, field string) ([]service.ImageUpload, []multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]service.ImageUpload, 0, len(headers))
	closers := make([]multipart.File, 0, len(headers))

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, apperrors.InvalidInput("failed to read uploaded file " + header.Filename)
		}
		closers = append(closers, file)

		uploads = append(uploads, service.ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		})
	}

	return uploads, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
