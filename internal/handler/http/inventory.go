package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retrosole/storefront/internal/service"
	apperrors "github.com/retrosole/storefront/pkg/errors"
	"github.com/retrosole/storefront/pkg/httputil"
	"github.com/retrosole/storefront/pkg/validator"
)

// InventoryHandler handles the admin inventory endpoints.
type InventoryHandler struct {
	inventory *service.InventoryService
	logger    *slog.Logger
}

// NewInventoryHandler creates a new inventory HTTP handler.
func NewInventoryHandler(inventory *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// AdjustStockRequest is the JSON body for a stock adjustment.
type AdjustStockRequest struct {
	Change int    `json:"change" validate:"required"`
	Reason string `json:"reason"`
}

// AdjustStock handles PATCH /api/v1/admin/inventory/{sizeID}/stock.
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	sizeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "sizeID"))
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	if err := validator.Validate(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	size, err := h.inventory.AdjustStock(r.Context(), sizeID.String(), req.Change, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, size)
}

// ListStock handles GET /api/v1/admin/inventory.
func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	filter := service.StockFilter{
		LowOnly: r.URL.Query().Get("low") == "true",
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter.Category = &category
	}

	levels, err := h.inventory.ListStock(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, levels)
}

// ListMovements handles GET /api/v1/admin/inventory/{sizeID}/movements.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	sizeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "sizeID"))
	if !ok {
		return
	}

	movements, err := h.inventory.ListMovements(r.Context(), sizeID.String(), queryInt(r, "limit", 50))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, movements)
}
