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

// FeedbackHandler handles the shopper feedback endpoints.
type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewFeedbackHandler creates a new feedback HTTP handler.
func NewFeedbackHandler(feedback *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		logger:   logger,
	}
}

// SubmitFeedbackRequest is the JSON body for submitting feedback.
type SubmitFeedbackRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// SubmitFeedback handles POST /api/v1/feedback.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	if err := validator.Validate(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	feedback, err := h.feedback.SubmitFeedback(r.Context(), &service.SubmitFeedbackInput{
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, feedback)
}

// DeleteFeedback handles DELETE /api/v1/admin/feedback/{id}.
func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.feedback.DeleteFeedback(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFeedback handles GET /api/v1/feedback.
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, total, err := h.feedback.ListFeedback(r.Context(), queryInt(r, "page", 1), queryInt(r, "per_page", 20))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]any{
		"feedback":    entries,
		"total_count": total,
	})
}

// FeedbackSummary handles GET /api/v1/feedback/summary.
func (h *FeedbackHandler) FeedbackSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feedback.FeedbackSummary(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}
