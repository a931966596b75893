package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/internal/repository"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// MaxCommentLength caps feedback comments.
const MaxCommentLength = 1000

// FeedbackEvents publishes feedback domain events.
type FeedbackEvents interface {
	FeedbackSubmitted(ctx context.Context, feedback *domain.Feedback) error
}

// FeedbackService implements shopper feedback collection.
type FeedbackService struct {
	pool   database.Pool
	repo   repository.FeedbackRepository
	events FeedbackEvents
	logger *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	pool database.Pool,
	repo repository.FeedbackRepository,
	events FeedbackEvents,
	logger *slog.Logger,
) *FeedbackService {
	return &FeedbackService{
		pool:   pool,
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// SubmitFeedbackInput holds the parameters for submitting feedback.
type SubmitFeedbackInput struct {
	Name    string
	Rating  int
	Comment string
}

// SubmitFeedback validates and stores one feedback entry.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, input *SubmitFeedbackInput) (*domain.Feedback, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if len(input.Comment) > MaxCommentLength {
		return nil, apperrors.InvalidInput("comment is too long")
	}

	feedback := &domain.Feedback{
		ID:        uuid.New().String(),
		Name:      name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.pool, feedback); err != nil {
		return nil, err
	}

	if err := s.events.FeedbackSubmitted(ctx, feedback); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish feedback event",
			slog.String("feedback_id", feedback.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "feedback submitted",
		slog.String("feedback_id", feedback.ID),
		slog.Int("rating", feedback.Rating),
	)

	return feedback, nil
}

// DeleteFeedback removes one feedback entry.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, s.pool, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "feedback deleted", slog.String("feedback_id", id))
	return nil
}

// ListFeedback returns feedback entries newest first with the total count.
func (s *FeedbackService) ListFeedback(ctx context.Context, page, perPage int) ([]domain.Feedback, int, error) {
	return s.repo.List(ctx, s.pool, page, perPage)
}

// FeedbackSummary returns the aggregate rating statistics.
func (s *FeedbackService) FeedbackSummary(ctx context.Context) (*domain.FeedbackSummary, error) {
	return s.repo.Summary(ctx, s.pool)
}
