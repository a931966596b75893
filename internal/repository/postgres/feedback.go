package postgres

import (
	"context"
	"fmt"

	"github.com/retrosole/storefront/internal/domain"
	"github.com/retrosole/storefront/pkg/database"
	apperrors "github.com/retrosole/storefront/pkg/errors"
)

// FeedbackRepository implements repository.FeedbackRepository using PostgreSQL.
type FeedbackRepository struct{}

// NewFeedbackRepository creates a new PostgreSQL-backed feedback repository.
func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{}
}

// Insert inserts a new feedback row.
func (r *FeedbackRepository) Insert(ctx context.Context, db database.DBTX, f *domain.Feedback) error {
	query := `
		INSERT INTO feedback (id, name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := db.Exec(ctx, query,
		f.ID,
		f.Name,
		f.Rating,
		f.Comment,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	return nil
}

// Delete removes a feedback row.
func (r *FeedbackRepository) Delete(ctx context.Context, db database.DBTX, id string) error {
	tag, err := db.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("feedback", id)
	}

	return nil
}

// List returns feedback entries newest first with the total count.
func (r *FeedbackRepository) List(ctx context.Context, db database.DBTX, page, perPage int) ([]domain.Feedback, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, name, rating, comment, created_at,
			   count(*) OVER() AS total_count
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var (
		entries    []domain.Feedback
		totalCount int
	)

	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.Name, &f.Rating, &f.Comment, &f.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan feedback row: %w", err)
		}
		entries = append(entries, f)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate feedback rows: %w", err)
	}

	if entries == nil {
		entries = []domain.Feedback{}
	}

	return entries, totalCount, nil
}

// Summary returns the average rating and total count across all feedback.
func (r *FeedbackRepository) Summary(ctx context.Context, db database.DBTX) (*domain.FeedbackSummary, error) {
	query := `SELECT coalesce(avg(rating), 0), count(*) FROM feedback`

	var s domain.FeedbackSummary
	if err := db.QueryRow(ctx, query).Scan(&s.AverageRating, &s.TotalCount); err != nil {
		return nil, fmt.Errorf("feedback summary: %w", err)
	}

	return &s, nil
}
