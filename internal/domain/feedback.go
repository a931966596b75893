package domain

import (
	"time"
)

// Feedback is a shopper-submitted rating with an optional comment.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackSummary contains aggregate statistics over all feedback.
type FeedbackSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}
