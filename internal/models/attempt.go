package models

import (
	"time"

	"github.com/google/uuid"
)

// RatingChange is a before/after pair produced by one rating update.
type RatingChange struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// Attempt records one answered problem. Attempts form the rating event log;
// the historian persists them from the attempt queue.
type Attempt struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	DealID     uuid.UUID    `json:"deal_id"`
	Answer     string       `json:"answer"`
	Correct    bool         `json:"correct"`
	UserRating RatingChange `json:"user_rating"`
	DealRating RatingChange `json:"deal_rating"`
	CreatedAt  time.Time    `json:"created_at"`
}
