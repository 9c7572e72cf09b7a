package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// InsertAttempts writes a batch of attempts in one transaction.
// Attempts already stored are skipped, so redelivered events are harmless.
func (s *Store) InsertAttempts(ctx context.Context, attempts []models.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}
	q := `
	INSERT INTO attempts (id, user_id, deal_id, answer, correct,
	                      user_rating_before, user_rating_after,
	                      deal_rating_before, deal_rating_after, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
	`
	return s.tx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range attempts {
			batch.Queue(q,
				a.ID, a.UserID, a.DealID, a.Answer, a.Correct,
				a.UserRating.Before, a.UserRating.After,
				a.DealRating.Before, a.DealRating.After, a.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %d attempts: %w", len(attempts), err)
		}
		return nil
	})
}

// PublishAttempt stores a single attempt directly. The server uses it when no queue is configured.
func (s *Store) PublishAttempt(ctx context.Context, a models.Attempt) error {
	return s.InsertAttempts(ctx, []models.Attempt{a})
}

// ListAttempts returns the user's most recent attempts, newest first.
func (s *Store) ListAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]models.Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
	SELECT id, user_id, deal_id, answer, correct,
	       user_rating_before, user_rating_after,
	       deal_rating_before, deal_rating_after, created_at
	FROM attempts
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := s.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []models.Attempt
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.DealID, &a.Answer, &a.Correct,
			&a.UserRating.Before, &a.UserRating.After,
			&a.DealRating.Before, &a.DealRating.After, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
