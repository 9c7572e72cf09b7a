package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/rating"
)

// UpdateRatings locks the user and deal rows, passes their current ratings to fn
// and stores what it returns, all in one transaction.
func (s *Store) UpdateRatings(ctx context.Context, userID, dealID uuid.UUID, fn func(userRating, dealRating float64) (float64, float64)) (user, deal models.RatingChange, err error) {
	err = s.tx(ctx, func(tx pgx.Tx) error {
		if e := tx.QueryRow(ctx,
			`SELECT COALESCE(rating, $2) FROM users WHERE id = $1 FOR UPDATE`, userID, rating.InitialRating,
		).Scan(&user.Before); e != nil {
			return fmt.Errorf("lock user %s: %w", userID, mapErr(e))
		}
		if e := tx.QueryRow(ctx,
			`SELECT COALESCE(rating, $2) FROM deals WHERE id = $1 FOR UPDATE`, dealID, rating.InitialRating,
		).Scan(&deal.Before); e != nil {
			return fmt.Errorf("lock deal %s: %w", dealID, mapErr(e))
		}

		user.After, deal.After = fn(user.Before, deal.Before)

		if _, e := tx.Exec(ctx, `UPDATE users SET rating = $1 WHERE id = $2`, user.After, userID); e != nil {
			return e
		}
		_, e := tx.Exec(ctx, `UPDATE deals SET rating = $1 WHERE id = $2`, deal.After, dealID)
		return e
	})
	if err != nil {
		return models.RatingChange{}, models.RatingChange{}, fmt.Errorf("failed to update ratings: %w", err)
	}
	return user, deal, nil
}

// BackfillRatings gives every deal and user without a rating the initial one.
// It returns how many deals were changed.
func (s *Store) BackfillRatings(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE deals SET rating = $1 WHERE rating IS NULL`, rating.InitialRating)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		_, err = tx.Exec(ctx, `UPDATE users SET rating = $1 WHERE rating IS NULL`, rating.InitialRating)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("backfill ratings: %w", err)
	}
	return n, nil
}
