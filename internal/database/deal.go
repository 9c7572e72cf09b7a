package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

const dealColumns = `id, n_hand, s_hand, w_hand, e_hand, dealer, auction, context,
	correct_answer, hidden_hands, notes, COALESCE(rating, 1200), created_at`

func scanDeal(row pgx.Row) (*models.Deal, error) {
	var d models.Deal
	err := row.Scan(
		&d.ID, &d.NorthHand, &d.SouthHand, &d.WestHand, &d.EastHand,
		&d.Dealer, &d.Auction, &d.Context,
		&d.CorrectAnswer, &d.HiddenHands, &d.Notes, &d.Rating, &d.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

// nonNil keeps empty arrays out of NOT NULL columns.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func insertDealTx(ctx context.Context, tx pgx.Tx, d *models.Deal) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	q := `
	INSERT INTO deals (id, n_hand, s_hand, w_hand, e_hand, dealer, auction, context,
	                   correct_answer, hidden_hands, notes, rating)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING created_at
	`
	err := tx.QueryRow(ctx, q,
		d.ID, nonNil(d.NorthHand), nonNil(d.SouthHand), nonNil(d.WestHand), nonNil(d.EastHand),
		d.Dealer, nonNil(d.Auction), d.Context,
		d.CorrectAnswer, d.HiddenHands, d.Notes, d.Rating,
	).Scan(&d.CreatedAt)
	return mapErr(err)
}

// InsertDeal stores a new deal, assigning an ID when it has none.
func (s *Store) InsertDeal(ctx context.Context, d *models.Deal) error {
	err := s.tx(ctx, func(tx pgx.Tx) error {
		return insertDealTx(ctx, tx, d)
	})
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}
	return nil
}

// InsertDeals stores all deals or none of them.
func (s *Store) InsertDeals(ctx context.Context, deals []*models.Deal) error {
	err := s.tx(ctx, func(tx pgx.Tx) error {
		for i, d := range deals {
			if err := insertDealTx(ctx, tx, d); err != nil {
				return fmt.Errorf("deal %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert deals: %w", err)
	}
	return nil
}

func (s *Store) GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	q := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	return scanDeal(s.Pool.QueryRow(ctx, q, id))
}

// ListDeals returns every deal, oldest first.
func (s *Store) ListDeals(ctx context.Context) ([]*models.Deal, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+dealColumns+` FROM deals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// RandomDeal picks a deal uniformly at random, avoiding exclude unless it is the only one.
func (s *Store) RandomDeal(ctx context.Context, exclude uuid.UUID) (*models.Deal, error) {
	q := `SELECT ` + dealColumns + ` FROM deals WHERE id <> $1 ORDER BY random() LIMIT 1`
	d, err := scanDeal(s.Pool.QueryRow(ctx, q, exclude))
	if errors.Is(err, ErrNotFound) && exclude != uuid.Nil {
		return s.GetDeal(ctx, exclude)
	}
	return d, err
}

// EditDeal locks the deal row, hands the current deal to edit and stores the
// result in the same transaction. An error from edit rolls back and is returned as is.
func (s *Store) EditDeal(ctx context.Context, id uuid.UUID, edit func(d *models.Deal) error) (*models.Deal, error) {
	var d *models.Deal
	err := s.tx(ctx, func(tx pgx.Tx) error {
		var err error
		q := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1 FOR UPDATE`
		if d, err = scanDeal(tx.QueryRow(ctx, q, id)); err != nil {
			return err
		}
		if err := edit(d); err != nil {
			return err
		}
		return updateDealTx(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func updateDealTx(ctx context.Context, tx pgx.Tx, d *models.Deal) error {
	q := `
	UPDATE deals
	SET n_hand = $2, s_hand = $3, w_hand = $4, e_hand = $5, dealer = $6, auction = $7,
	    context = $8, correct_answer = $9, hidden_hands = $10, notes = $11, rating = $12
	WHERE id = $1
	`
	tag, err := tx.Exec(ctx, q,
		d.ID, nonNil(d.NorthHand), nonNil(d.SouthHand), nonNil(d.WestHand), nonNil(d.EastHand),
		d.Dealer, nonNil(d.Auction), d.Context, d.CorrectAnswer, d.HiddenHands, d.Notes, d.Rating,
	)
	if err != nil {
		return fmt.Errorf("update deal %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllDeals removes every deal (and, by cascade, their attempts).
func (s *Store) DeleteAllDeals(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM deals`)
		n = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete deals: %w", err)
	}
	return n, nil
}
