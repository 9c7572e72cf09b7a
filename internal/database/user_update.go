package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/bridgetrainer/internal/auth"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// ClaimUser turns a guest into a registered user, keeping its rating and attempts.
// u.Password is the new plain-text password.
func (s *Store) ClaimUser(ctx context.Context, u *models.User) error {
	hashed, err := auth.HashPassword(u.Password)
	if err != nil {
		return err
	}

	q := `UPDATE users SET username = $1, password = $2, is_ephemeral = false
	      WHERE id = $3 AND is_ephemeral`
	err = s.tx(ctx, func(tx pgx.Tx) error {
		tag, e := tx.Exec(ctx, q, u.Username, hashed, u.ID)
		if e != nil {
			return mapErr(e)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to claim user: %w", err)
	}
	u.Password = hashed
	u.IsEphemeral = false
	return nil
}

// SetAdmin grants or revokes admin rights.
func (s *Store) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET is_admin = $1 WHERE username = $2`, admin, username)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
