package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/bridgetrainer/internal/auth"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/rating"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const userColumns = `id, username, password, is_ephemeral, is_admin, COALESCE(rating, 1200), created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.IsEphemeral, &u.IsAdmin, &u.Rating, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateUser inserts user. A non-empty Password is replaced by its hash;
// ephemeral users are stored without one.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Rating == 0 {
		user.Rating = rating.InitialRating
	}
	if user.Password != "" {
		hash, err := auth.HashPassword(user.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash
	}

	q := `INSERT INTO users (id, username, password, is_ephemeral, is_admin, rating)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING created_at`

	err := s.tx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			user.ID, user.Username, user.Password,
			user.IsEphemeral, user.IsAdmin, user.Rating,
		).Scan(&user.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// AuthenticateUser returns the user when password matches.
func (s *Store) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.IsEphemeral || u.Password == "" {
		return nil, ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, u.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
