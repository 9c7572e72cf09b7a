package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           uuid PRIMARY KEY,
		username     text NOT NULL UNIQUE,
		password     text NOT NULL DEFAULT '',
		is_ephemeral boolean NOT NULL DEFAULT false,
		is_admin     boolean NOT NULL DEFAULT false,
		rating       double precision DEFAULT 1200,
		created_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id             uuid PRIMARY KEY,
		n_hand         text[] NOT NULL,
		s_hand         text[] NOT NULL,
		w_hand         text[] NOT NULL,
		e_hand         text[] NOT NULL,
		dealer         text NOT NULL DEFAULT '',
		auction        text[] NOT NULL DEFAULT '{}',
		context        text NOT NULL DEFAULT '',
		correct_answer text NOT NULL,
		hidden_hands   text NOT NULL DEFAULT '',
		notes          text NOT NULL DEFAULT '',
		rating         double precision DEFAULT 1200,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id                 uuid PRIMARY KEY,
		user_id            uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		deal_id            uuid NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		answer             text NOT NULL,
		correct            boolean NOT NULL,
		user_rating_before double precision NOT NULL,
		user_rating_after  double precision NOT NULL,
		deal_rating_before double precision NOT NULL,
		deal_rating_after  double precision NOT NULL,
		created_at         timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_user_created_idx ON attempts (user_id, created_at DESC)`,
}

// EnsureSchema creates any missing tables. It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
