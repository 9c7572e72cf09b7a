package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`

	IsEphemeral bool `json:"is_ephemeral"`
	IsAdmin     bool `json:"is_admin"`

	// Rating is the user's solving strength on the same scale as Deal.Rating.
	Rating float64 `json:"elo"`

	CreatedAt time.Time `json:"created_at"`
}
