// internal/models/deal.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Deal is a stored card-play problem: four hands, the question and its answer.
// JSON keys follow the hands.json export format.
type Deal struct {
	ID uuid.UUID `json:"_id"`

	NorthHand []string `json:"n_hand"`
	SouthHand []string `json:"s_hand"`
	WestHand  []string `json:"w_hand"`
	EastHand  []string `json:"e_hand"`

	// Dealer is one of N, E, S, W, or empty when no auction is recorded.
	Dealer  string   `json:"dealer,omitempty"`
	Auction []string `json:"auction,omitempty"`

	Context       string `json:"context"`
	CorrectAnswer string `json:"correct_answer"`
	// HiddenHands lists the seats not shown to the solver, e.g. "EW".
	HiddenHands string `json:"hidden_hands"`
	Notes       string `json:"notes,omitempty"`

	// Rating is the deal's difficulty.
	Rating float64 `json:"elo"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DiagramHands returns the hands in diagram order: North, West, South, East.
func (d *Deal) DiagramHands() [][]string {
	return [][]string{d.NorthHand, d.WestHand, d.SouthHand, d.EastHand}
}
