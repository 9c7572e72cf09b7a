// internal/bridge/hand.go
package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// HandSize is the number of cards held by each seat.
const HandSize = 13

var (
	ErrSuitCount     = errors.New("hand cannot be parsed into 4 suits")
	ErrCardCount     = errors.New("hand cannot be parsed into 13 cards")
	ErrDuplicateCard = errors.New("duplicate card")
)

// ParseHand parses a suit-grouped hand such as "AKJ QJT9 752 9842" (spades, hearts,
// diamonds, clubs) into card codes ["SA", "SK", "SJ", "HQ", ...].
//
// Groups are separated by single spaces; an empty group or "-" is a void. "10" may be
// written for the ten.
func ParseHand(s string) ([]string, error) {
	groups := strings.Split(strings.TrimSpace(s), " ")
	if len(groups) != len(Suits) {
		return nil, fmt.Errorf("%w: got %d groups in %q", ErrSuitCount, len(groups), s)
	}

	cards := make([]string, 0, HandSize)
	seen := make(map[string]bool, HandSize)
	for i, group := range groups {
		if group == "-" {
			continue
		}
		group = strings.ReplaceAll(strings.ToUpper(group), "10", "T")
		for j := 0; j < len(group); j++ {
			if !IsRank(group[j]) {
				return nil, fmt.Errorf("%w: rank %q in suit %c", ErrInvalidCard, group[j], Suits[i])
			}
			card := string([]byte{Suits[i], group[j]})
			if seen[card] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, card)
			}
			seen[card] = true
			cards = append(cards, card)
		}
	}

	if len(cards) != HandSize {
		return nil, fmt.Errorf("%w: got %d", ErrCardCount, len(cards))
	}
	return cards, nil
}

// FormatHand is the inverse of ParseHand: it groups card codes by suit in rank order.
// Unknown codes are skipped.
func FormatHand(cards []string) string {
	groups := make([]string, len(Suits))
	for i := range Suits {
		var b strings.Builder
		for j := 0; j < len(Ranks); j++ {
			code := string([]byte{Suits[i], Ranks[j]})
			for _, c := range cards {
				if c == code {
					b.WriteByte(Ranks[j])
					break
				}
			}
		}
		groups[i] = b.String()
		if groups[i] == "" {
			groups[i] = "-"
		}
	}
	return strings.Join(groups, " ")
}

// ValidateHand checks a list of card codes holds exactly 13 distinct valid cards.
func ValidateHand(cards []string) error {
	if len(cards) != HandSize {
		return fmt.Errorf("%w: got %d", ErrCardCount, len(cards))
	}
	seen := make(map[string]bool, HandSize)
	for _, c := range cards {
		norm, err := ParseCard(c)
		if err != nil {
			return err
		}
		if seen[norm] {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, norm)
		}
		seen[norm] = true
	}
	return nil
}

// ValidateDeal checks that four hands, given in N, E, S, W order, each hold 13 cards
// and together partition the deck.
func ValidateDeal(hands [4][]string) error {
	seen := make(map[string]Seat, 52)
	for i, hand := range hands {
		seat := SeatOrder[i]
		if err := ValidateHand(hand); err != nil {
			return fmt.Errorf("%s hand: %w", seat, err)
		}
		for _, c := range hand {
			norm, _ := ParseCard(c)
			if other, ok := seen[norm]; ok {
				return fmt.Errorf("%w: %s held by %s and %s", ErrDuplicateCard, norm, other, seat)
			}
			seen[norm] = seat
		}
	}
	return nil
}
