// internal/bridge/card.go
package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// Suits in display order. A card code is a suit letter followed by a rank character, e.g. "SA", "H9".
const Suits = "SHDC"

// Ranks in strength order, ace high.
const Ranks = "AKQJT98765432"

var (
	ErrInvalidSeat = errors.New("seat must be one of N, E, S, W")
	ErrInvalidCard = errors.New("invalid card")
)

// Seat is one of the four bridge positions.
type Seat byte

const (
	NoSeat Seat = 0
	North  Seat = 'N'
	East   Seat = 'E'
	South  Seat = 'S'
	West   Seat = 'W'
)

// SeatOrder is the auction column order.
var SeatOrder = [4]Seat{North, East, South, West}

func (s Seat) String() string {
	if s == NoSeat {
		return ""
	}
	return string(s)
}

// Index returns the seat's column in SeatOrder, or -1.
func (s Seat) Index() int {
	for i, o := range SeatOrder {
		if o == s {
			return i
		}
	}
	return -1
}

// ParseSeat accepts N/E/S/W in either case, or the full seat name. An empty string yields NoSeat.
func ParseSeat(s string) (Seat, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return NoSeat, nil
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return NoSeat, fmt.Errorf("%w: %q", ErrInvalidSeat, s)
}

// SeatSet is a set of seats, used for the hands hidden from the solver.
type SeatSet uint8

func seatBit(s Seat) SeatSet {
	if i := s.Index(); i >= 0 {
		return 1 << uint(i)
	}
	return 0
}

// ParseSeatSet parses a string of seat letters such as "EW" or "nse".
// Whitespace is ignored and repeated letters collapse.
func ParseSeatSet(s string) (SeatSet, error) {
	var set SeatSet
	for _, r := range strings.ToUpper(s) {
		if r == ' ' || r == '\t' || r == ',' {
			continue
		}
		bit := seatBit(Seat(r))
		if r > 0x7f || bit == 0 {
			return 0, fmt.Errorf("%w: hidden hands can include only the letters NSEW, got %q", ErrInvalidSeat, s)
		}
		set |= bit
	}
	return set, nil
}

// NewSeatSet builds a set from the given seats.
func NewSeatSet(seats ...Seat) SeatSet {
	var set SeatSet
	for _, s := range seats {
		set |= seatBit(s)
	}
	return set
}

func (ss SeatSet) Has(s Seat) bool {
	bit := seatBit(s)
	return bit != 0 && ss&bit != 0
}

// String returns the seats in N, E, S, W order.
func (ss SeatSet) String() string {
	var b strings.Builder
	for _, s := range SeatOrder {
		if ss.Has(s) {
			b.WriteByte(byte(s))
		}
	}
	return b.String()
}

// IsRank reports whether r is one of the 13 rank characters.
func IsRank(r byte) bool {
	return strings.IndexByte(Ranks, r) >= 0
}

// ParseCard normalises a two-character card code ("sa" -> "SA", "H10" -> "HT").
func ParseCard(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) == 3 && c[1:] == "10" {
		c = c[:1] + "T"
	}
	if len(c) != 2 || strings.IndexByte(Suits, c[0]) < 0 || !IsRank(c[1]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCard, code)
	}
	return c, nil
}
