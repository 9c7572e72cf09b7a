// internal/render/hand.go
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
	"github.com/mattn/go-runewidth"
)

var (
	// ErrUnknownRank is returned when a card's rank has no sort key.
	ErrUnknownRank = errors.New("unknown rank")
	// ErrInvalidSeatCount is returned when a diagram is not given exactly four hands.
	ErrInvalidSeatCount = errors.New("exactly 4 hands are required")
	// ErrUnknownSeat is returned for a dealer outside N, E, S, W.
	ErrUnknownSeat = errors.New("unknown seat")
)

const (
	// HandWidth is the minimum column width of one hand block.
	HandWidth = 10
	// ContextWidth is the wrap column for the question text.
	ContextWidth = 30
	// HiddenPlaceholder stands in for a hidden hand: four blank lines.
	HiddenPlaceholder = "\n\n\n"
)

// rankOrder maps a rank to its sort key, ace first.
// 3 and 2 share a key; the stable sort keeps them in input order.
var rankOrder = map[string]int{
	"A": 1, "K": 2, "Q": 3, "J": 4,
	"T": 5, "9": 6, "8": 7, "7": 8,
	"6": 9, "5": 10, "4": 11, "3": 12,
	"2": 12,
}

var (
	// UnicodeSymbols are the suit glyphs used on screen.
	UnicodeSymbols = [4]string{"♠", "♥", "♦", "♣"}
	// LetterSymbols print suits as S, H, D, C.
	LetterSymbols = [4]string{"S", "H", "D", "C"}
)

// Renderer lays out hands and diagrams. The zero value is not usable; start from DefaultRenderer.
type Renderer struct {
	// Symbols are printed before each suit line in S, H, D, C order.
	Symbols      [4]string
	HandWidth    int
	ContextWidth int
}

var DefaultRenderer = Renderer{
	Symbols:      UnicodeSymbols,
	HandWidth:    HandWidth,
	ContextWidth: ContextWidth,
}

// WithSymbols returns DefaultRenderer using "letters" or, for anything else, unicode suits.
func WithSymbols(name string) Renderer {
	r := DefaultRenderer
	if name == "letters" {
		r.Symbols = LetterSymbols
	}
	return r
}

// cells measures display width. Suit glyphs are East Asian ambiguous, so the locale is ignored.
var cells = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// RenderHand renders one hand with DefaultRenderer.
func RenderHand(cards []string, hidden bool) (string, error) {
	return DefaultRenderer.Hand(cards, hidden)
}

// Hand returns one line per suit, e.g. "♠ AJ7\n♥ KQ2\n♦ T98\n♣ A6543".
// A hidden hand yields HiddenPlaceholder without looking at cards.
func (r Renderer) Hand(cards []string, hidden bool) (string, error) {
	if hidden {
		return HiddenPlaceholder, nil
	}
	lines, err := r.handLines(cards)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (r Renderer) handLines(cards []string) ([]string, error) {
	lines := make([]string, 0, len(bridge.Suits))
	for i := 0; i < len(bridge.Suits); i++ {
		var ranks []string
		for _, c := range cards {
			if len(c) > 0 && c[0] == bridge.Suits[i] {
				ranks = append(ranks, c[1:])
			}
		}
		for _, rk := range ranks {
			if _, ok := rankOrder[rk]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownRank, rk)
			}
		}
		sort.SliceStable(ranks, func(a, b int) bool {
			return rankOrder[ranks[a]] < rankOrder[ranks[b]]
		})
		lines = append(lines, r.Symbols[i]+" "+strings.Join(ranks, ""))
	}
	return lines, nil
}
