// internal/render/diagram.go
package render

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// diagramSeats is the order hands are passed in: North, West, South, East.
var diagramSeats = [4]bridge.Seat{bridge.North, bridge.West, bridge.South, bridge.East}

// Block is the rendered text of one seat. Lines always has one entry per suit;
// a hidden seat has four empty lines.
type Block struct {
	Seat   bridge.Seat
	Hidden bool
	Lines  [4]string
}

// Diagram is the layout-independent rendering of a deal. Text and HTML both read from it.
type Diagram struct {
	// Blocks are in North, West, South, East order.
	Blocks  [4]Block
	Dealer  bridge.Seat
	Auction [][4]string
	// Context is the question text with whitespace collapsed; ContextLines is it wrapped.
	Context      string
	ContextLines []string

	width int
}

// RenderFourHands renders hands (North, West, South, East) as a plain-text diagram
// followed by the auction table when both dealer and bids are given.
func RenderFourHands(hands [][]string, hidden bridge.SeatSet, dealer bridge.Seat, auction []string) (string, error) {
	d, err := DefaultRenderer.Build(hands, hidden, dealer, auction, "")
	if err != nil {
		return "", err
	}
	return d.Text(), nil
}

// Build renders each seat and the auction, and wraps the context.
func (r Renderer) Build(hands [][]string, hidden bridge.SeatSet, dealer bridge.Seat, auction []string, context string) (*Diagram, error) {
	if len(hands) != len(diagramSeats) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeatCount, len(hands))
	}

	d := &Diagram{Dealer: dealer, width: r.HandWidth}
	for i, seat := range diagramSeats {
		b := Block{Seat: seat, Hidden: hidden.Has(seat)}
		if !b.Hidden {
			lines, err := r.handLines(hands[i])
			if err != nil {
				return nil, fmt.Errorf("%s hand: %w", seat, err)
			}
			copy(b.Lines[:], lines)
			for _, l := range lines {
				if w := cells.StringWidth(l); w > d.width {
					d.width = w
				}
			}
		}
		d.Blocks[i] = b
	}

	if dealer != bridge.NoSeat && len(auction) > 0 {
		rows, err := AuctionRows(dealer, auction)
		if err != nil {
			return nil, err
		}
		d.Auction = rows
	}

	d.Context = strings.Join(strings.Fields(context), " ")
	if d.Context != "" {
		d.ContextLines = strings.Split(wordwrap.String(d.Context, r.ContextWidth), "\n")
	}
	return d, nil
}

// FromDeal builds the diagram for a stored deal. reveal shows every seat regardless of HiddenHands.
func (r Renderer) FromDeal(deal *models.Deal, reveal bool) (*Diagram, error) {
	var hidden bridge.SeatSet
	if !reveal {
		set, err := bridge.ParseSeatSet(deal.HiddenHands)
		if err != nil {
			return nil, err
		}
		hidden = set
	}
	dealer, err := bridge.ParseSeat(deal.Dealer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSeat, err)
	}
	return r.Build(deal.DiagramHands(), hidden, dealer, deal.Auction, deal.Context)
}

// Text lays the diagram out as a cross: North on top, West and East side by side, South below.
// Every diagram line has the same display width.
func (d *Diagram) Text() string {
	pad := strings.Repeat(" ", d.width)
	lines := make([]string, 0, 12)

	north, west, south, east := d.Blocks[0], d.Blocks[1], d.Blocks[2], d.Blocks[3]
	for _, l := range north.Lines {
		lines = append(lines, pad+cells.FillRight(l, d.width)+pad)
	}
	for i := range west.Lines {
		lines = append(lines, cells.FillRight(west.Lines[i], d.width)+pad+cells.FillRight(east.Lines[i], d.width))
	}
	for _, l := range south.Lines {
		lines = append(lines, pad+cells.FillRight(l, d.width)+pad)
	}

	out := strings.Join(lines, "\n")
	if len(d.Auction) > 0 {
		out += "\n\n" + auctionText(d.Auction)
	}
	if len(d.ContextLines) > 0 {
		out += "\n\n" + strings.Join(d.ContextLines, "\n")
	}
	return out
}
