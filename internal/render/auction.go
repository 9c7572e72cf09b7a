package render

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
)

const (
	// emptyCall fills auction cells before the dealer's first call and after the last one.
	emptyCall = "-"
	bidWidth  = 4
)

// AuctionRows arranges bids into rows of four under the columns N, E, S, W.
// The sequence is left padded so the first bid sits under the dealer, then right padded
// to a full row.
func AuctionRows(dealer bridge.Seat, bids []string) ([][4]string, error) {
	if len(bids) == 0 {
		return nil, nil
	}
	offset := dealer.Index()
	if offset < 0 {
		return nil, fmt.Errorf("%w: dealer %q", ErrUnknownSeat, dealer.String())
	}

	padded := make([]string, 0, offset+len(bids)+3)
	for i := 0; i < offset; i++ {
		padded = append(padded, emptyCall)
	}
	padded = append(padded, bids...)
	for len(padded)%4 != 0 {
		padded = append(padded, emptyCall)
	}

	rows := make([][4]string, 0, len(padded)/4)
	for i := 0; i < len(padded); i += 4 {
		rows = append(rows, [4]string{padded[i], padded[i+1], padded[i+2], padded[i+3]})
	}
	return rows, nil
}

func auctionText(rows [][4]string) string {
	lines := make([]string, 0, len(rows)+1)
	header := [4]string{}
	for i, s := range bridge.SeatOrder {
		header[i] = s.String()
	}
	lines = append(lines, auctionLine(header))
	for _, row := range rows {
		lines = append(lines, auctionLine(row))
	}
	return strings.Join(lines, "\n")
}

func auctionLine(cellsInRow [4]string) string {
	var b strings.Builder
	for _, c := range cellsInRow {
		b.WriteString(cells.FillRight(c, bidWidth))
	}
	return strings.TrimRight(b.String(), " ")
}
