package bridge

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBid = errors.New("invalid bid")

// ParseAuction splits a bidding sequence such as "1S P 2S P 4S" into normalised calls.
// Calls are P (or Pass), X, XX, or a level 1-7 followed by C, D, H, S or N/NT.
func ParseAuction(s string) ([]string, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	bids := make([]string, 0, len(fields))
	for _, f := range fields {
		bid, err := ParseBid(f)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

// ParseBid normalises a single call.
func ParseBid(s string) (string, error) {
	b := strings.ToUpper(strings.TrimSpace(s))
	switch b {
	case "P", "PASS":
		return "P", nil
	case "X", "DBL":
		return "X", nil
	case "XX", "RDBL":
		return "XX", nil
	}
	if len(b) < 2 || b[0] < '1' || b[0] > '7' {
		return "", fmt.Errorf("%w: %q", ErrInvalidBid, s)
	}
	switch strain := b[1:]; strain {
	case "C", "D", "H", "S":
		return b, nil
	case "N", "NT":
		return b[:1] + "NT", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBid, s)
}
