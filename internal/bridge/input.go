// internal/bridge/input.go
package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/rating"
)

var (
	ErrUnknownField  = errors.New("unknown deal field")
	ErrMissingAnswer = errors.New("correct answer is required")
)

// DealInput is the raw text entered for a new deal. Each field has its own parser.
//
// Example:
//
//	{
//	  "north": "Q62 AK62 AQ5 K32",
//	  "south": "AKJT5 Q73 74 875",
//	  "west": "983 T5 J9863 J96",
//	  "east": "74 J984 KT2 AQT4",
//	  "context": "Contract: 4S. Which suit do you play next?",
//	  "correct_answer": "H",
//	  "hidden_hands": "EW"
//	}
type DealInput struct {
	North         string `json:"north"`
	South         string `json:"south"`
	West          string `json:"west"`
	East          string `json:"east"`
	Dealer        string `json:"dealer"`
	Auction       string `json:"auction"`
	Context       string `json:"context"`
	CorrectAnswer string `json:"correct_answer"`
	HiddenHands   string `json:"hidden_hands"`
	Notes         string `json:"notes"`
}

// Build parses every field and returns a new deal with the initial rating.
func (in DealInput) Build() (*models.Deal, error) {
	d := &models.Deal{Rating: rating.InitialRating}
	fields := []struct {
		f   Field
		raw string
	}{
		{FieldNorth, in.North},
		{FieldSouth, in.South},
		{FieldWest, in.West},
		{FieldEast, in.East},
		{FieldDealer, in.Dealer},
		{FieldAuction, in.Auction},
		{FieldContext, in.Context},
		{FieldCorrectAnswer, in.CorrectAnswer},
		{FieldHiddenHands, in.HiddenHands},
		{FieldNotes, in.Notes},
	}
	for _, fv := range fields {
		if err := fieldSpecs[fv.f].parse(d, fv.raw); err != nil {
			return nil, fmt.Errorf("%s: %w", fv.f, err)
		}
	}
	if err := ValidateDealRecord(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Field names a single editable deal attribute.
type Field string

const (
	FieldNorth         Field = "n_hand"
	FieldSouth         Field = "s_hand"
	FieldWest          Field = "w_hand"
	FieldEast          Field = "e_hand"
	FieldDealer        Field = "dealer"
	FieldAuction       Field = "auction"
	FieldContext       Field = "context"
	FieldCorrectAnswer Field = "correct_answer"
	FieldHiddenHands   Field = "hidden_hands"
	FieldNotes         Field = "notes"
	FieldRating        Field = "elo"
)

type fieldSpec struct {
	// hand marks fields whose edit must re-check the whole deal
	hand  bool
	parse func(d *models.Deal, raw string) error
	get   func(d *models.Deal) string
}

func handSpec(ptr func(d *models.Deal) *[]string) fieldSpec {
	return fieldSpec{
		hand: true,
		parse: func(d *models.Deal, raw string) error {
			cards, err := ParseHand(raw)
			if err != nil {
				return err
			}
			*ptr(d) = cards
			return nil
		},
		get: func(d *models.Deal) string { return FormatHand(*ptr(d)) },
	}
}

func textSpec(ptr func(d *models.Deal) *string) fieldSpec {
	return fieldSpec{
		parse: func(d *models.Deal, raw string) error {
			*ptr(d) = raw
			return nil
		},
		get: func(d *models.Deal) string { return *ptr(d) },
	}
}

var fieldSpecs = map[Field]fieldSpec{
	FieldNorth:   handSpec(func(d *models.Deal) *[]string { return &d.NorthHand }),
	FieldSouth:   handSpec(func(d *models.Deal) *[]string { return &d.SouthHand }),
	FieldWest:    handSpec(func(d *models.Deal) *[]string { return &d.WestHand }),
	FieldEast:    handSpec(func(d *models.Deal) *[]string { return &d.EastHand }),
	FieldContext: textSpec(func(d *models.Deal) *string { return &d.Context }),
	FieldNotes:   textSpec(func(d *models.Deal) *string { return &d.Notes }),
	FieldCorrectAnswer: {
		parse: func(d *models.Deal, raw string) error {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return ErrMissingAnswer
			}
			d.CorrectAnswer = raw
			return nil
		},
		get: func(d *models.Deal) string { return d.CorrectAnswer },
	},
	FieldHiddenHands: {
		parse: func(d *models.Deal, raw string) error {
			set, err := ParseSeatSet(raw)
			if err != nil {
				return err
			}
			d.HiddenHands = set.String()
			return nil
		},
		get: func(d *models.Deal) string { return d.HiddenHands },
	},
	FieldDealer: {
		parse: func(d *models.Deal, raw string) error {
			seat, err := ParseSeat(raw)
			if err != nil {
				return err
			}
			d.Dealer = seat.String()
			return nil
		},
		get: func(d *models.Deal) string { return d.Dealer },
	},
	FieldAuction: {
		parse: func(d *models.Deal, raw string) error {
			bids, err := ParseAuction(raw)
			if err != nil {
				return err
			}
			d.Auction = bids
			return nil
		},
		get: func(d *models.Deal) string { return strings.Join(d.Auction, " ") },
	},
	FieldRating: {
		parse: func(d *models.Deal, raw string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("a number is required: %w", err)
			}
			d.Rating = v
			return nil
		},
		get: func(d *models.Deal) string { return strconv.FormatFloat(d.Rating, 'f', -1, 64) },
	},
}

// Fields lists every editable field name, sorted.
func Fields() []Field {
	out := make([]Field, 0, len(fieldSpecs))
	for f := range fieldSpecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseField resolves a field name, accepting the short aliases north/south/west/east.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case "north":
		f = FieldNorth
	case "south":
		f = FieldSouth
	case "west":
		f = FieldWest
	case "east":
		f = FieldEast
	case "rating":
		f = FieldRating
	}
	if _, ok := fieldSpecs[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// FieldValue returns the current value of a field in its entry format.
func FieldValue(d *models.Deal, f Field) (string, error) {
	fs, ok := fieldSpecs[f]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return fs.get(d), nil
}

// ApplyEdit parses raw for field f and stores it on d. The deal is left untouched on error.
func ApplyEdit(d *models.Deal, f Field, raw string) error {
	fs, ok := fieldSpecs[f]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	edited := *d
	if err := fs.parse(&edited, raw); err != nil {
		return fmt.Errorf("%s: %w", f, err)
	}
	if fs.hand || f == FieldDealer || f == FieldAuction {
		if err := ValidateDealRecord(&edited); err != nil {
			return err
		}
	}
	*d = edited
	return nil
}

// ValidateDealRecord checks the invariants of a stored deal.
func ValidateDealRecord(d *models.Deal) error {
	if err := ValidateDeal([4][]string{d.NorthHand, d.EastHand, d.SouthHand, d.WestHand}); err != nil {
		return err
	}
	if _, err := ParseSeatSet(d.HiddenHands); err != nil {
		return err
	}
	if len(d.Auction) > 0 && d.Dealer == "" {
		return fmt.Errorf("%w: an auction needs a dealer", ErrInvalidSeat)
	}
	return nil
}

// PrepareImport validates deals read from a hands.json export and gives
// unrated ones the initial rating.
func PrepareImport(deals []*models.Deal) error {
	for i, d := range deals {
		if d == nil {
			return fmt.Errorf("deal %d: empty entry", i)
		}
		if err := ValidateDealRecord(d); err != nil {
			return fmt.Errorf("deal %d: %w", i, err)
		}
		if err := normalizeDeal(d); err != nil {
			return fmt.Errorf("deal %d: %w", i, err)
		}
		if strings.TrimSpace(d.CorrectAnswer) == "" {
			return fmt.Errorf("deal %d: %w", i, ErrMissingAnswer)
		}
		if d.Rating == 0 {
			d.Rating = rating.InitialRating
		}
	}
	return nil
}

// normalizeDeal rewrites card codes, seats and calls of a validated deal into
// their stored form, so "sq" becomes "SQ" and "S10" becomes "ST".
func normalizeDeal(d *models.Deal) error {
	for _, hand := range [][]string{d.NorthHand, d.EastHand, d.SouthHand, d.WestHand} {
		for j, c := range hand {
			norm, err := ParseCard(c)
			if err != nil {
				return err
			}
			hand[j] = norm
		}
	}
	dealer, err := ParseSeat(d.Dealer)
	if err != nil {
		return err
	}
	d.Dealer = dealer.String()
	hidden, err := ParseSeatSet(d.HiddenHands)
	if err != nil {
		return err
	}
	d.HiddenHands = hidden.String()
	for j, call := range d.Auction {
		bid, err := ParseBid(call)
		if err != nil {
			return err
		}
		d.Auction[j] = bid
	}
	return nil
}
