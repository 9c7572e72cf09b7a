package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/render"
)

var dealInput bridge.DealInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a deal",
	Long: `Add stores a new deal. Hands are four space-separated suit groups in
S H D C order, "-" for a void, e.g. "Q62 AK62 AQ5 K32".

Examples:
  bridgectl add --north "Q62 AK62 AQ5 K32" --south "AKJT5 Q73 74 875" \
    --west "983 T5 J9863 J96" --east "74 J984 KT2 AQT4" \
    --context "Contract: 4S. Which suit next?" --answer H --hidden EW`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deal, err := dealInput.Build()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InsertDeal(cmd.Context(), deal); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("added"), deal.ID)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <field> <value>",
	Short: "Change one field of a deal",
	Long: fmt.Sprintf(`Edit replaces a single field, re-validating the deal when a hand changes.

Fields: %s`, fieldList()),
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid deal id %q", args[0])
		}
		field, err := bridge.ParseField(args[1])
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		var before string
		deal, err := store.EditDeal(cmd.Context(), id, func(d *models.Deal) error {
			before, _ = bridge.FieldValue(d, field)
			return bridge.ApplyEdit(d, field, args[2])
		})
		if err != nil {
			return err
		}
		after, _ := bridge.FieldValue(deal, field)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", field, color.RedString(before), color.GreenString(after))
		return nil
	},
}

func fieldList() string {
	names := make([]string, 0, len(bridge.Fields()))
	for _, f := range bridge.Fields() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored deals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deals, err := store.ListDeals(cmd.Context())
		if err != nil {
			return err
		}
		writeDealList(cmd.OutOrStdout(), deals)
		return nil
	},
}

// writeDealList prints one line per deal: id, rating, answer, hidden seats and the start of the context.
func writeDealList(w io.Writer, deals []*models.Deal) {
	for _, d := range deals {
		fmt.Fprintf(w, "%s  %6.1f  %-6s %-4s %s\n",
			color.CyanString(d.ID.String()), d.Rating,
			runewidth.Truncate(d.CorrectAnswer, 6, "…"),
			d.HiddenHands,
			runewidth.Truncate(strings.Join(strings.Fields(d.Context), " "), 40, "…"),
		)
	}
	fmt.Fprintf(w, "%d deals\n", len(deals))
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a deal diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid deal id %q", args[0])
		}
		reveal, _ := cmd.Flags().GetBool("reveal")

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deal, err := store.GetDeal(cmd.Context(), id)
		if err != nil {
			return err
		}
		d, err := render.WithSymbols(cfg.Render.Symbols).FromDeal(deal, reveal)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, d.Text())
		if reveal {
			fmt.Fprintf(out, "\n%s %s\n", color.CyanString("Answer:"), deal.CorrectAnswer)
			if deal.Notes != "" {
				fmt.Fprintf(out, "%s %s\n", color.CyanString("Notes:"), deal.Notes)
			}
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every deal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to delete every deal without --yes")
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.DeleteAllDeals(cmd.Context())
		if err != nil {
			return err
		}
		logger.WithField("deleted", n).Warn("all deals deleted")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d deals\n", n)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every deal to a hands.json file (- for stdout)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deals, err := store.ListDeals(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := writeDeals(w, deals); err != nil {
			return err
		}
		logger.WithField("count", len(deals)).Info("deals exported")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add every deal from a hands.json file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		deals, err := readDeals(f)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InsertDeals(cmd.Context(), deals); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d deals\n", color.GreenString("imported"), len(deals))
		return nil
	},
}

func writeDeals(w io.Writer, deals []*models.Deal) error {
	if deals == nil {
		deals = []*models.Deal{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(deals)
}

// readDeals decodes and validates a hands.json array.
func readDeals(r io.Reader) ([]*models.Deal, error) {
	var deals []*models.Deal
	if err := json.NewDecoder(r).Decode(&deals); err != nil {
		return nil, fmt.Errorf("decode deals: %w", err)
	}
	if err := bridge.PrepareImport(deals); err != nil {
		return nil, err
	}
	return deals, nil
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Give unrated deals and users the initial rating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.BackfillRatings(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rated %d deals\n", n)
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin <username>",
	Short: "Grant a user access to the deal endpoints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SetAdmin(cmd.Context(), args[0], !revoke); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s admin=%v\n", args[0], !revoke)
		return nil
	},
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&dealInput.North, "north", "", "north hand")
	f.StringVar(&dealInput.South, "south", "", "south hand")
	f.StringVar(&dealInput.West, "west", "", "west hand")
	f.StringVar(&dealInput.East, "east", "", "east hand")
	f.StringVar(&dealInput.Dealer, "dealer", "", "dealer seat (N, E, S, W)")
	f.StringVar(&dealInput.Auction, "auction", "", `bids from the dealer on, e.g. "1S P 2S P"`)
	f.StringVar(&dealInput.Context, "context", "", "problem text shown under the diagram")
	f.StringVar(&dealInput.CorrectAnswer, "answer", "", "correct answer")
	f.StringVar(&dealInput.HiddenHands, "hidden", "", "seats hidden from the solver, e.g. EW")
	f.StringVar(&dealInput.Notes, "notes", "", "explanation shown with --reveal")
	for _, name := range []string{"north", "south", "west", "east", "answer"} {
		addCmd.MarkFlagRequired(name)
	}

	showCmd.Flags().Bool("reveal", false, "show hidden hands and the answer")
	resetCmd.Flags().Bool("yes", false, "confirm deleting every deal")
	adminCmd.Flags().Bool("revoke", false, "remove admin rights instead")
}
