package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/quiz"
	"github.com/jason-s-yu/bridgetrainer/internal/render"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Practise problems in the terminal",
	Long: `Play serves random deals, reads your answer and updates your rating
and the deal's rating. Type :q (or end the input) to stop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("user")
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := store.GetUserByUsername(ctx, name)
		if errors.Is(err, database.ErrNotFound) {
			user = &models.User{Username: name}
			if err = store.CreateUser(ctx, user); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "created player %s\n", name)
			}
		}
		if err != nil {
			return err
		}

		p := &playSession{
			Trainer:  quiz.NewTrainer(store, store, cfg.KFactor, logger),
			Renderer: render.WithSymbols(cfg.Render.Symbols),
			UserID:   user.ID,
			In:       bufio.NewScanner(cmd.InOrStdin()),
			Out:      cmd.OutOrStdout(),
		}
		return p.Run(ctx)
	},
}

func init() {
	playCmd.Flags().String("user", "", "player name (created if missing)")
	playCmd.MarkFlagRequired("user")
}

// playSession is one terminal training loop.
type playSession struct {
	Trainer  *quiz.Trainer
	Renderer render.Renderer
	UserID   uuid.UUID
	In       *bufio.Scanner
	Out      io.Writer

	solved, played int
}

// Run serves problems until the input ends or the player quits.
func (p *playSession) Run(ctx context.Context) error {
	for {
		deal, err := p.Trainer.NextProblem(ctx, p.UserID)
		if err != nil {
			return err
		}
		d, err := p.Renderer.FromDeal(deal, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.Out, "\n%s\n\n", d.Text())

		answer, ok := p.prompt()
		if !ok {
			p.summary()
			return p.In.Err()
		}

		res, err := p.Trainer.SubmitAnswer(ctx, p.UserID, deal.ID, answer)
		if err != nil {
			return err
		}
		p.report(deal, res)
	}
}

// prompt reads a non-empty answer. It reports false on quit or end of input.
func (p *playSession) prompt() (string, bool) {
	for {
		fmt.Fprint(p.Out, "Your answer (:q to quit): ")
		if !p.In.Scan() {
			return "", false
		}
		answer := strings.TrimSpace(p.In.Text())
		switch strings.ToLower(answer) {
		case "":
			continue
		case ":q", ":quit", ":exit":
			return "", false
		}
		return answer, true
	}
}

func (p *playSession) report(deal *models.Deal, res *quiz.Result) {
	p.played++
	if res.Correct {
		p.solved++
		color.New(color.FgGreen, color.Bold).Fprintln(p.Out, "Correct!")
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(p.Out, "Wrong.")
		fmt.Fprintf(p.Out, "The answer was %s\n", color.HiWhiteString(res.CorrectAnswer))
	}
	if deal.Notes != "" {
		fmt.Fprintf(p.Out, "%s %s\n", color.CyanString("Notes:"), deal.Notes)
	}
	delta := res.UserRating.After - res.UserRating.Before
	fmt.Fprintf(p.Out, "Your rating: %.1f -> %.1f (%+.1f)\n", res.UserRating.Before, res.UserRating.After, delta)
}

func (p *playSession) summary() {
	fmt.Fprintf(p.Out, "\n%d of %d solved\n", p.solved, p.played)
}
