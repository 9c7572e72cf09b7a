package main

import (
	"context"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/bridgetrainer/internal/config"
	"github.com/jason-s-yu/bridgetrainer/internal/database"
)

var (
	configPath string
	cfg        *config.Config
	logger     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Manage bridge card-play problems and practise them in the terminal",
	Long: `bridgectl adds, edits and lists the deals served by the bridge trainer,
moves them in and out of hands.json files, and runs a training session
against the same database the server uses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger = cfg.Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $BRIDGE_CONFIG or $XDG_CONFIG_HOME/bridgetrainer/config.toml)")
	rootCmd.AddCommand(addCmd, editCmd, listCmd, showCmd, resetCmd, exportCmd, importCmd, backfillCmd, adminCmd, playCmd)
}

// openStore connects to the configured database and makes sure the tables exist.
func openStore(ctx context.Context) (*database.Store, error) {
	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
