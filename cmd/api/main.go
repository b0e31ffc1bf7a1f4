package main

import (
	"fmt"
	"os"

	"car-price/internal/config"
	"car-price/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "car-price",
	Short: "Used car price prediction API",
	Long: `Serves used-car price predictions from a trained regression network,
loan quotes for the predicted price and a history of past predictions.

Without a subcommand the HTTP API is started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		l, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
