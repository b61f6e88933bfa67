package cmd

import (
	"context"
	"fmt"
	"os"

	"factures/internal/config"
	"factures/internal/logger"
	"factures/internal/store"
	"factures/pkg/services"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "factures",
	Short: "Factures - purchase invoice reconciliation and accounting export",
	Long: `Factures checks the amounts extracted from purchase invoices, keeps the
confirmed invoices in a local database and exports them for the accountant.

Amounts that do not add up are never silently accepted: they are flagged
"to verify" until a user confirms them, and exports mark estimated lines.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Factures CLI executed")

		fmt.Println("Welcome to Factures!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command with the loaded configuration.
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")

	if c != nil {
		cfg = c
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: DATABASE_PATH or factures.db)")
}

// openService opens the invoice database and wires the bookkeeping service.
// The returned close function must be called when the command is done.
func openService(ctx context.Context, cmd *cobra.Command) (*services.Bookkeeping, func(), error) {
	log := logger.WithComponent("cmd")

	path := cfg.DatabasePath
	if flag, _ := cmd.Flags().GetString("db"); flag != "" {
		path = flag
	}

	repo, err := store.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open invoice database: %w", err)
	}

	closeFn := func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close invoice database")
		}
	}

	return services.NewBookkeeping(repo, cfg.ReconcilerConfig(), cfg.ExportConfig()), closeFn, nil
}
