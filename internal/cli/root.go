// Package cli implements the reconcile command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// app carries the state shared by every subcommand
type app struct {
	configFile string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the reconcile command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile bank statements against a ledger",
		Long: `Matches imported statement lines against existing ledger entries,
flags likely duplicates and proposes the set of new transactions to import.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	rootCmd.AddCommand(newFinalizeCmd(a))

	return rootCmd
}

// loadConfig reads the config file, falling back to the environment
func (a *app) loadConfig() error {
	cfg := config.LoadOrEnvWithPath(a.configFile)
	if a.verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// logger writes to the command's stderr so stdout stays machine readable
func (a *app) logger(cmd *cobra.Command, system string) *slog.Logger {
	return logging.NewLoggerTo(cmd.ErrOrStderr(), a.cfg.Observability.Logging).With("system", system)
}

func (a *app) openStore(logger *slog.Logger) (*storage.Storage, error) {
	store, err := storage.NewStorage(a.cfg.Storage.DatabasePath, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open run history %s: %w", a.cfg.Storage.DatabasePath, err)
	}
	return store, nil
}
