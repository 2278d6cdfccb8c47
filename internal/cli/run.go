package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// runFlags holds the flags of the run command
type runFlags struct {
	importedPath string
	ledgerPath   string
	threshold    int
	strategy     string
	format       string
	save         bool
	label        string
	delimiter    string
	decimalComma bool
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a statement file against a ledger export",
		Example: `  reconcile run --imported august.csv --ledger ledger.csv
  reconcile run --imported august.csv --ledger ledger.json --threshold 60 --format json --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReconcile(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.importedPath, "imported", "", "Statement file (.csv or .json)")
	cmd.Flags().StringVar(&flags.ledgerPath, "ledger", "", "Ledger export (.csv or .json)")
	cmd.Flags().IntVar(&flags.threshold, "threshold", 0,
		fmt.Sprintf("Match threshold override (0-%d with the default weights)", reconcile.DefaultWeights().Max()))
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "Assignment strategy: greedy or optimal")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flags.save, "save", false, "Record the run in the history database")
	cmd.Flags().StringVar(&flags.label, "label", "", "Run label (defaults to the statement file name)")
	cmd.Flags().StringVar(&flags.delimiter, "delimiter", ",", "CSV field separator")
	cmd.Flags().BoolVar(&flags.decimalComma, "decimal-comma", false, "Amounts use a decimal comma (1.234,56)")
	_ = cmd.MarkFlagRequired("imported")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}

func (a *app) runReconcile(cmd *cobra.Command, flags *runFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", flags.format)
	}
	if utf8.RuneCountInString(flags.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", flags.delimiter)
	}
	comma, _ := utf8.DecodeRuneInString(flags.delimiter)

	logger := a.logger(cmd, "engine")
	ctx := cmd.Context()

	reader := statement.NewFileReader(statement.Options{Comma: comma, DecimalComma: flags.decimalComma})
	imported, err := reader.ReadImported(ctx, flags.importedPath)
	if err != nil {
		return err
	}
	ledger, err := reader.ReadLedger(ctx, flags.ledgerPath)
	if err != nil {
		return err
	}
	logger.Debug("Read input files", "imported", len(imported), "ledger", len(ledger))

	req := service.RunRequest{
		Imported: imported,
		Ledger:   ledger,
		Label:    flags.label,
		Strategy: flags.strategy,
		Save:     flags.save,
	}
	if req.Label == "" {
		req.Label = filepath.Base(flags.importedPath)
	}
	if cmd.Flags().Changed("threshold") {
		req.MatchThreshold = &flags.threshold
	}

	var svc *service.ReconcileService
	if flags.save {
		store, err := a.openStore(a.logger(cmd, "store"))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		svc = service.NewReconcileService(a.cfg.EngineConfig(), store, logger)
	} else {
		svc = service.NewReconcileService(a.cfg.EngineConfig(), nil, logger)
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	PrintRunResult(out, result)
	return nil
}
