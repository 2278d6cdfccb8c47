package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded reconciliation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(a.logger(cmd, "store"))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := service.NewReconcileService(a.cfg.EngineConfig(), store, a.logger(cmd, "engine"))
			runs, err := svc.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			PrintRunList(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "Maximum number of runs to list")

	return cmd
}

func newFinalizeCmd(a *app) *cobra.Command {
	var toggles []string

	cmd := &cobra.Command{
		Use:   "finalize RUN_ID",
		Short: "Confirm the import selection of a recorded run",
		Long: `Confirms the default selection of a recorded run. Each --toggle id flips
one imported candidate in or out of the selection before confirming.`,
		Example: `  reconcile finalize 5f0c... --toggle s2 --toggle s7`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(a.logger(cmd, "store"))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := service.NewReconcileService(a.cfg.EngineConfig(), store, a.logger(cmd, "engine"))
			result, err := svc.Finalize(cmd.Context(), args[0], toggles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s %s: %d transaction(s) to import\n", result.RunID, result.State, len(result.Confirmed))
			ids := make([]string, len(result.Confirmed))
			for i, c := range result.Confirmed {
				ids[i] = c.ID
			}
			if len(ids) > 0 {
				fmt.Fprintf(out, "  %s\n", strings.Join(ids, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&toggles, "toggle", nil, "Imported id to flip in or out of the selection (repeatable)")

	return cmd
}
