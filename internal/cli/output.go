package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

const dateLayout = "2006-01-02"

// PrintRunResult prints a reconciliation as text tables
func PrintRunResult(w io.Writer, result *service.RunResult) {
	fmt.Fprintf(w, "reconcile: %s (strategy=%s threshold=%d)\n", result.RunID, result.Strategy, result.MatchThreshold)
	if result.Label != "" {
		fmt.Fprintf(w, "Label: %s\n", result.Label)
	}
	fmt.Fprintln(w)

	p := result.Partition

	fmt.Fprintf(w, "Matched (%d)\n", len(p.Matched))
	if len(p.Matched) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  IMPORTED\tLEDGER\tDATE\tAMOUNT\tSCORE\tBAND\tREASONS")
		for _, m := range p.Matched {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				m.Imported.ID,
				m.Ledger.ID,
				m.Imported.OccurredOn.Format(dateLayout),
				m.Imported.Amount.StringFixed(2),
				m.Score.Total,
				m.Score.Band,
				strings.Join(m.Score.Reasons, ", "))
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "New transactions (%d)\n", len(p.ImportedOnly))
	printCandidates(w, p.ImportedOnly)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Missing from statement (%d)\n", len(p.LedgerOnly))
	printCandidates(w, p.LedgerOnly)

	if len(result.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected (%d)\n", len(result.Rejected))
		for _, rej := range result.Rejected {
			fmt.Fprintf(w, "  %s\n", rej.Error())
		}
	}

	r := result.Report
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Matched=%d New=%d Missing=%d LikelyDuplicates=%d NeedsReview=%d\n",
		r.MatchedCount,
		r.ImportedOnlyCount,
		r.LedgerOnlyCount,
		r.LikelyDuplicateCount,
		r.NeedsReviewCount)
	fmt.Fprintf(w, "Totals: New=%s Duplicates=%s Missing=%s\n",
		r.NewTransactionsTotal.StringFixed(2),
		r.LikelyDuplicatesTotal.StringFixed(2),
		r.MissingFromStatementTotal.StringFixed(2))

	if len(result.Selected) > 0 {
		fmt.Fprintf(w, "Selected for import: %s\n", strings.Join(result.Selected, " "))
	} else {
		fmt.Fprintln(w, "Selected for import: none")
	}
	if result.Saved {
		fmt.Fprintf(w, "\nRun saved. Confirm with: reconcile finalize %s\n", result.RunID)
	}
}

func printCandidates(w io.Writer, candidates []reconcile.Candidate) {
	if len(candidates) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tDATE\tAMOUNT\tDIRECTION\tDESCRIPTION")
	for _, c := range candidates {
		direction := string(c.Direction)
		if direction == "" {
			direction = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.OccurredOn.Format(dateLayout),
			c.Amount.StringFixed(2),
			direction,
			c.Description)
	}
	_ = tw.Flush()
}

// PrintRunList prints stored run summaries, newest first
func PrintRunList(w io.Writer, runs []storage.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tLABEL\tMATCHED\tNEW\tMISSING\tDUPLICATES\tNEW TOTAL")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Status,
			run.Label,
			run.MatchedCount,
			run.ImportedOnlyCount,
			run.LedgerOnlyCount,
			run.LikelyDuplicateCount,
			run.NewTransactionsTotal)
	}
	_ = tw.Flush()
}
