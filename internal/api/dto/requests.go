package dto

import "github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"

// ReconcileRequest is the body of POST /api/reconciliations.
type ReconcileRequest struct {
	Imported       []reconcile.ImportedRecord `json:"imported"`
	Ledger         []reconcile.LedgerRecord   `json:"ledger"`
	Label          string                     `json:"label,omitempty"`
	MatchThreshold *int                       `json:"match_threshold,omitempty"`
	Strategy       string                     `json:"strategy,omitempty"`
	DryRun         bool                       `json:"dry_run,omitempty"` // compute without storing
}

// FinalizeRequest is the body of POST /api/reconciliations/:id/finalize.
// Each id flips its membership in the default selection.
type FinalizeRequest struct {
	Toggle []string `json:"toggle"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{Limit: 20}
}
