package dto

import (
	"time"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReconcileResponse is returned when a reconciliation is computed.
type ReconcileResponse struct {
	RunID          string                         `json:"run_id"`
	Label          string                         `json:"label,omitempty"`
	CreatedAt      string                         `json:"created_at"`
	State          string                         `json:"state"`
	Strategy       string                         `json:"strategy"`
	MatchThreshold int                            `json:"match_threshold"`
	Saved          bool                           `json:"saved"`
	Partition      reconcile.Partition            `json:"partition"`
	Report         reconcile.Report               `json:"report"`
	Selected       []string                       `json:"selected"`
	Rejected       []*reconcile.InvalidInputError `json:"rejected"`
}

// RunResponse represents a stored run in API responses.
type RunResponse struct {
	ID             string                         `json:"id"`
	Label          string                         `json:"label,omitempty"`
	CreatedAt      string                         `json:"created_at"`
	ConfirmedAt    string                         `json:"confirmed_at,omitempty"`
	Status         string                         `json:"status"`
	Strategy       string                         `json:"strategy"`
	MatchThreshold int                            `json:"match_threshold"`
	ImportedCount  int                            `json:"imported_count"`
	LedgerCount    int                            `json:"ledger_count"`
	Partition      reconcile.Partition            `json:"partition"`
	Report         reconcile.Report               `json:"report"`
	Rejected       []*reconcile.InvalidInputError `json:"rejected"`
	SelectedIDs    []string                       `json:"selected_ids,omitempty"`
}

// RunSummaryResponse is one row of the run list.
type RunSummaryResponse struct {
	ID                   string `json:"id"`
	Label                string `json:"label,omitempty"`
	CreatedAt            string `json:"created_at"`
	Status               string `json:"status"`
	Strategy             string `json:"strategy"`
	MatchThreshold       int    `json:"match_threshold"`
	ImportedCount        int    `json:"imported_count"`
	LedgerCount          int    `json:"ledger_count"`
	MatchedCount         int    `json:"matched_count"`
	ImportedOnlyCount    int    `json:"imported_only_count"`
	LedgerOnlyCount      int    `json:"ledger_only_count"`
	LikelyDuplicateCount int    `json:"likely_duplicate_count"`
	NewTransactionsTotal string `json:"new_transactions_total"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunSummaryResponse `json:"runs"`
	Count int                  `json:"count"`
}

// FinalizeResponse lists the candidates confirmed for import.
type FinalizeResponse struct {
	RunID     string                `json:"run_id"`
	State     string                `json:"state"`
	Count     int                   `json:"count"`
	Confirmed []reconcile.Candidate `json:"confirmed"`
}
