package storage

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// Run statuses
const (
	RunStatusPartitioned = "partitioned"
	RunStatusConfirmed   = "confirmed"
)

// DefaultListLimit is used when ListRuns gets a non-positive limit
const DefaultListLimit = 50

// Run is the advisory record of one reconciliation. The ledger itself is
// never written here.
type Run struct {
	ID             string     `json:"id"`
	Label          string     `json:"label,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	Status         string     `json:"status"`
	Strategy       string     `json:"strategy"`
	MatchThreshold int        `json:"match_threshold"`
	ImportedCount  int        `json:"imported_count"`
	LedgerCount    int        `json:"ledger_count"`

	Report    reconcile.Report    `json:"report"`
	Partition reconcile.Partition `json:"partition"`

	// ImportedOrder is the id order of the accepted imported candidates
	ImportedOrder []string                       `json:"imported_order"`
	Rejected      []*reconcile.InvalidInputError `json:"rejected"`
	SelectedIDs   []string                       `json:"selected_ids,omitempty"`
}

// Summary projects the run onto its list row.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:                   r.ID,
		Label:                r.Label,
		CreatedAt:            r.CreatedAt,
		Status:               r.Status,
		Strategy:             r.Strategy,
		MatchThreshold:       r.MatchThreshold,
		ImportedCount:        r.ImportedCount,
		LedgerCount:          r.LedgerCount,
		MatchedCount:         r.Report.MatchedCount,
		ImportedOnlyCount:    r.Report.ImportedOnlyCount,
		LedgerOnlyCount:      r.Report.LedgerOnlyCount,
		LikelyDuplicateCount: r.Report.LikelyDuplicateCount,
		NewTransactionsTotal: r.Report.NewTransactionsTotal.String(),
	}
}

// RunSummary is a run without its partition payload
type RunSummary struct {
	ID                   string    `json:"id"`
	Label                string    `json:"label,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	Status               string    `json:"status"`
	Strategy             string    `json:"strategy"`
	MatchThreshold       int       `json:"match_threshold"`
	ImportedCount        int       `json:"imported_count"`
	LedgerCount          int       `json:"ledger_count"`
	MatchedCount         int       `json:"matched_count"`
	ImportedOnlyCount    int       `json:"imported_only_count"`
	LedgerOnlyCount      int       `json:"ledger_only_count"`
	LikelyDuplicateCount int       `json:"likely_duplicate_count"`
	NewTransactionsTotal string    `json:"new_transactions_total"`
}

// runPayload holds the JSON columns of a run
type runPayload struct {
	report        string
	partition     string
	importedOrder string
	rejected      string
	selected      string
}

func (r *Run) payload() (runPayload, error) {
	var p runPayload
	var err error
	if p.report, err = marshalString(r.Report); err != nil {
		return p, err
	}
	if p.partition, err = marshalString(r.Partition); err != nil {
		return p, err
	}
	if p.importedOrder, err = marshalString(nonNil(r.ImportedOrder)); err != nil {
		return p, err
	}
	if r.Rejected == nil {
		p.rejected = "[]"
	} else if p.rejected, err = marshalString(r.Rejected); err != nil {
		return p, err
	}
	if r.SelectedIDs != nil {
		if p.selected, err = marshalString(r.SelectedIDs); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (r *Run) applyPayload(p runPayload) error {
	if err := json.Unmarshal([]byte(p.report), &r.Report); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(p.partition), &r.Partition); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(p.importedOrder), &r.ImportedOrder); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(p.rejected), &r.Rejected); err != nil {
		return err
	}
	if p.selected != "" {
		if err := json.Unmarshal([]byte(p.selected), &r.SelectedIDs); err != nil {
			return err
		}
	}
	return nil
}

func marshalString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
