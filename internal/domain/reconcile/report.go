package reconcile

import "github.com/shopspring/decimal"

// Report summarizes a partition for presentation.
type Report struct {
	MatchedCount              int             `json:"matched_count"`
	ImportedOnlyCount         int             `json:"imported_only_count"`
	LedgerOnlyCount           int             `json:"ledger_only_count"`
	LikelyDuplicateCount      int             `json:"likely_duplicate_count"`
	NeedsReviewCount          int             `json:"needs_review_count"`
	NewTransactionsTotal      decimal.Decimal `json:"new_transactions_total"`
	LikelyDuplicatesTotal     decimal.Decimal `json:"likely_duplicates_total"`
	MissingFromStatementTotal decimal.Decimal `json:"missing_from_statement_total"`
	Bands                     map[Band]int    `json:"bands"`
}

// BuildReport aggregates counts and absolute-amount totals over p.
// A match at or above cfg.DuplicateThreshold is a likely duplicate; any other
// match needs review.
func BuildReport(p Partition, cfg Config) Report {
	r := Report{
		MatchedCount:              len(p.Matched),
		ImportedOnlyCount:         len(p.ImportedOnly),
		LedgerOnlyCount:           len(p.LedgerOnly),
		NewTransactionsTotal:      decimal.Zero,
		LikelyDuplicatesTotal:     decimal.Zero,
		MissingFromStatementTotal: decimal.Zero,
		Bands: map[Band]int{
			BandHigh:   0,
			BandMedium: 0,
			BandLow:    0,
		},
	}

	for _, m := range p.Matched {
		r.Bands[cfg.BandFor(m.Score.Total)]++
		if m.Score.Total >= cfg.DuplicateThreshold {
			r.LikelyDuplicateCount++
			r.LikelyDuplicatesTotal = r.LikelyDuplicatesTotal.Add(m.Imported.Amount.Abs())
		} else {
			r.NeedsReviewCount++
		}
	}
	for _, c := range p.ImportedOnly {
		r.NewTransactionsTotal = r.NewTransactionsTotal.Add(c.Amount.Abs())
	}
	for _, c := range p.LedgerOnly {
		r.MissingFromStatementTotal = r.MissingFromStatementTotal.Add(c.Amount.Abs())
	}

	return r
}
