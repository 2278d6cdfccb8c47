package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the money-flow classification of a transaction.
// The zero value means the direction is not known yet.
type Direction string

const (
	DirectionNone     Direction = ""
	DirectionIncome   Direction = "income"
	DirectionExpense  Direction = "expense"
	DirectionTransfer Direction = "transfer"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIncome, DirectionExpense, DirectionTransfer:
		return true
	}
	return false
}

// Origin records which side of the reconciliation a candidate came from.
type Origin string

const (
	OriginImported Origin = "imported"
	OriginLedger   Origin = "ledger"
)

// Candidate is the uniform comparison record built from either an imported
// statement line or an existing ledger entry.
type Candidate struct {
	ID          string          `json:"id"`
	OccurredOn  time.Time       `json:"occurred_on"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Direction   Direction       `json:"direction,omitempty"`
	Origin      Origin          `json:"origin"`
	Source      string          `json:"source,omitempty"` // ledger sub-type, e.g. "account" or "card"
	Index       int             `json:"index"`            // position in the input list
}

// Band is the presentational confidence bucket of a match.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// MatchScore is the result of scoring one (imported, ledger) pair.
type MatchScore struct {
	Total   int      `json:"total"`
	Reasons []string `json:"reasons"`
	Band    Band     `json:"band"`
}

// MatchedPair is a proposed correspondence between an imported and a ledger candidate.
type MatchedPair struct {
	Imported Candidate  `json:"imported"`
	Ledger   Candidate  `json:"ledger"`
	Score    MatchScore `json:"score"`
}

// Partition is the three-way split produced by a resolver run.
// Partitions are treated as immutable once returned.
type Partition struct {
	Matched      []MatchedPair `json:"matched"`
	ImportedOnly []Candidate   `json:"imported_only"`
	LedgerOnly   []Candidate   `json:"ledger_only"`
}

// Reason tags, in scoring table order.
const (
	ReasonExactAmount        = "exact amount"
	ReasonSimilarAmount      = "similar amount"
	ReasonSameDay            = "same day"
	ReasonCloseDate          = "close date"
	ReasonSameDescription    = "same description"
	ReasonSimilarDescription = "similar description"
	ReasonSameDirection      = "same direction"
)
