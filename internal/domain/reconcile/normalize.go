package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawAmount is an amount as it arrived from upstream. It accepts JSON
// numbers and strings so that a bad value rejects one record, not the request.
type RawAmount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	}
	*a = RawAmount(data)
	return nil
}

// Record is a transaction shape that can be projected into a Candidate.
type Record interface {
	origin() Origin
	candidate(index int) (Candidate, *InvalidInputError)
}

// ImportedRecord is a transaction extracted from an uploaded statement.
type ImportedRecord struct {
	ID          string    `json:"id,omitempty"`
	Date        string    `json:"date"`
	Amount      RawAmount `json:"amount"`
	Description string    `json:"description,omitempty"`
	Direction   string    `json:"direction,omitempty"`
}

// LedgerRecord is a transaction already recorded in the user's ledger.
type LedgerRecord struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Amount      RawAmount `json:"amount"`
	Description string    `json:"description,omitempty"`
	Direction   string    `json:"direction"`
	Source      string    `json:"source,omitempty"`
}

var errMissing = errors.New("missing value")

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// NormalizeResult holds the outcome of Normalize.
type NormalizeResult struct {
	Imported []Candidate
	Ledger   []Candidate
	Rejected []*InvalidInputError
}

// Normalize projects both input sides into Candidates. Records that fail
// validation are reported in Rejected and left out of the candidate lists.
func Normalize(imported []ImportedRecord, ledger []LedgerRecord) NormalizeResult {
	var res NormalizeResult

	records := make([]Record, len(imported))
	for i := range imported {
		records[i] = imported[i]
	}
	res.Imported, res.Rejected = normalizeSide(records, res.Rejected)

	records = make([]Record, len(ledger))
	for i := range ledger {
		records[i] = ledger[i]
	}
	res.Ledger, res.Rejected = normalizeSide(records, res.Rejected)

	return res
}

func normalizeSide(records []Record, rejected []*InvalidInputError) ([]Candidate, []*InvalidInputError) {
	out := make([]Candidate, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i, r := range records {
		c, bad := r.candidate(i)
		if bad != nil {
			rejected = append(rejected, bad)
			continue
		}
		if seen[c.ID] {
			rejected = append(rejected, &InvalidInputError{
				Origin: r.origin(), Index: i, ID: c.ID, Field: "id", Reason: "duplicate id",
			})
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}

	return out, rejected
}

func (r ImportedRecord) origin() Origin { return OriginImported }

func (r ImportedRecord) candidate(index int) (Candidate, *InvalidInputError) {
	fail := func(field, reason string) *InvalidInputError {
		return &InvalidInputError{Origin: OriginImported, Index: index, ID: r.ID, Field: field, Reason: reason}
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return Candidate{}, fail("date", err.Error())
	}
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return Candidate{}, fail("amount", err.Error())
	}

	direction := Direction(strings.ToLower(strings.TrimSpace(r.Direction)))
	if direction != DirectionNone && !direction.Valid() {
		return Candidate{}, fail("direction", "unknown direction "+r.Direction)
	}

	return Candidate{
		ID:          idOrNew(r.ID),
		OccurredOn:  date,
		Amount:      amount.Abs(), // statement lines are often signed; only the magnitude is compared
		Description: r.Description,
		Direction:   direction,
		Origin:      OriginImported,
		Index:       index,
	}, nil
}

func (r LedgerRecord) origin() Origin { return OriginLedger }

func (r LedgerRecord) candidate(index int) (Candidate, *InvalidInputError) {
	fail := func(field, reason string) *InvalidInputError {
		return &InvalidInputError{Origin: OriginLedger, Index: index, ID: r.ID, Field: field, Reason: reason}
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return Candidate{}, fail("date", err.Error())
	}
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return Candidate{}, fail("amount", err.Error())
	}
	// The ledger stores magnitude and direction separately.
	if amount.IsNegative() {
		return Candidate{}, fail("amount", "negative amount "+amount.String())
	}

	direction := Direction(strings.ToLower(strings.TrimSpace(r.Direction)))
	if !direction.Valid() {
		return Candidate{}, fail("direction", "ledger direction is required, got "+quoteOrEmpty(r.Direction))
	}

	return Candidate{
		ID:          idOrNew(r.ID),
		OccurredOn:  date,
		Amount:      amount,
		Description: r.Description,
		Direction:   direction,
		Origin:      OriginLedger,
		Source:      r.Source,
		Index:       index,
	}, nil
}

// parseDate accepts the supported layouts and truncates to midnight UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errMissing
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseAmount(a RawAmount) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, errMissing
	}
	return decimal.NewFromString(s)
}

func idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "empty value"
	}
	return `"` + s + `"`
}
