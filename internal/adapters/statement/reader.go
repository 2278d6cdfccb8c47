// Package statement reads imported statement lines and ledger exports from
// CSV or JSON files into the record shapes the reconcile engine normalizes.
//
// Cell values are passed through as text. Bad dates or amounts reject one
// record later in normalization; only structural problems (unreadable file,
// missing required columns) fail the whole read.
package statement

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Reader loads both sides of a reconciliation from files.
type Reader interface {
	ReadImported(ctx context.Context, path string) ([]reconcile.ImportedRecord, error)
	ReadLedger(ctx context.Context, path string) ([]reconcile.LedgerRecord, error)
}

// Options configures CSV parsing
type Options struct {
	Comma        rune // field separator, default ','
	DecimalComma bool // amounts like "1.234,56"
}

// FileReader reads .csv and .json files. Any other extension is read as CSV.
type FileReader struct {
	opts Options
}

// Compile-time check that FileReader implements Reader
var _ Reader = (*FileReader)(nil)

// NewFileReader creates a reader with the given options
func NewFileReader(opts Options) *FileReader {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &FileReader{opts: opts}
}

// column aliases, matched case-insensitively after trimming
var columnAliases = map[string][]string{
	"id":          {"id", "transaction_id", "reference"},
	"date":        {"date", "transaction_date", "posted", "posted_at"},
	"amount":      {"amount", "value"},
	"description": {"description", "memo", "payee", "details"},
	"direction":   {"direction", "type"},
	"source":      {"source", "account"},
}

// ReadImported reads statement lines from path
func (r *FileReader) ReadImported(ctx context.Context, path string) ([]reconcile.ImportedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement file %s: %w", path, err)
	}
	defer f.Close()

	if isJSON(path) {
		var rows []importedJSON
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		records := make([]reconcile.ImportedRecord, len(rows))
		for i, row := range rows {
			records[i] = row.ImportedRecord
			records[i].Amount = r.jsonAmount(row.Amount)
		}
		return records, nil
	}

	records, err := r.ParseImported(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadLedger reads ledger entries from path
func (r *FileReader) ReadLedger(ctx context.Context, path string) ([]reconcile.LedgerRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer f.Close()

	if isJSON(path) {
		var rows []ledgerJSON
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		records := make([]reconcile.LedgerRecord, len(rows))
		for i, row := range rows {
			records[i] = row.LedgerRecord
			records[i].Amount = r.jsonAmount(row.Amount)
		}
		return records, nil
	}

	records, err := r.ParseLedger(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseImported reads statement lines from CSV with a header row
func (r *FileReader) ParseImported(ctx context.Context, src io.Reader) ([]reconcile.ImportedRecord, error) {
	records := make([]reconcile.ImportedRecord, 0)
	err := r.scan(ctx, src, func(row map[string]string) {
		records = append(records, reconcile.ImportedRecord{
			ID:          row["id"],
			Date:        row["date"],
			Amount:      reconcile.RawAmount(r.cleanAmount(row["amount"])),
			Description: row["description"],
			Direction:   row["direction"],
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ParseLedger reads ledger entries from CSV with a header row
func (r *FileReader) ParseLedger(ctx context.Context, src io.Reader) ([]reconcile.LedgerRecord, error) {
	records := make([]reconcile.LedgerRecord, 0)
	err := r.scan(ctx, src, func(row map[string]string) {
		records = append(records, reconcile.LedgerRecord{
			ID:          row["id"],
			Date:        row["date"],
			Amount:      reconcile.RawAmount(r.cleanAmount(row["amount"])),
			Description: row["description"],
			Direction:   row["direction"],
			Source:      row["source"],
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *FileReader) scan(ctx context.Context, src io.Reader, emit func(map[string]string)) error {
	reader := csv.NewReader(src)
	reader.Comma = r.opts.Comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	index := mapHeader(header)
	for _, required := range []string{"date", "amount"} {
		if _, ok := index[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		row := make(map[string]string, len(index))
		for name, col := range index {
			if col < len(record) {
				row[name] = strings.TrimSpace(record[col])
			}
		}
		emit(row)
	}
}

// mapHeader returns canonical column name -> position. The first matching
// column wins when a file has several aliases of the same field.
func mapHeader(header []string) map[string]int {
	index := make(map[string]int)
	for col, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		for canonical, aliases := range columnAliases {
			if _, seen := index[canonical]; seen {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					index[canonical] = col
					break
				}
			}
		}
	}
	return index
}

// cleanAmount strips currency symbols and grouping separators. Anything it
// cannot make sense of is returned as-is for the normalizer to reject.
func (r *FileReader) cleanAmount(s string) string {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return ""
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}
	for _, symbol := range []string{"R$", "US$", "$", "€", "£"} {
		cleaned = strings.TrimPrefix(strings.TrimSpace(cleaned), symbol)
	}
	cleaned = strings.TrimSpace(cleaned)

	if r.opts.DecimalComma {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if negative {
		return "-" + cleaned
	}
	return cleaned
}

// importedJSON and ledgerJSON keep the raw amount token so JSON numbers
// bypass the locale cleanup.
type importedJSON struct {
	reconcile.ImportedRecord
	Amount json.RawMessage `json:"amount"`
}

type ledgerJSON struct {
	reconcile.LedgerRecord
	Amount json.RawMessage `json:"amount"`
}

// jsonAmount cleans string amounts only. A JSON number is already
// locale-free and is passed through unchanged.
func (r *FileReader) jsonAmount(raw json.RawMessage) reconcile.RawAmount {
	var amount reconcile.RawAmount
	if len(raw) == 0 {
		return amount
	}
	if err := json.Unmarshal(raw, &amount); err != nil {
		return reconcile.RawAmount(raw)
	}
	if raw[0] == '"' {
		return reconcile.RawAmount(r.cleanAmount(string(amount)))
	}
	return amount
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
