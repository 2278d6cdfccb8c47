package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for reconciliation runs.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// Option configures a Storage
type Option func(*Storage)

// WithLogger sets the logger used for migrations and store events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string, opts ...Option) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Run all pending migrations
	if err := runMigrations(db, s.logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts a new run record
func (s *Storage) SaveRun(ctx context.Context, run *Run) error {
	p, err := run.payload()
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	var selected sql.NullString
	if run.SelectedIDs != nil {
		selected = sql.NullString{String: p.selected, Valid: true}
	}
	var confirmedAt sql.NullTime
	if run.ConfirmedAt != nil {
		confirmedAt = sql.NullTime{Time: *run.ConfirmedAt, Valid: true}
	}

	query := `
	INSERT INTO reconciliation_runs
	(id, label, created_at, confirmed_at, status, strategy, match_threshold,
	 imported_count, ledger_count, matched_count, imported_only_count,
	 ledger_only_count, likely_duplicate_count, new_transactions_total,
	 report_json, partition_json, imported_order_json, rejected_json, selected_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.Label,
		run.CreatedAt.UTC(),
		confirmedAt,
		run.Status,
		run.Strategy,
		run.MatchThreshold,
		run.ImportedCount,
		run.LedgerCount,
		run.Report.MatchedCount,
		run.Report.ImportedOnlyCount,
		run.Report.LedgerOnlyCount,
		run.Report.LikelyDuplicateCount,
		run.Report.NewTransactionsTotal.String(),
		p.report,
		p.partition,
		p.importedOrder,
		p.rejected,
		selected,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	s.logger.Debug("Saved run", "run_id", run.ID, "status", run.Status)
	return nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
	SELECT id, label, created_at, confirmed_at, status, strategy, match_threshold,
	       imported_count, ledger_count, report_json, partition_json,
	       imported_order_json, rejected_json, selected_json
	FROM reconciliation_runs
	WHERE id = ?
	`

	var (
		run         Run
		p           runPayload
		confirmedAt sql.NullTime
		selected    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Label,
		&run.CreatedAt,
		&confirmedAt,
		&run.Status,
		&run.Strategy,
		&run.MatchThreshold,
		&run.ImportedCount,
		&run.LedgerCount,
		&p.report,
		&p.partition,
		&p.importedOrder,
		&p.rejected,
		&selected,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	if confirmedAt.Valid {
		t := confirmedAt.Time
		run.ConfirmedAt = &t
	}
	p.selected = selected.String
	if err := run.applyPayload(p); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}

	return &run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
	SELECT id, label, created_at, status, strategy, match_threshold,
	       imported_count, ledger_count, matched_count, imported_only_count,
	       ledger_only_count, likely_duplicate_count, new_transactions_total
	FROM reconciliation_runs
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.ID,
			&r.Label,
			&r.CreatedAt,
			&r.Status,
			&r.Strategy,
			&r.MatchThreshold,
			&r.ImportedCount,
			&r.LedgerCount,
			&r.MatchedCount,
			&r.ImportedOnlyCount,
			&r.LedgerOnlyCount,
			&r.LikelyDuplicateCount,
			&r.NewTransactionsTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// ConfirmRun stores the final selection and marks the run confirmed
func (s *Storage) ConfirmRun(ctx context.Context, id string, selectedIDs []string) error {
	selected, err := marshalString(nonNil(selectedIDs))
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM reconciliation_runs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", id, err)
	}
	if status == RunStatusConfirmed {
		return ErrRunConfirmed
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE reconciliation_runs
	SET status = ?, confirmed_at = ?, selected_json = ?
	WHERE id = ?
	`, RunStatusConfirmed, time.Now().UTC(), selected, id)
	if err != nil {
		return fmt.Errorf("failed to confirm run %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit confirmation of run %s: %w", id, err)
	}

	s.logger.Debug("Confirmed run", "run_id", id, "selected", len(selectedIDs))
	return nil
}
