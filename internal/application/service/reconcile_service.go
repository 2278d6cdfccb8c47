package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

var (
	// ErrInvalidRequest wraps request-level problems such as a bad threshold override.
	ErrInvalidRequest = errors.New("invalid reconciliation request")

	// ErrNoStore is returned by operations that need run history when none is configured.
	ErrNoStore = errors.New("run history store not configured")
)

// RunRequest holds both sides of one reconciliation.
type RunRequest struct {
	Imported []reconcile.ImportedRecord
	Ledger   []reconcile.LedgerRecord
	Label    string // free-form, e.g. the statement file name

	// Per-run overrides of the service configuration
	MatchThreshold *int
	Strategy       string

	Save bool // persist the run; ignored without a store
}

// RunResult is the outcome of one reconciliation.
type RunResult struct {
	RunID          string                         `json:"run_id"`
	Label          string                         `json:"label,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
	State          reconcile.State                `json:"state"`
	Strategy       string                         `json:"strategy"`
	MatchThreshold int                            `json:"match_threshold"`
	Partition      reconcile.Partition            `json:"partition"`
	Report         reconcile.Report               `json:"report"`
	Selected       []string                       `json:"selected"`
	Rejected       []*reconcile.InvalidInputError `json:"rejected"`
	Saved          bool                           `json:"saved"`
}

// FinalizeResult holds the confirmed import set of a run.
type FinalizeResult struct {
	RunID     string                `json:"run_id"`
	State     reconcile.State       `json:"state"`
	Confirmed []reconcile.Candidate `json:"confirmed"`
}

// ReconcileService orchestrates normalization, matching, reporting and the
// default selection, and records runs in the history store.
// It holds no per-run state and is safe for concurrent use.
type ReconcileService struct {
	cfg     reconcile.Config
	storage storage.Repository
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconcileService creates a new reconcile service. store may be nil, in
// which case runs are computed but never persisted.
func NewReconcileService(cfg reconcile.Config, store storage.Repository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReconcileService{
		cfg:     cfg,
		storage: store,
		logger:  logger,
		now:     time.Now,
	}
}

// Config returns the service's engine configuration.
func (s *ReconcileService) Config() reconcile.Config {
	return s.cfg
}

// Run reconciles req.Imported against req.Ledger.
func (s *ReconcileService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	cfg, err := s.configFor(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID)

	norm := reconcile.Normalize(req.Imported, req.Ledger)
	log.Info("Normalized input",
		"imported", len(norm.Imported),
		"ledger", len(norm.Ledger),
		"rejected", len(norm.Rejected))
	for _, rej := range norm.Rejected {
		log.Warn("Rejected record", "origin", rej.Origin, "index", rej.Index, "field", rej.Field, "reason", rej.Reason)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partition := reconcile.Resolve(norm.Imported, norm.Ledger, cfg)
	if err := partition.Validate(norm.Imported, norm.Ledger); err != nil {
		log.Error("Partition failed validation", "error", err)
		return nil, fmt.Errorf("resolver produced an inconsistent partition: %w", err)
	}

	report := reconcile.BuildReport(partition, cfg)
	log.Info("Resolved partition",
		"strategy", cfg.Strategy,
		"matched", report.MatchedCount,
		"imported_only", report.ImportedOnlyCount,
		"ledger_only", report.LedgerOnlyCount,
		"likely_duplicates", report.LikelyDuplicateCount)

	importedOrder := make([]string, len(norm.Imported))
	for i, c := range norm.Imported {
		importedOrder[i] = c.ID
	}
	selection := reconcile.NewSelection(partition, importedOrder)

	result := &RunResult{
		RunID:          runID,
		Label:          req.Label,
		CreatedAt:      s.now().UTC(),
		State:          selection.State(),
		Strategy:       cfg.Strategy,
		MatchThreshold: cfg.MatchThreshold,
		Partition:      partition,
		Report:         report,
		Selected:       selection.IDs(),
		Rejected:       norm.Rejected,
	}
	if result.Rejected == nil {
		result.Rejected = []*reconcile.InvalidInputError{}
	}

	if req.Save && s.storage != nil {
		run := &storage.Run{
			ID:             runID,
			Label:          req.Label,
			CreatedAt:      result.CreatedAt,
			Status:         storage.RunStatusPartitioned,
			Strategy:       cfg.Strategy,
			MatchThreshold: cfg.MatchThreshold,
			ImportedCount:  len(req.Imported),
			LedgerCount:    len(req.Ledger),
			Report:         report,
			Partition:      partition,
			ImportedOrder:  importedOrder,
			Rejected:       result.Rejected,
		}
		if err := s.storage.SaveRun(ctx, run); err != nil {
			log.Error("Failed to save run", "error", err)
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		result.Saved = true
		log.Info("Saved run")
	}

	return result, nil
}

// Finalize applies toggles to the default selection of a stored run, confirms
// it, and returns the imported candidates chosen for import. An unknown id in
// toggles fails with *reconcile.InvalidSelectionError and leaves the run
// untouched.
func (s *ReconcileService) Finalize(ctx context.Context, runID string, toggles []string) (*FinalizeResult, error) {
	if s.storage == nil {
		return nil, ErrNoStore
	}

	run, err := s.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status == storage.RunStatusConfirmed {
		return nil, storage.ErrRunConfirmed
	}

	selection := reconcile.NewSelection(run.Partition, run.ImportedOrder)
	for _, id := range toggles {
		if err := selection.Toggle(id); err != nil {
			return nil, err
		}
	}

	confirmed := selection.Finalize()
	if err := s.storage.ConfirmRun(ctx, runID, selection.IDs()); err != nil {
		return nil, fmt.Errorf("failed to confirm run: %w", err)
	}

	s.logger.Info("Confirmed selection", "run_id", runID, "selected", len(confirmed), "toggles", len(toggles))

	return &FinalizeResult{
		RunID:     runID,
		State:     selection.State(),
		Confirmed: confirmed,
	}, nil
}

// GetRun returns a stored run.
func (s *ReconcileService) GetRun(ctx context.Context, runID string) (*storage.Run, error) {
	if s.storage == nil {
		return nil, ErrNoStore
	}
	return s.storage.GetRun(ctx, runID)
}

// ListRuns returns recent stored runs.
func (s *ReconcileService) ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if s.storage == nil {
		return nil, ErrNoStore
	}
	return s.storage.ListRuns(ctx, limit)
}

func (s *ReconcileService) configFor(req RunRequest) (reconcile.Config, error) {
	cfg := s.cfg
	if req.MatchThreshold != nil {
		cfg.MatchThreshold = *req.MatchThreshold
	}
	if req.Strategy != "" {
		cfg.Strategy = req.Strategy
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return cfg, nil
}
