package storage

import (
	"context"
	"errors"
)

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("reconciliation run not found")

	// ErrRunConfirmed is returned when confirming a run that was already confirmed.
	ErrRunConfirmed = errors.New("reconciliation run already confirmed")
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory, etc.)
// and makes testing with mocks straightforward.
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=interfaces.go Repository
type Repository interface {
	RunRepository
	Close() error
}

// RunRepository handles reconciliation run history
type RunRepository interface {
	// SaveRun inserts a new run record
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID, or ErrRunNotFound
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// ConfirmRun stores the final selection and marks the run confirmed
	ConfirmRun(ctx context.Context, id string, selectedIDs []string) error
}
