package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]*Run

	// Hooks for test assertions
	SaveRunCalled    bool
	LastSavedRun     *Run
	ConfirmRunCalled bool

	// Error injection for testing error paths
	SaveRunErr    error
	GetRunErr     error
	ListRunsErr   error
	ConfirmRunErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs: make(map[string]*Run),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun stores a copy of run
func (m *MockRepository) SaveRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

// GetRun returns a copy of the stored run
func (m *MockRepository) GetRun(_ context.Context, id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns summaries, newest first
func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	out := make([]RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ConfirmRun marks the stored run confirmed
func (m *MockRepository) ConfirmRun(_ context.Context, id string, selectedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConfirmRunCalled = true
	if m.ConfirmRunErr != nil {
		return m.ConfirmRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	if run.Status == RunStatusConfirmed {
		return ErrRunConfirmed
	}

	now := time.Now().UTC()
	run.Status = RunStatusConfirmed
	run.ConfirmedAt = &now
	run.SelectedIDs = append([]string{}, selectedIDs...)
	return nil
}

// RunCount returns the number of stored runs
func (m *MockRepository) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}
