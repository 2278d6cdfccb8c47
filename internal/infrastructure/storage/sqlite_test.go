package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// newTestRun builds a run from a small real reconciliation
func newTestRun(t *testing.T, id string, createdAt time.Time) *Run {
	t.Helper()

	norm := reconcile.Normalize(
		[]reconcile.ImportedRecord{
			{ID: "s1", Date: "2024-08-11", Amount: "-29.90", Description: "PAGAMENTO NETFLIX", Direction: "expense"},
			{ID: "s2", Date: "2024-08-12", Amount: "100.50", Description: "Mercado"},
			{ID: "s3", Date: "not a date", Amount: "1"},
		},
		[]reconcile.LedgerRecord{
			{ID: "t1", Date: "2024-08-11", Amount: "29.90", Description: "Netflix", Direction: "expense"},
			{ID: "t2", Date: "2024-07-01", Amount: "42", Description: "Rent", Direction: "expense"},
		},
	)
	cfg := reconcile.DefaultConfig()
	partition := reconcile.Resolve(norm.Imported, norm.Ledger, cfg)
	require.Len(t, partition.Matched, 1)

	return &Run{
		ID:             id,
		Label:          "august.csv",
		CreatedAt:      createdAt,
		Status:         RunStatusPartitioned,
		Strategy:       cfg.Strategy,
		MatchThreshold: cfg.MatchThreshold,
		ImportedCount:  3,
		LedgerCount:    2,
		Report:         reconcile.BuildReport(partition, cfg),
		Partition:      partition,
		ImportedOrder:  []string{"s1", "s2"},
		Rejected:       norm.Rejected,
	}
}

func openTestStore(t *testing.T) *Storage {
	t.Helper()
	tmpDB := createTempDB(t)
	t.Cleanup(func() { os.Remove(tmpDB) })

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	// Arrange
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 8, 15, 10, 30, 0, 0, time.UTC)
	run := newTestRun(t, "run-1", created)

	// Act
	require.NoError(t, store.SaveRun(ctx, run))
	got, err := store.GetRun(ctx, "run-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, "august.csv", got.Label)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.ConfirmedAt)
	assert.Equal(t, RunStatusPartitioned, got.Status)
	assert.Equal(t, "greedy", got.Strategy)
	assert.Equal(t, 50, got.MatchThreshold)
	assert.Equal(t, []string{"s1", "s2"}, got.ImportedOrder)
	assert.Nil(t, got.SelectedIDs)

	require.Len(t, got.Partition.Matched, 1)
	m := got.Partition.Matched[0]
	assert.Equal(t, "s1", m.Imported.ID)
	assert.Equal(t, "t1", m.Ledger.ID)
	assert.Equal(t, 95, m.Score.Total)
	assert.Equal(t, reconcile.BandHigh, m.Score.Band)
	assert.Equal(t, "29.9", m.Imported.Amount.String())

	require.Len(t, got.Partition.ImportedOnly, 1)
	assert.Equal(t, "s2", got.Partition.ImportedOnly[0].ID)
	require.Len(t, got.Partition.LedgerOnly, 1)
	assert.Equal(t, "t2", got.Partition.LedgerOnly[0].ID)

	assert.Equal(t, 1, got.Report.LikelyDuplicateCount)
	assert.Equal(t, "100.5", got.Report.NewTransactionsTotal.String())

	require.Len(t, got.Rejected, 1)
	assert.Equal(t, "date", got.Rejected[0].Field)
	assert.Equal(t, reconcile.OriginImported, got.Rejected[0].Origin)
}

func TestStorage_GetRun_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStorage_SaveRun_DuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := newTestRun(t, "dup", time.Now())

	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}

func TestStorage_ListRuns(t *testing.T) {
	// Arrange
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, store.SaveRun(ctx, newTestRun(t, id, base.Add(time.Duration(i)*time.Hour))))
	}

	// Act
	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].ID)
	assert.Equal(t, "oldest", all[2].ID)
	assert.Equal(t, 1, all[0].MatchedCount)
	assert.Equal(t, 1, all[0].ImportedOnlyCount)
	assert.Equal(t, 1, all[0].LedgerOnlyCount)
	assert.Equal(t, "100.5", all[0].NewTransactionsTotal)

	require.Len(t, limited, 2)
	assert.Equal(t, []string{"newest", "middle"}, []string{limited[0].ID, limited[1].ID})
}

func TestStorage_ListRuns_Empty(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.ListRuns(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStorage_ConfirmRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, newTestRun(t, "run-1", time.Now())))

	require.NoError(t, store.ConfirmRun(ctx, "run-1", []string{"s2"}))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusConfirmed, got.Status)
	assert.NotNil(t, got.ConfirmedAt)
	assert.Equal(t, []string{"s2"}, got.SelectedIDs)

	assert.ErrorIs(t, store.ConfirmRun(ctx, "run-1", nil), ErrRunConfirmed)
	assert.ErrorIs(t, store.ConfirmRun(ctx, "missing", nil), ErrRunNotFound)
}

func TestStorage_ConfirmRun_EmptySelection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, newTestRun(t, "run-1", time.Now())))

	require.NoError(t, store.ConfirmRun(ctx, "run-1", nil))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.NotNil(t, got.SelectedIDs)
	assert.Empty(t, got.SelectedIDs)
}

func TestMockRepository_MatchesStorageBehavior(t *testing.T) {
	mock := NewMockRepository()
	ctx := context.Background()
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mock.SaveRun(ctx, newTestRun(t, "a", base)))
	require.NoError(t, mock.SaveRun(ctx, newTestRun(t, "b", base.Add(time.Minute))))
	assert.True(t, mock.SaveRunCalled)
	assert.Equal(t, "b", mock.LastSavedRun.ID)
	assert.Equal(t, 2, mock.RunCount())

	runs, err := mock.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].ID)

	_, err = mock.GetRun(ctx, "zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, mock.ConfirmRun(ctx, "a", []string{"s2"}))
	assert.ErrorIs(t, mock.ConfirmRun(ctx, "a", nil), ErrRunConfirmed)

	got, err := mock.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, RunStatusConfirmed, got.Status)
	assert.Equal(t, []string{"s2"}, got.SelectedIDs)
}

func TestMockRepository_ErrorInjection(t *testing.T) {
	mock := NewMockRepository()
	mock.SaveRunErr = assert.AnError

	err := mock.SaveRun(context.Background(), newTestRun(t, "a", time.Now()))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, mock.RunCount())
}
