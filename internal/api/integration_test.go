package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/api"
	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// HTTP request → Router → Handlers → Service → Storage → SQLite

func createTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "api_integration.db"), storage.WithLogger(testLogger()))
	require.NoError(t, err)

	svc := service.NewReconcileService(reconcile.DefaultConfig(), store, testLogger())
	server := api.NewServer(api.DefaultConfig(), svc, testLogger())
	ts := httptest.NewServer(server.Router())

	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})

	return ts, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Integration_RunLifecycle(t *testing.T) {
	ts, store := createTestServer(t)

	// Create
	resp := postJSON(t, ts.URL+"/api/reconciliations", reconcileBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.ReconcileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// Read back through SQLite
	getResp, err := http.Get(ts.URL + "/api/reconciliations/" + created.RunID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var run dto.RunResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&run))
	assert.Equal(t, created.Partition, run.Partition)
	assert.True(t, created.Report.NewTransactionsTotal.Equal(run.Report.NewTransactionsTotal))
	require.Len(t, run.Rejected, 1)
	assert.Equal(t, reconcile.OriginImported, run.Rejected[0].Origin)

	// Finalize
	finResp := postJSON(t, ts.URL+"/api/reconciliations/"+created.RunID+"/finalize", `{"toggle": ["s3", "s1"]}`)
	require.Equal(t, http.StatusOK, finResp.StatusCode)
	var fin dto.FinalizeResponse
	require.NoError(t, json.NewDecoder(finResp.Body).Decode(&fin))
	require.Len(t, fin.Confirmed, 1)
	assert.Equal(t, "s1", fin.Confirmed[0].ID)

	stored, err := store.GetRun(context.Background(), created.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusConfirmed, stored.Status)
	assert.Equal(t, []string{"s1"}, stored.SelectedIDs)
	assert.NotNil(t, stored.ConfirmedAt)

	// Second finalize conflicts
	again := postJSON(t, ts.URL+"/api/reconciliations/"+created.RunID+"/finalize", "")
	assert.Equal(t, http.StatusConflict, again.StatusCode)

	// Listed with its counts
	listResp, err := http.Get(ts.URL + "/api/reconciliations")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list dto.RunListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, storage.RunStatusConfirmed, list.Runs[0].Status)
	assert.Equal(t, 2, list.Runs[0].MatchedCount)
	assert.Equal(t, "100.5", list.Runs[0].NewTransactionsTotal)
}

func TestAPI_Integration_EmptyList(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/api/reconciliations")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.RunListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Runs)
}
