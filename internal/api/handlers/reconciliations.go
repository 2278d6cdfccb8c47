package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// maxListLimit caps GET /api/reconciliations?limit=
const maxListLimit = 200

// ReconciliationsHandler handles reconciliation run requests.
type ReconciliationsHandler struct {
	*Base
	svc *service.ReconcileService
}

// NewReconciliationsHandler creates a new reconciliations handler.
func NewReconciliationsHandler(svc *service.ReconcileService, logger *slog.Logger) *ReconciliationsHandler {
	return &ReconciliationsHandler{
		Base: NewBase(logger),
		svc:  svc,
	}
}

// Create handles POST /api/reconciliations - computes and stores a run.
func (h *ReconciliationsHandler) Create(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.svc.Run(c.Request.Context(), service.RunRequest{
		Imported:       req.Imported,
		Ledger:         req.Ledger,
		Label:          req.Label,
		MatchThreshold: req.MatchThreshold,
		Strategy:       req.Strategy,
		Save:           !req.DryRun,
	})
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Saved {
		status = http.StatusOK
	}

	h.WriteJSON(c, status, dto.ReconcileResponse{
		RunID:          result.RunID,
		Label:          result.Label,
		CreatedAt:      result.CreatedAt.Format(time.RFC3339),
		State:          string(result.State),
		Strategy:       result.Strategy,
		MatchThreshold: result.MatchThreshold,
		Saved:          result.Saved,
		Partition:      result.Partition,
		Report:         result.Report,
		Selected:       result.Selected,
		Rejected:       result.Rejected,
	})
}

// List handles GET /api/reconciliations - returns recent runs.
func (h *ReconciliationsHandler) List(c *gin.Context) {
	limit := ParseIntParam(c, "limit", dto.DefaultRunListParams().Limit)
	if limit <= 0 {
		limit = dto.DefaultRunListParams().Limit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunSummaryResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunSummaryResponse(run))
	}

	h.WriteJSON(c, http.StatusOK, response)
}

// Get handles GET /api/reconciliations/:id - returns a stored run.
func (h *ReconciliationsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.svc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, toRunResponse(run))
}

// Finalize handles POST /api/reconciliations/:id/finalize - applies toggles
// to the default selection and confirms the run.
func (h *ReconciliationsHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeRequest
	// an empty body confirms the default selection
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
			return
		}
	}

	result, err := h.svc.Finalize(c.Request.Context(), c.Param("id"), req.Toggle)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.FinalizeResponse{
		RunID:     result.RunID,
		State:     string(result.State),
		Count:     len(result.Confirmed),
		Confirmed: result.Confirmed,
	})
}

// toRunSummaryResponse converts a storage RunSummary to an API response.
func toRunSummaryResponse(run storage.RunSummary) dto.RunSummaryResponse {
	return dto.RunSummaryResponse{
		ID:                   run.ID,
		Label:                run.Label,
		CreatedAt:            run.CreatedAt.UTC().Format(time.RFC3339),
		Status:               run.Status,
		Strategy:             run.Strategy,
		MatchThreshold:       run.MatchThreshold,
		ImportedCount:        run.ImportedCount,
		LedgerCount:          run.LedgerCount,
		MatchedCount:         run.MatchedCount,
		ImportedOnlyCount:    run.ImportedOnlyCount,
		LedgerOnlyCount:      run.LedgerOnlyCount,
		LikelyDuplicateCount: run.LikelyDuplicateCount,
		NewTransactionsTotal: run.NewTransactionsTotal,
	}
}

// toRunResponse converts a storage Run to an API response.
func toRunResponse(run *storage.Run) dto.RunResponse {
	resp := dto.RunResponse{
		ID:             run.ID,
		Label:          run.Label,
		CreatedAt:      run.CreatedAt.UTC().Format(time.RFC3339),
		Status:         run.Status,
		Strategy:       run.Strategy,
		MatchThreshold: run.MatchThreshold,
		ImportedCount:  run.ImportedCount,
		LedgerCount:    run.LedgerCount,
		Partition:      run.Partition,
		Report:         run.Report,
		Rejected:       run.Rejected,
		SelectedIDs:    run.SelectedIDs,
	}
	if run.ConfirmedAt != nil {
		resp.ConfirmedAt = run.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
