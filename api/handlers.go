/*
handlers.go - HTTP handlers for the reconciliation subsystem

PURPOSE:
  Thin JSON surface over the engine and the scan queue, used by the admin
  application and by the external scheduler's direct invocations.

ENDPOINTS:
  Reference data:
    GET    /api/workers                 List workers
    GET    /api/benefits                List benefits
    GET    /api/policies                List policies
    POST   /api/policies                Create policy from JSON (validated)

  Scans:
    POST   /api/workers/{id}/scan      Run one worker's scan (test or live)
    DELETE /api/workers/{id}/scans     Invalidate queued scans for a worker
    POST   /api/scans/enqueue          Materialize jobs for a month
    GET    /api/scans/status           Queue counts by status
    POST   /api/scans/execute          The scheduler contract (test/live)
    POST   /api/scans/requeue          Requeue failed jobs, bounded by the
                                       attempt cap

ERROR HANDLING:
  400 invalid input, 404 missing worker/policy, 422 config validation
  problems (field list), 500 everything else.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/factory"
	"github.com/warp/benefits-engine/scanqueue"
)

// Store is what the HTTP layer needs from persistence beyond the engine's
// own store interfaces. Satisfied by store/sqlite and store/memory.
type Store interface {
	ListWorkers(ctx context.Context) ([]eligibility.Worker, error)
	AllBenefits(ctx context.Context) ([]eligibility.Benefit, error)
	ListPolicies(ctx context.Context) ([]eligibility.Policy, error)
	SavePolicy(ctx context.Context, p eligibility.Policy) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Queue   scanqueue.Store
	Engine  scanqueue.Scanner
	Driver  *scanqueue.Driver
	Factory *factory.PolicyFactory

	// MaxAttempts bounds requeue-failed; <= 0 means unbounded.
	MaxAttempts int

	Log *zap.SugaredLogger
}

// NewHandler wires a handler. A nil logger is replaced with a no-op logger.
func NewHandler(store Store, queue scanqueue.Store, engine scanqueue.Scanner, driver *scanqueue.Driver, f *factory.PolicyFactory, maxAttempts int, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		Store:       store,
		Queue:       queue,
		Engine:      engine,
		Driver:      driver,
		Factory:     f,
		MaxAttempts: maxAttempts,
		Log:         log,
	}
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (h *Handler) ListBenefits(w http.ResponseWriter, r *http.Request) {
	benefits, err := h.Store.AllBenefits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, benefits)
}

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

// CreatePolicy parses, validates and saves a policy authored as JSON.
// Validation problems come back as a 422 with the field-error list, so a
// malformed rule config never reaches a scan.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	policy, fieldErrs, err := h.Factory.ParsePolicy(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "policy validation failed",
			Fields: fieldErrs,
		})
		return
	}

	if err := h.Store.SavePolicy(r.Context(), *policy); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Log.Infow("policy saved", "policy_id", policy.ID)
	writeJSON(w, http.StatusCreated, policy)
}

// =============================================================================
// SCANS
// =============================================================================

// RunScan runs the reconciliation engine synchronously for one worker.
// The same entry point the queue uses, exposed for on-demand use.
func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req RunScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = eligibility.ModeTest
	}

	result, err := h.Engine.RunBenefitsScan(r.Context(), workerID, req.Month, req.Year, req.Mode)
	if err != nil {
		switch {
		case errors.Is(err, eligibility.ErrWorkerNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, eligibility.ErrNoPolicy):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) InvalidateScans(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")
	removed, err := h.Queue.InvalidateWorkerScans(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: removed})
}

func (h *Handler) EnqueueMonth(w http.ResponseWriter, r *http.Request) {
	var req EnqueueMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !eligibility.ValidMonth(req.Month, req.Year) {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	batchID, queued, err := h.Queue.EnqueueMonth(r.Context(), req.Month, req.Year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Log.Infow("month enqueued",
		"month", eligibility.MonthKey(req.Month, req.Year),
		"batch_id", batchID,
		"queued", queued)
	writeJSON(w, http.StatusOK, EnqueueMonthResponse{BatchID: batchID, Queued: queued})
}

func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Queue.PendingSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Execute is the external scheduler's invocation contract.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.Driver.Execute(r.Context(), scanqueue.Request{
		Mode:      req.Mode,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) RequeueFailed(w http.ResponseWriter, r *http.Request) {
	var req RequeueFailedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requeued, err := h.Queue.RequeueFailed(r.Context(), req.Month, req.Year, h.MaxAttempts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: requeued})
}
