/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract. Validation is done in handlers; DTOs are pure
  data carriers.
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/warp/benefits-engine/eligibility"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EnqueueMonthRequest asks the queue to materialize jobs for a month.
type EnqueueMonthRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// RunScanRequest runs the reconciliation engine for one worker.
type RunScanRequest struct {
	Month int              `json:"month"`
	Year  int              `json:"year"`
	Mode  eligibility.Mode `json:"mode"`
}

// ExecuteRequest mirrors the external scheduler's invocation context.
type ExecuteRequest struct {
	Mode      eligibility.Mode `json:"mode"`
	BatchSize int              `json:"batch_size"`
}

// RequeueFailedRequest resets failed jobs for a month back to pending.
type RequeueFailedRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EnqueueMonthResponse reports one enqueue invocation.
type EnqueueMonthResponse struct {
	BatchID string `json:"batch_id"`
	Queued  int    `json:"queued"`
}

// CountResponse reports operations that return an affected-row count.
type CountResponse struct {
	Count int `json:"count"`
}

// ValidationErrorResponse carries field-level config validation messages.
type ValidationErrorResponse struct {
	Error  string                   `json:"error"`
	Fields []eligibility.FieldError `json:"fields"`
}

// ErrorResponse is the generic error shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// JSON HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
