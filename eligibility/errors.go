/*
errors.go - Error types for the eligibility engine

PURPOSE:
  All error types in one place. The taxonomy distinguishes failures that are
  fatal for a whole worker/month unit (worker missing, no policy resolvable)
  from failures that stay local to a single benefit action.

ERROR CATEGORIES:
  1. Fatal-for-unit   - raised to the caller; a queue job records them as
                        its failure
  2. Per-action       - recorded on the individual BenefitAction, siblings
                        still execute
  3. Config validation - structured FieldError lists, surfaced when a policy
                        is authored, never mid-scan
*/
package eligibility

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWorkerNotFound is returned when the scan subject does not exist.
	// Fatal for the whole worker/month unit.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrNoPolicy is returned when no policy resolves for a worker/month.
	// Fatal for the whole worker/month unit.
	ErrNoPolicy = errors.New("no policy resolvable")

	// ErrPolicyNotFound is returned when a referenced policy id does not exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrBenefitNotFound is returned when a referenced benefit id does not exist.
	ErrBenefitNotFound = errors.New("benefit not found")

	// ErrDuplicateRule is returned when two rules register under the same id.
	ErrDuplicateRule = errors.New("rule already registered")

	// ErrUnknownRule is returned when a policy references a rule id that is
	// not in the registry.
	ErrUnknownRule = errors.New("unknown rule")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NoPolicyError reports which worker/month could not be resolved.
type NoPolicyError struct {
	WorkerID string
	Month    int
	Year     int
}

func (e *NoPolicyError) Error() string {
	return fmt.Sprintf("no policy resolvable for worker %s in %s", e.WorkerID, MonthKey(e.Month, e.Year))
}

func (e *NoPolicyError) Unwrap() error { return ErrNoPolicy }

// RuleEvalError wraps a failure inside a rule's Evaluate. It fails the whole
// worker/month unit so a retry sees a clean slate.
type RuleEvalError struct {
	RuleID    string
	BenefitID string
	Err       error
}

func (e *RuleEvalError) Error() string {
	return fmt.Sprintf("rule %s failed evaluating benefit %s: %v", e.RuleID, e.BenefitID, e.Err)
}

func (e *RuleEvalError) Unwrap() error { return e.Err }

// =============================================================================
// CONFIG VALIDATION
// =============================================================================

// FieldError is one field-level message from rule config validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }
