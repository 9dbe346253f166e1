/*
engine.go - The reconciliation engine

PURPOSE:
  For one worker and one target month, decides per benefit whether a
  worker-monthly-benefit record should exist, then computes and (in live
  mode) executes create-or-delete actions against the store.

STATE MACHINE per (worker, month, year):
  1. Resolve policy; fail the whole unit if none resolves.
  2. Load the worker's WMB records; partition previous vs. target month.
  3. Per benefit: classify start/continue, run the executor, then apply
     the 2x2 reconciliation table on (eligible, has current record).
  4. Test mode stops after computing actions (dry run).
  5. Live mode executes each action independently; one action's failure
     never aborts its siblings.
  6. Summarize. Created/deleted counts reflect successful executions only.

FAILURE SEMANTICS:
  Worker-not-found, policy-resolution failure and rule-evaluation errors
  are fatal for the unit and raised to the caller. Storage failures while
  executing a single action are recorded on that action only.
*/
package eligibility

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// ACTIONS AND RESULTS
// =============================================================================

// Action is the reconciliation decision for one benefit.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
	ActionNone   Action = "none"
)

// BenefitAction is the full per-benefit outcome: classification, rule
// trail, decision, and (in live mode) execution status.
type BenefitAction struct {
	BenefitID   string       `json:"benefit_id"`
	ScanType    ScanType     `json:"scan_type"`
	Eligible    bool         `json:"eligible"`
	RuleResults []RuleResult `json:"rule_results,omitempty"`
	Action      Action       `json:"action"`
	Reason      string       `json:"reason"`

	// RecordID is the existing record targeted by a delete action.
	RecordID string `json:"record_id,omitempty"`

	// Execution status, live mode only.
	Executed       bool   `json:"executed"`
	ExecutionError string `json:"execution_error,omitempty"`
}

// ScanSummary counts the outcome of one worker/month scan.
type ScanSummary struct {
	Evaluated  int `json:"evaluated"`
	Eligible   int `json:"eligible"`
	Ineligible int `json:"ineligible"`
	Created    int `json:"created"`
	Deleted    int `json:"deleted"`
	Unchanged  int `json:"unchanged"`
}

// ScanResult is the complete outcome of scanning one worker for one month.
type ScanResult struct {
	WorkerID   string          `json:"worker_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Mode       Mode            `json:"mode"`
	PolicyID   string          `json:"policy_id"`
	EmployerID string          `json:"employer_id,omitempty"`
	Actions    []BenefitAction `json:"actions"`
	Summary    ScanSummary     `json:"summary"`
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine reconciles benefit eligibility for one worker/month at a time.
type Engine struct {
	Workers  WorkerStore
	Benefits BenefitStore
	Resolver *PolicyResolver
	Executor *Executor
}

// NewEngine wires an engine over the given stores and registry.
func NewEngine(workers WorkerStore, benefits BenefitStore, policies PolicyStore, reg *Registry) *Engine {
	return &Engine{
		Workers:  workers,
		Benefits: benefits,
		Resolver: NewPolicyResolver(policies),
		Executor: NewExecutor(reg),
	}
}

// RunBenefitsScan evaluates and reconciles every benefit of the worker's
// resolved policy for the target month. In ModeTest nothing is written.
func (e *Engine) RunBenefitsScan(ctx context.Context, workerID string, month, year int, mode Mode) (*ScanResult, error) {
	if !ValidMonth(month, year) {
		return nil, fmt.Errorf("invalid target month %d/%d", month, year)
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("invalid scan mode %q", mode)
	}

	worker, err := e.Workers.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	policy, err := e.Resolver.Resolve(ctx, worker, month, year)
	if err != nil {
		return nil, err
	}

	records, err := e.Benefits.WorkerBenefits(ctx, workerID)
	if err != nil {
		return nil, err
	}
	prevMonth, prevYear := PrevMonth(month, year)
	previous := make(map[string]WMBRecord)
	current := make(map[string]WMBRecord)
	for _, rec := range records {
		switch {
		case rec.Month == prevMonth && rec.Year == prevYear:
			previous[rec.BenefitID] = rec
		case rec.Month == month && rec.Year == year:
			current[rec.BenefitID] = rec
		}
	}

	result := &ScanResult{
		WorkerID:   workerID,
		Month:      month,
		Year:       year,
		Mode:       mode,
		PolicyID:   policy.ID,
		EmployerID: worker.EmployerID,
	}

	for _, benefitID := range policy.BenefitIDs {
		action, err := e.evaluateBenefit(ctx, worker, policy, benefitID, month, year, previous, current)
		if err != nil {
			return nil, err
		}
		result.Actions = append(result.Actions, action)

		result.Summary.Evaluated++
		if action.Eligible {
			result.Summary.Eligible++
		} else {
			result.Summary.Ineligible++
		}
	}

	if mode == ModeLive {
		e.executeActions(ctx, worker, month, year, result)
	}

	// Unchanged counts every benefit that ended the scan without a
	// successful create or delete.
	result.Summary.Unchanged = result.Summary.Evaluated - result.Summary.Created - result.Summary.Deleted

	return result, nil
}

// evaluateBenefit classifies the scan, runs the rules, and applies the 2x2
// reconciliation table.
func (e *Engine) evaluateBenefit(
	ctx context.Context,
	worker *Worker,
	policy *Policy,
	benefitID string,
	month, year int,
	previous, current map[string]WMBRecord,
) (BenefitAction, error) {
	scanType := ScanStart
	if _, held := previous[benefitID]; held {
		scanType = ScanContinue
	}

	rc := &RuleContext{
		ScanType:  scanType,
		WorkerID:  worker.ID,
		Month:     month,
		Year:      year,
		BenefitID: benefitID,
		Workers:   e.Workers,
		Benefits:  e.Benefits,
	}

	verdict, err := e.Executor.Run(ctx, rc, policy.RulesFor(benefitID))
	if err != nil {
		return BenefitAction{}, err
	}

	action := BenefitAction{
		BenefitID:   benefitID,
		ScanType:    scanType,
		Eligible:    verdict.Eligible,
		RuleResults: verdict.Results,
	}

	existing, hasRecord := current[benefitID]
	switch {
	case verdict.Eligible && !hasRecord:
		action.Action = ActionCreate
		action.Reason = verdict.Reason
	case verdict.Eligible && hasRecord:
		action.Action = ActionNone
		action.Reason = "already has benefit for this month"
	case !verdict.Eligible && hasRecord:
		action.Action = ActionDelete
		action.RecordID = existing.ID
		action.Reason = fmt.Sprintf("failed %s eligibility scan; removing existing record", scanType)
	default:
		action.Action = ActionNone
		action.Reason = fmt.Sprintf("failed %s eligibility scan; no record to remove", scanType)
	}
	return action, nil
}

// executeActions applies create/delete actions in live mode. Each action is
// executed independently so a storage failure on one benefit never blocks
// the others; the failure is recorded on that action.
func (e *Engine) executeActions(ctx context.Context, worker *Worker, month, year int, result *ScanResult) {
	for i := range result.Actions {
		action := &result.Actions[i]
		switch action.Action {
		case ActionCreate:
			rec := WMBRecord{
				ID:         uuid.NewString(),
				WorkerID:   worker.ID,
				BenefitID:  action.BenefitID,
				Month:      month,
				Year:       year,
				EmployerID: worker.EmployerID,
			}
			if err := e.Benefits.CreateWorkerBenefit(ctx, rec); err != nil {
				action.ExecutionError = err.Error()
				continue
			}
			action.Executed = true
			action.RecordID = rec.ID
			result.Summary.Created++

		case ActionDelete:
			if err := e.Benefits.DeleteWorkerBenefit(ctx, action.RecordID); err != nil {
				action.ExecutionError = err.Error()
				continue
			}
			action.Executed = true
			result.Summary.Deleted++
		}
	}
}
