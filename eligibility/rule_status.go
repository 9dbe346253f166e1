/*
rule_status.go - Work-status membership rule

Grants eligibility when the worker's current work-status id is in the
configured allow-list. A worker with no status set is ineligible, not an
error: the status is denormalized onto the worker and may simply not have
been assigned yet.
*/
package eligibility

import (
	"context"
	"fmt"
)

// RuleWorkStatus is the registry id of the work-status membership rule.
const RuleWorkStatus = "work_status"

// WorkStatusRule checks the worker's current status against an allow-list.
type WorkStatusRule struct{}

func (r *WorkStatusRule) ID() string { return RuleWorkStatus }

func (r *WorkStatusRule) Evaluate(ctx context.Context, rc *RuleContext, cfg RuleConfig) (RuleResult, error) {
	res := RuleResult{RuleID: r.ID()}

	allowed, err := cfg.ConfigStrings("status_ids")
	if err != nil {
		return res, err
	}

	worker, err := rc.Workers.GetWorker(ctx, rc.WorkerID)
	if err != nil {
		return res, err
	}

	if worker.WorkStatusID == "" {
		res.Reason = "worker has no work status set"
		return res, nil
	}

	for _, id := range allowed {
		if id == worker.WorkStatusID {
			res.Eligible = true
			res.Reason = fmt.Sprintf("work status %s is allowed", worker.WorkStatusID)
			return res, nil
		}
	}
	res.Reason = fmt.Sprintf("work status %s is not in the allowed set", worker.WorkStatusID)
	return res, nil
}

func (r *WorkStatusRule) ValidateConfig(cfg RuleConfig) []FieldError {
	var errs []FieldError
	allowed, err := cfg.ConfigStrings("status_ids")
	if err != nil {
		errs = append(errs, FieldError{Field: "status_ids", Message: "must be a list of status ids"})
		return errs
	}
	if len(allowed) == 0 {
		errs = append(errs, FieldError{Field: "status_ids", Message: "must list at least one status id"})
	}
	return errs
}
