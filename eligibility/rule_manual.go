/*
rule_manual.go - Manual benefit rule

Marks a benefit as externally managed. The rule is eligible exactly when a
record already exists for the worker/benefit/period, so the engine only ever
mirrors existing state: it never creates a manual benefit on its own
initiative and never deletes one that is present.
*/
package eligibility

import "context"

// RuleManual is the registry id of the manual rule.
const RuleManual = "manual"

// ManualRule mirrors existing record state for externally managed benefits.
type ManualRule struct{}

func (r *ManualRule) ID() string { return RuleManual }

func (r *ManualRule) Evaluate(ctx context.Context, rc *RuleContext, cfg RuleConfig) (RuleResult, error) {
	res := RuleResult{RuleID: r.ID()}

	exists, err := rc.Benefits.WorkerBenefitExists(ctx, rc.WorkerID, rc.BenefitID, rc.Month, rc.Year)
	if err != nil {
		return res, err
	}
	if exists {
		res.Eligible = true
		res.Reason = "manually managed benefit record exists for this month"
	} else {
		res.Reason = "manually managed benefit; no record for this month"
	}
	return res, nil
}

// ValidateConfig accepts any config; the manual rule takes no parameters.
func (r *ManualRule) ValidateConfig(cfg RuleConfig) []FieldError { return nil }
