/*
executor.go - Per-benefit rule execution

PURPOSE:
  Runs the ordered rule list configured for one benefit and folds the
  results into a single verdict. Overall eligibility is the logical AND of
  every applicable rule.

AUDIT TRAIL:
  With StopOnIneligible unset (the default), every applicable rule is
  evaluated even after one returns ineligible, so the verdict carries a
  complete per-rule trail for display. Setting the flag short-circuits on
  the first ineligible result.
*/
package eligibility

import (
	"context"
	"fmt"
)

// ReasonNoApplicableRules is the verdict reason when no configured rule
// applies to the current scan classification. Policy authors are expected
// to configure at least one rule per classification they intend to support.
const ReasonNoApplicableRules = "no applicable rules for scan type"

// Verdict is the folded outcome of executing one benefit's rules.
type Verdict struct {
	Eligible bool
	Reason   string
	Results  []RuleResult
}

// Executor evaluates configured rules against the registry.
type Executor struct {
	Registry *Registry

	// StopOnIneligible short-circuits after the first ineligible rule
	// instead of producing a complete audit trail.
	StopOnIneligible bool
}

// NewExecutor returns an executor over the given registry.
func NewExecutor(reg *Registry) *Executor {
	return &Executor{Registry: reg}
}

// Run evaluates the rules applicable to rc.ScanType, in configured order.
// An unknown rule id or an error inside a rule's Evaluate fails the call;
// per-rule errors are not isolated (a failed scan retries cleanly).
func (e *Executor) Run(ctx context.Context, rc *RuleContext, rules []ConfiguredRule) (Verdict, error) {
	v := Verdict{Eligible: true}

	applied := 0
	for _, cr := range rules {
		if !cr.AppliesToScan(rc.ScanType) {
			continue
		}
		applied++

		rule, ok := e.Registry.Get(cr.RuleID)
		if !ok {
			return Verdict{}, fmt.Errorf("benefit %s: rule %q: %w", rc.BenefitID, cr.RuleID, ErrUnknownRule)
		}

		res, err := rule.Evaluate(ctx, rc, cr.Config)
		if err != nil {
			return Verdict{}, &RuleEvalError{RuleID: cr.RuleID, BenefitID: rc.BenefitID, Err: err}
		}
		v.Results = append(v.Results, res)

		if !res.Eligible {
			v.Eligible = false
			if v.Reason == "" {
				v.Reason = res.Reason
			}
			if e.StopOnIneligible {
				break
			}
		}
	}

	if applied == 0 {
		return Verdict{Eligible: false, Reason: ReasonNoApplicableRules}, nil
	}
	if v.Eligible {
		v.Reason = fmt.Sprintf("passed %d applicable rule(s)", applied)
	}
	return v, nil
}
