/*
rule_hours.go - Hours-lookback eligibility rule

The classic trust rule: a worker is eligible for a benefit in month M when
they had recorded hours (summed across all employers) in month M minus N.
The offset N is configurable per policy; the default of 4 reflects the usual
remittance lag between hours being worked and being reported to the trust.
*/
package eligibility

import (
	"context"
	"fmt"
)

// RuleHoursLookback is the registry id of the hours-lookback rule.
const RuleHoursLookback = "hours_lookback"

// DefaultLookbackMonths is the offset used when the config omits it.
const DefaultLookbackMonths = 4

// HoursLookbackRule grants eligibility on nonzero hours in the lookback month.
type HoursLookbackRule struct{}

func (r *HoursLookbackRule) ID() string { return RuleHoursLookback }

func (r *HoursLookbackRule) Evaluate(ctx context.Context, rc *RuleContext, cfg RuleConfig) (RuleResult, error) {
	res := RuleResult{RuleID: r.ID()}

	offset, err := cfg.ConfigInt("lookback_months", DefaultLookbackMonths)
	if err != nil {
		return res, err
	}

	month, year := AddMonths(rc.Month, rc.Year, -offset)
	hours, err := rc.Workers.MonthlyHoursAllEmployers(ctx, rc.WorkerID, month, year)
	if err != nil {
		return res, err
	}

	if hours.IsPositive() {
		res.Eligible = true
		res.Reason = fmt.Sprintf("%s hours recorded in %s", hours.String(), MonthKey(month, year))
	} else {
		res.Reason = fmt.Sprintf("no hours recorded in %s", MonthKey(month, year))
	}
	return res, nil
}

func (r *HoursLookbackRule) ValidateConfig(cfg RuleConfig) []FieldError {
	var errs []FieldError
	offset, err := cfg.ConfigInt("lookback_months", DefaultLookbackMonths)
	if err != nil {
		errs = append(errs, FieldError{Field: "lookback_months", Message: "must be an integer"})
		return errs
	}
	if offset < 1 {
		errs = append(errs, FieldError{Field: "lookback_months", Message: "must be at least 1"})
	}
	return errs
}
