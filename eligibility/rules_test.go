package eligibility_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func ruleCtx(st *memory.Store, scan eligibility.ScanType, workerID, benefitID string, month, year int) *eligibility.RuleContext {
	return &eligibility.RuleContext{
		ScanType:  scan,
		WorkerID:  workerID,
		Month:     month,
		Year:      year,
		BenefitID: benefitID,
		Workers:   st,
		Benefits:  st,
	}
}

// =============================================================================
// HOURS LOOKBACK
// =============================================================================

func TestHoursLookback_DefaultOffset_ChecksFourMonthsBack(t *testing.T) {
	// GIVEN: Hours recorded in 2024-10 only
	// WHEN: Evaluating 2025-02 with the default lookback of 4 months
	// THEN: The worker is eligible, because 2025-02 minus 4 is 2024-10

	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})
	st.SetMonthlyHours("w-1", 10, 2024, decimal.NewFromInt(120))

	rule := &eligibility.HoursLookbackRule{}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), nil)

	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Contains(t, res.Reason, "2024-10")
}

func TestHoursLookback_ZeroHours_Ineligible(t *testing.T) {
	// GIVEN: No hours in the lookback month
	// WHEN: Evaluating
	// THEN: Ineligible, with the lookback month in the reason

	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})

	rule := &eligibility.HoursLookbackRule{}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanContinue, "w-1", "b-1", 2, 2025), nil)

	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Reason, "no hours recorded in 2024-10")
}

func TestHoursLookback_CustomOffset(t *testing.T) {
	// GIVEN: Hours in 2024-12, a configured lookback of 2
	// WHEN: Evaluating 2025-02
	// THEN: Eligible (2025-02 minus 2 is 2024-12)

	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})
	st.SetMonthlyHours("w-1", 12, 2024, decimal.NewFromFloat(37.5))

	rule := &eligibility.HoursLookbackRule{}
	cfg := eligibility.RuleConfig{"lookback_months": float64(2)}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), cfg)

	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Contains(t, res.Reason, "37.5 hours recorded in 2024-12")
}

func TestHoursLookback_ValidateConfig(t *testing.T) {
	rule := &eligibility.HoursLookbackRule{}

	assert.Empty(t, rule.ValidateConfig(nil))
	assert.Empty(t, rule.ValidateConfig(eligibility.RuleConfig{"lookback_months": float64(6)}))

	errs := rule.ValidateConfig(eligibility.RuleConfig{"lookback_months": "four"})
	require.Len(t, errs, 1)
	assert.Equal(t, "lookback_months", errs[0].Field)

	errs = rule.ValidateConfig(eligibility.RuleConfig{"lookback_months": float64(0)})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "at least 1")
}

// =============================================================================
// WORK STATUS
// =============================================================================

func TestWorkStatus_AllowedStatus_Eligible(t *testing.T) {
	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", WorkStatusID: "active-member", Active: true})

	rule := &eligibility.WorkStatusRule{}
	cfg := eligibility.RuleConfig{"status_ids": []any{"active-member", "retiree"}}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), cfg)

	require.NoError(t, err)
	assert.True(t, res.Eligible)
}

func TestWorkStatus_DisallowedStatus_Ineligible(t *testing.T) {
	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", WorkStatusID: "suspended", Active: true})

	rule := &eligibility.WorkStatusRule{}
	cfg := eligibility.RuleConfig{"status_ids": []any{"active-member"}}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), cfg)

	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Reason, "suspended")
}

func TestWorkStatus_NoStatusSet_IneligibleNotError(t *testing.T) {
	// GIVEN: A worker with no work status assigned
	// WHEN: Evaluating the status rule
	// THEN: Ineligible, but no error

	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})

	rule := &eligibility.WorkStatusRule{}
	cfg := eligibility.RuleConfig{"status_ids": []any{"active-member"}}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), cfg)

	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, "worker has no work status set", res.Reason)
}

func TestWorkStatus_ValidateConfig(t *testing.T) {
	rule := &eligibility.WorkStatusRule{}

	assert.Empty(t, rule.ValidateConfig(eligibility.RuleConfig{"status_ids": []any{"a"}}))

	errs := rule.ValidateConfig(eligibility.RuleConfig{"status_ids": "a"})
	require.Len(t, errs, 1)
	assert.Equal(t, "status_ids", errs[0].Field)

	errs = rule.ValidateConfig(eligibility.RuleConfig{"status_ids": []any{}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "at least one")
}

// =============================================================================
// MANUAL
// =============================================================================

func TestManual_RecordExists_Eligible(t *testing.T) {
	// GIVEN: A record for the worker/benefit/month already exists
	// WHEN: Evaluating the manual rule
	// THEN: Eligible, so the engine mirrors the existing state

	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})
	require.NoError(t, st.CreateWorkerBenefit(context.Background(), eligibility.WMBRecord{
		ID: "rec-1", WorkerID: "w-1", BenefitID: "b-1", Month: 2, Year: 2025,
	}))

	rule := &eligibility.ManualRule{}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanContinue, "w-1", "b-1", 2, 2025), nil)

	require.NoError(t, err)
	assert.True(t, res.Eligible)
}

func TestManual_NoRecord_Ineligible(t *testing.T) {
	st := memory.New()
	st.AddWorker(eligibility.Worker{ID: "w-1", Active: true})

	rule := &eligibility.ManualRule{}
	res, err := rule.Evaluate(context.Background(), ruleCtx(st, eligibility.ScanStart, "w-1", "b-1", 2, 2025), nil)

	require.NoError(t, err)
	assert.False(t, res.Eligible)
}

// =============================================================================
// CONFIG ACCESSORS AND BASE VALIDATION
// =============================================================================

func TestConfigInt_Shapes(t *testing.T) {
	cfg := eligibility.RuleConfig{"n": float64(4)}
	n, err := cfg.ConfigInt("n", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = cfg.ConfigInt("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = eligibility.RuleConfig{"n": 2.5}.ConfigInt("n", 1)
	assert.Error(t, err)

	_, err = eligibility.RuleConfig{"n": "four"}.ConfigInt("n", 1)
	assert.Error(t, err)
}

func TestValidateBaseConfig(t *testing.T) {
	errs := eligibility.ValidateBaseConfig(eligibility.ConfiguredRule{RuleID: "r"})
	require.Len(t, errs, 1)
	assert.Equal(t, "applies_to", errs[0].Field)

	errs = eligibility.ValidateBaseConfig(eligibility.ConfiguredRule{
		RuleID:    "r",
		AppliesTo: []eligibility.ScanType{"restart"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "restart")

	errs = eligibility.ValidateBaseConfig(eligibility.ConfiguredRule{
		RuleID:    "r",
		AppliesTo: []eligibility.ScanType{eligibility.ScanStart, eligibility.ScanContinue},
	})
	assert.Empty(t, errs)
}
