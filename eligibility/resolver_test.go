package eligibility_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testPolicy(id string) eligibility.Policy {
	return eligibility.Policy{ID: id, Name: id, BenefitIDs: []string{"b-1"}}
}

func resolverStore() *memory.Store {
	st := memory.New()
	st.AddPolicy(testPolicy("history-policy"))
	st.AddPolicy(testPolicy("current-policy"))
	st.AddPolicy(testPolicy("default-policy"))
	return st
}

// =============================================================================
// RESOLUTION ORDER
// =============================================================================

func TestResolver_HistoryBeatsCurrentPolicy(t *testing.T) {
	// GIVEN: Employer with both a history entry effective before the target
	//        month and a standing current policy
	// WHEN: Resolving
	// THEN: The history entry wins

	st := resolverStore()
	st.AddEmployer(eligibility.Employer{ID: "e-1", CurrentPolicyID: "current-policy"})
	st.AddPolicyHistory(eligibility.PolicyHistoryEntry{
		EmployerID:  "e-1",
		PolicyID:    "history-policy",
		EffectiveAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	})

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1", EmployerID: "e-1"}

	policy, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, "history-policy", policy.ID)
}

func TestResolver_LatestApplicableHistoryEntryWins(t *testing.T) {
	// GIVEN: Two history entries on or before the target month and one after
	// WHEN: Resolving for 2025-02
	// THEN: The latest entry not after Feb 1 wins; the future entry is ignored

	st := resolverStore()
	st.AddPolicy(testPolicy("older-policy"))
	st.AddPolicy(testPolicy("future-policy"))
	st.AddEmployer(eligibility.Employer{ID: "e-1"})
	st.AddPolicyHistory(eligibility.PolicyHistoryEntry{
		EmployerID: "e-1", PolicyID: "older-policy",
		EffectiveAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	st.AddPolicyHistory(eligibility.PolicyHistoryEntry{
		EmployerID: "e-1", PolicyID: "history-policy",
		EffectiveAt: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), // boundary: applies
	})
	st.AddPolicyHistory(eligibility.PolicyHistoryEntry{
		EmployerID: "e-1", PolicyID: "future-policy",
		EffectiveAt: time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC),
	})

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1", EmployerID: "e-1"}

	policy, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, "history-policy", policy.ID)
}

func TestResolver_CurrentPolicyFallback(t *testing.T) {
	// GIVEN: Employer with no applicable history but a current policy
	// THEN: The current policy resolves

	st := resolverStore()
	st.AddEmployer(eligibility.Employer{ID: "e-1", CurrentPolicyID: "current-policy"})

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1", EmployerID: "e-1"}

	policy, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, "current-policy", policy.ID)
}

func TestResolver_SystemDefaultFallback(t *testing.T) {
	// GIVEN: A worker with no employer, a configured system default
	// THEN: The default policy resolves

	st := resolverStore()
	st.SetSystemVariable(eligibility.SystemVarDefaultPolicy, "default-policy")

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1"}

	policy, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, "default-policy", policy.ID)
}

func TestResolver_NothingResolves_NoPolicyError(t *testing.T) {
	// GIVEN: No employer, no system default
	// THEN: Resolution fails with a NoPolicyError naming worker and month

	st := resolverStore()

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1"}

	_, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.Error(t, err)
	assert.ErrorIs(t, err, eligibility.ErrNoPolicy)

	var npe *eligibility.NoPolicyError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, "w-1", npe.WorkerID)
	assert.Equal(t, 2, npe.Month)
	assert.Equal(t, 2025, npe.Year)
}

func TestResolver_UnknownEmployer_FallsThroughToDefault(t *testing.T) {
	// GIVEN: A worker pointing at an employer the store does not know
	// THEN: Resolution falls through to the system default

	st := resolverStore()
	st.SetSystemVariable(eligibility.SystemVarDefaultPolicy, "default-policy")

	r := eligibility.NewPolicyResolver(st)
	worker := &eligibility.Worker{ID: "w-1", EmployerID: "ghost"}

	policy, err := r.Resolve(context.Background(), worker, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, "default-policy", policy.ID)
}
