package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/scanqueue"
	"github.com/warp/benefits-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestStore opens a file-backed database in a per-test temp dir. WAL mode
// needs a real file; ":memory:" gives each pooled connection its own database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// WORKERS AND HOURS
// =============================================================================

func TestSQLite_Worker_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := eligibility.Worker{ID: "w-1", Name: "Pat", EmployerID: "e-1", WorkStatusID: "active-member", Active: true}
	require.NoError(t, store.SaveWorker(ctx, w))

	got, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, w, *got)

	_, err = store.GetWorker(ctx, "ghost")
	assert.ErrorIs(t, err, eligibility.ErrWorkerNotFound)

	list, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLite_MonthlyHours_SummedAcrossEmployers(t *testing.T) {
	// GIVEN: Hours reported by two employers for the same worker-month
	// WHEN: Reading monthly hours
	// THEN: The total sums both reports

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMonthlyHours(ctx, "w-1", "e-1", 10, 2024, decimal.NewFromInt(80)))
	require.NoError(t, store.SaveMonthlyHours(ctx, "w-1", "e-2", 10, 2024, decimal.NewFromFloat(42.5)))
	require.NoError(t, store.SaveMonthlyHours(ctx, "w-1", "e-1", 11, 2024, decimal.NewFromInt(160)))

	total, err := store.MonthlyHoursAllEmployers(ctx, "w-1", 10, 2024)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromFloat(122.5)), "got %s", total)

	none, err := store.MonthlyHoursAllEmployers(ctx, "w-1", 1, 2024)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

// =============================================================================
// WORKER MONTHLY BENEFITS
// =============================================================================

func TestSQLite_WMB_UniquePerTuple(t *testing.T) {
	// GIVEN: A record for (w-1, health, 2, 2025)
	// WHEN: Inserting a second record for the same tuple
	// THEN: The insert fails on the unique index

	store := newTestStore(t)
	ctx := context.Background()

	rec := eligibility.WMBRecord{ID: "rec-1", WorkerID: "w-1", BenefitID: "health", Month: 2, Year: 2025}
	require.NoError(t, store.CreateWorkerBenefit(ctx, rec))

	dup := eligibility.WMBRecord{ID: "rec-2", WorkerID: "w-1", BenefitID: "health", Month: 2, Year: 2025}
	err := store.CreateWorkerBenefit(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// Same benefit, different month is fine.
	require.NoError(t, store.CreateWorkerBenefit(ctx, eligibility.WMBRecord{
		ID: "rec-3", WorkerID: "w-1", BenefitID: "health", Month: 3, Year: 2025,
	}))
}

func TestSQLite_WMB_ExistsAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateWorkerBenefit(ctx, eligibility.WMBRecord{
		ID: "rec-1", WorkerID: "w-1", BenefitID: "health", Month: 2, Year: 2025,
	}))

	exists, err := store.WorkerBenefitExists(ctx, "w-1", "health", 2, 2025)
	require.NoError(t, err)
	assert.True(t, exists)

	records, err := store.WorkerBenefits(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)

	require.NoError(t, store.DeleteWorkerBenefit(ctx, "rec-1"))
	assert.Error(t, store.DeleteWorkerBenefit(ctx, "rec-1"))

	exists, err = store.WorkerBenefitExists(ctx, "w-1", "health", 2, 2025)
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// POLICIES AND RESOLUTION DATA
// =============================================================================

func TestSQLite_Policy_RoundTrip(t *testing.T) {
	// Policies persist in canonical JSON; rule config survives intact.

	store := newTestStore(t)
	ctx := context.Background()

	p := eligibility.Policy{
		ID:         "trust-plan",
		Name:       "Trust Plan",
		BenefitIDs: []string{"health", "dental"},
		Rules: map[string][]eligibility.ConfiguredRule{
			"health": {{
				RuleID:    eligibility.RuleHoursLookback,
				AppliesTo: []eligibility.ScanType{eligibility.ScanStart, eligibility.ScanContinue},
				Config:    eligibility.RuleConfig{"lookback_months": float64(4)},
			}},
		},
	}
	require.NoError(t, store.SavePolicy(ctx, p))

	got, err := store.GetPolicy(ctx, "trust-plan")
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	_, err = store.GetPolicy(ctx, "ghost")
	assert.ErrorIs(t, err, eligibility.ErrPolicyNotFound)

	list, err := store.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLite_EmployerAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployer(ctx, eligibility.Employer{ID: "e-1", Name: "Acme", CurrentPolicyID: "p-1"}))

	got, err := store.GetEmployer(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.CurrentPolicyID)

	// Unknown employer is (nil, nil), not an error: resolution falls through.
	missing, err := store.GetEmployer(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	effective := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SavePolicyHistory(ctx, eligibility.PolicyHistoryEntry{
		EmployerID: "e-1", PolicyID: "p-old", EffectiveAt: effective,
	}))

	history, err := store.EmployerPolicyHistory(ctx, "e-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].EffectiveAt.Equal(effective))
}

func TestSQLite_SystemVariables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	value, err := store.SystemVariable(ctx, eligibility.SystemVarDefaultPolicy)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetSystemVariable(ctx, eligibility.SystemVarDefaultPolicy, "p-default"))

	value, err = store.SystemVariable(ctx, eligibility.SystemVarDefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, "p-default", value)
}

// =============================================================================
// SCAN QUEUE
// =============================================================================

func seedActiveWorkers(t *testing.T, store *sqlite.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, store.SaveWorker(ctx, eligibility.Worker{
			ID: string(rune('a'+i)) + "-worker", Name: "Worker", Active: true,
		}))
	}
}

func TestSQLite_EnqueueMonth_DedupsOpenJobs(t *testing.T) {
	// GIVEN: Three active workers and one inactive
	// WHEN: Enqueueing the same month twice
	// THEN: The second enqueue adds nothing

	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 3)
	require.NoError(t, store.SaveWorker(ctx, eligibility.Worker{ID: "z-inactive", Name: "Gone", Active: false}))

	batchID, queued, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)
	assert.NotEmpty(t, batchID)
	assert.Equal(t, 3, queued)

	_, queued, err = store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, queued)

	summary, err := store.PendingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Pending)
}

func TestSQLite_ClaimNextJob_TransitionsToProcessing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 2)

	_, _, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)

	job, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, scanqueue.StatusProcessing, job.Status)
	assert.NotNil(t, job.ClaimedAt)

	second, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, job.ID, second.ID, "a claimed job must not be claimed again")

	empty, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSQLite_RecordJobResult(t *testing.T) {
	// GIVEN: A claimed job
	// WHEN: Recording success with a snapshot, then checking a failed path
	// THEN: Status, attempts, result and error land as expected

	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 2)

	_, _, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)

	job, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RecordJobResult(ctx, job.ID, true, []byte(`{"worker_id":"w"}`), ""))

	done, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, scanqueue.StatusSuccess, done.Status)
	assert.Equal(t, 1, done.Attempts)
	assert.JSONEq(t, `{"worker_id":"w"}`, string(done.Result))
	assert.NotNil(t, done.CompletedAt)

	job2, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RecordJobResult(ctx, job2.ID, false, nil, "scan failed"))

	failed, err := store.GetJob(ctx, job2.ID)
	require.NoError(t, err)
	assert.Equal(t, scanqueue.StatusFailed, failed.Status)
	assert.Equal(t, "scan failed", failed.Error)

	assert.Error(t, store.RecordJobResult(ctx, "ghost", true, nil, ""))
}

func TestSQLite_InvalidateWorkerScans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 1)

	_, _, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)
	_, _, err = store.EnqueueMonth(ctx, 4, 2025)
	require.NoError(t, err)

	removed, err := store.InvalidateWorkerScans(ctx, "a-worker")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	summary, err := store.PendingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Pending)
}

func TestSQLite_ReclaimStale(t *testing.T) {
	// A claim made just now is not reclaimed with a positive age, but is
	// with a negative cutoff (everything is older than "the future").

	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 1)

	_, _, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)
	job, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	reclaimed, err := store.ReclaimStale(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)

	reclaimed, err = store.ReclaimStale(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	again, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, job.ID, again.ID)
}

func TestSQLite_RequeueFailed_RespectsAttemptCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedActiveWorkers(t, store, 1)

	_, _, err := store.EnqueueMonth(ctx, 3, 2025)
	require.NoError(t, err)

	job, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RecordJobResult(ctx, job.ID, false, nil, "boom"))

	// attempts = 1, cap 3: requeued.
	requeued, err := store.RequeueFailed(ctx, 3, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	// Fail twice more to reach the cap.
	for i := 0; i < 2; i++ {
		job, err = store.ClaimNextJob(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		require.NoError(t, store.RecordJobResult(ctx, job.ID, false, nil, "boom"))
		if i == 0 {
			_, err = store.RequeueFailed(ctx, 3, 2025, 3)
			require.NoError(t, err)
		}
	}

	requeued, err = store.RequeueFailed(ctx, 3, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, requeued, "job at the attempt cap stays failed")
}
