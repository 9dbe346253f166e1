// Package memory provides an in-memory store implementation (for testing/dev).
//
// It implements every storage interface the engine depends on:
// eligibility.WorkerStore, eligibility.BenefitStore, eligibility.PolicyStore
// and scanqueue.Store. All operations are guarded by one mutex, which also
// makes ClaimNextJob an atomic conditional transition under concurrency.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/scanqueue"
)

type hoursKey struct {
	WorkerID string
	Month    int
	Year     int
}

// Store is the in-memory implementation.
type Store struct {
	mu sync.Mutex

	workers   map[string]eligibility.Worker
	employers map[string]eligibility.Employer
	benefits  map[string]eligibility.Benefit
	policies  map[string]eligibility.Policy
	history   map[string][]eligibility.PolicyHistoryEntry // employer id -> entries
	sysvars   map[string]string
	hours     map[hoursKey]decimal.Decimal
	records   map[string]eligibility.WMBRecord // record id -> record
	jobs      map[string]scanqueue.Job         // job id -> job

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		workers:   make(map[string]eligibility.Worker),
		employers: make(map[string]eligibility.Employer),
		benefits:  make(map[string]eligibility.Benefit),
		policies:  make(map[string]eligibility.Policy),
		history:   make(map[string][]eligibility.PolicyHistoryEntry),
		sysvars:   make(map[string]string),
		hours:     make(map[hoursKey]decimal.Decimal),
		records:   make(map[string]eligibility.WMBRecord),
		jobs:      make(map[string]scanqueue.Job),
		now:       time.Now,
	}
}

// =============================================================================
// SEEDING - population helpers for tests and dev scenarios
// =============================================================================

func (s *Store) AddWorker(w eligibility.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = w
}

func (s *Store) AddEmployer(e eligibility.Employer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employers[e.ID] = e
}

func (s *Store) AddBenefit(b eligibility.Benefit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benefits[b.ID] = b
}

func (s *Store) AddPolicy(p eligibility.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
}

func (s *Store) AddPolicyHistory(entry eligibility.PolicyHistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[entry.EmployerID] = append(s.history[entry.EmployerID], entry)
}

func (s *Store) SetSystemVariable(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sysvars[name] = value
}

func (s *Store) SetMonthlyHours(workerID string, month, year int, hours decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours[hoursKey{workerID, month, year}] = hours
}

// SetClock overrides the time source, for stale-claim tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (s *Store) GetWorker(_ context.Context, id string) (*eligibility.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[id]
	if !ok {
		return nil, fmt.Errorf("worker %s: %w", id, eligibility.ErrWorkerNotFound)
	}
	out := w
	return &out, nil
}

func (s *Store) ListWorkers(_ context.Context) ([]eligibility.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eligibility.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MonthlyHoursAllEmployers(_ context.Context, workerID string, month, year int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hours[hoursKey{workerID, month, year}], nil
}

// =============================================================================
// BENEFIT STORE
// =============================================================================

func (s *Store) AllBenefits(_ context.Context) ([]eligibility.Benefit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eligibility.Benefit, 0, len(s.benefits))
	for _, b := range s.benefits {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) WorkerBenefits(_ context.Context, workerID string) ([]eligibility.WMBRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eligibility.WMBRecord
	for _, rec := range s.records {
		if rec.WorkerID == workerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) WorkerBenefitExists(_ context.Context, workerID, benefitID string, month, year int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.WorkerID == workerID && rec.BenefitID == benefitID && rec.Month == month && rec.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateWorkerBenefit(_ context.Context, rec eligibility.WMBRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.WorkerID == rec.WorkerID && existing.BenefitID == rec.BenefitID &&
			existing.Month == rec.Month && existing.Year == rec.Year {
			return fmt.Errorf("worker benefit already exists for %s/%s %s",
				rec.WorkerID, rec.BenefitID, eligibility.MonthKey(rec.Month, rec.Year))
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *Store) DeleteWorkerBenefit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("worker benefit record %s not found", id)
	}
	delete(s.records, id)
	return nil
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (s *Store) GetPolicy(_ context.Context, id string) (*eligibility.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", id, eligibility.ErrPolicyNotFound)
	}
	out := p
	return &out, nil
}

func (s *Store) SavePolicy(_ context.Context, p eligibility.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return nil
}

func (s *Store) ListPolicies(_ context.Context) ([]eligibility.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eligibility.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetEmployer(_ context.Context, id string) (*eligibility.Employer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employers[id]
	if !ok {
		return nil, nil
	}
	out := e
	return &out, nil
}

func (s *Store) EmployerPolicyHistory(_ context.Context, employerID string) ([]eligibility.PolicyHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[employerID]
	out := make([]eligibility.PolicyHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) SystemVariable(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sysvars[name], nil
}

// =============================================================================
// SCAN QUEUE STORE
// =============================================================================

func (s *Store) EnqueueMonth(_ context.Context, month, year int) (string, int, error) {
	if !eligibility.ValidMonth(month, year) {
		return "", 0, fmt.Errorf("invalid target month %d/%d", month, year)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	open := make(map[string]bool) // worker ids with a pending/processing job for the month
	for _, job := range s.jobs {
		if job.Month == month && job.Year == year &&
			(job.Status == scanqueue.StatusPending || job.Status == scanqueue.StatusProcessing) {
			open[job.WorkerID] = true
		}
	}

	batchID := uuid.NewString()
	queued := 0
	for _, w := range s.workers {
		if !w.Active || open[w.ID] {
			continue
		}
		job := scanqueue.Job{
			ID:        uuid.NewString(),
			BatchID:   batchID,
			WorkerID:  w.ID,
			Month:     month,
			Year:      year,
			Status:    scanqueue.StatusPending,
			CreatedAt: s.now(),
		}
		s.jobs[job.ID] = job
		queued++
	}
	return batchID, queued, nil
}

func (s *Store) ClaimNextJob(_ context.Context) (*scanqueue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidate *scanqueue.Job
	for id := range s.jobs {
		job := s.jobs[id]
		if job.Status != scanqueue.StatusPending {
			continue
		}
		if candidate == nil || job.CreatedAt.Before(candidate.CreatedAt) ||
			(job.CreatedAt.Equal(candidate.CreatedAt) && job.ID < candidate.ID) {
			j := job
			candidate = &j
		}
	}
	if candidate == nil {
		return nil, nil
	}

	claimed := s.now()
	candidate.Status = scanqueue.StatusProcessing
	candidate.ClaimedAt = &claimed
	s.jobs[candidate.ID] = *candidate
	out := *candidate
	return &out, nil
}

func (s *Store) RecordJobResult(_ context.Context, jobID string, success bool, snapshot []byte, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("scan job %s: %w", jobID, scanqueue.ErrJobNotFound)
	}
	completed := s.now()
	job.Attempts++
	job.CompletedAt = &completed
	if success {
		job.Status = scanqueue.StatusSuccess
		job.Result = snapshot
		job.Error = ""
	} else {
		job.Status = scanqueue.StatusFailed
		job.Error = errMsg
	}
	s.jobs[jobID] = job
	return nil
}

func (s *Store) PendingSummary(_ context.Context) (scanqueue.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum scanqueue.Summary
	for _, job := range s.jobs {
		switch job.Status {
		case scanqueue.StatusPending:
			sum.Pending++
		case scanqueue.StatusProcessing:
			sum.Processing++
		case scanqueue.StatusSuccess:
			sum.Success++
		case scanqueue.StatusFailed:
			sum.Failed++
		}
	}
	return sum, nil
}

func (s *Store) InvalidateWorkerScans(_ context.Context, workerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.WorkerID == workerID &&
			(job.Status == scanqueue.StatusPending || job.Status == scanqueue.StatusProcessing) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) ReclaimStale(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	reclaimed := 0
	for id, job := range s.jobs {
		if job.Status == scanqueue.StatusProcessing && job.ClaimedAt != nil && job.ClaimedAt.Before(cutoff) {
			job.Status = scanqueue.StatusPending
			job.ClaimedAt = nil
			s.jobs[id] = job
			reclaimed++
		}
	}
	return reclaimed, nil
}

func (s *Store) RequeueFailed(_ context.Context, month, year, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requeued := 0
	for id, job := range s.jobs {
		if job.Status != scanqueue.StatusFailed || job.Month != month || job.Year != year {
			continue
		}
		if maxAttempts > 0 && job.Attempts >= maxAttempts {
			continue
		}
		job.Status = scanqueue.StatusPending
		job.ClaimedAt = nil
		job.CompletedAt = nil
		job.Error = ""
		s.jobs[id] = job
		requeued++
	}
	return requeued, nil
}

// GetJob returns a copy of one job, for tests and the API.
func (s *Store) GetJob(_ context.Context, id string) (*scanqueue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("scan job %s: %w", id, scanqueue.ErrJobNotFound)
	}
	out := job
	return &out, nil
}
