/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces the reconciliation engine depends on.

INTERFACES IMPLEMENTED:
  eligibility.WorkerStore:  workers and monthly hours
  eligibility.BenefitStore: benefits and worker-monthly-benefit records
  eligibility.PolicyStore:  policies, employers, policy history, variables
  scanqueue.Store:          the durable scan queue

INVARIANTS ENFORCED IN SCHEMA:
  - At most one worker_monthly_benefits row per
    (worker_id, benefit_id, month, year): unique index.
  - At most one open scan job per (worker_id, month, year): partial unique
    index over status IN ('pending','processing').

CLAIM SEMANTICS:
  ClaimNextJob performs an atomic conditional UPDATE
  (WHERE id = ? AND status = 'pending') and checks the affected row count,
  so two concurrent claimers can never both win the same job even across
  separate processes sharing the database file.

WAL MODE:
  The database is opened with WAL so readers do not block the single
  writer, matching how the rest of the admin application uses the file.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/scanqueue"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writes; sqlite allows one writer at a time
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		employer_id TEXT,
		work_status_id TEXT,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS employers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		current_policy_id TEXT
	);

	CREATE TABLE IF NOT EXISTS employer_policy_history (
		employer_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		PRIMARY KEY (employer_id, effective_at)
	);

	CREATE TABLE IF NOT EXISTS benefits (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		policy_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS system_variables (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Hours as reported per employer; eligibility sums across employers.
	CREATE TABLE IF NOT EXISTS monthly_hours (
		worker_id TEXT NOT NULL,
		employer_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		hours TEXT NOT NULL,
		PRIMARY KEY (worker_id, employer_id, month, year)
	);

	CREATE TABLE IF NOT EXISTS worker_monthly_benefits (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		benefit_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		employer_id TEXT,
		created_at TEXT NOT NULL
	);

	-- The reconciliation engine's unit of truth.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_wmb_tuple
		ON worker_monthly_benefits(worker_id, benefit_id, month, year);
	CREATE INDEX IF NOT EXISTS idx_wmb_worker
		ON worker_monthly_benefits(worker_id);

	CREATE TABLE IF NOT EXISTS scan_jobs (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		result_json TEXT,
		error TEXT,
		created_at TEXT NOT NULL,
		claimed_at TEXT,
		completed_at TEXT
	);

	-- One open job per worker-month; terminal jobs are kept for history.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_scan_jobs_open
		ON scan_jobs(worker_id, month, year)
		WHERE status IN ('pending','processing');
	CREATE INDEX IF NOT EXISTS idx_scan_jobs_status
		ON scan_jobs(status, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WORKER STORE
// =============================================================================

// SaveWorker inserts or replaces a worker.
func (s *Store) SaveWorker(ctx context.Context, w eligibility.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workers (id, name, employer_id, work_status_id, active)
		VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.Name, nullable(w.EmployerID), nullable(w.WorkStatusID), boolToInt(w.Active))
	return err
}

func (s *Store) GetWorker(ctx context.Context, id string) (*eligibility.Worker, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(employer_id, ''), COALESCE(work_status_id, ''), active
		FROM workers WHERE id = ?`, id)

	var w eligibility.Worker
	var active int
	if err := row.Scan(&w.ID, &w.Name, &w.EmployerID, &w.WorkStatusID, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("worker %s: %w", id, eligibility.ErrWorkerNotFound)
		}
		return nil, err
	}
	w.Active = active != 0
	return &w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]eligibility.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(employer_id, ''), COALESCE(work_status_id, ''), active
		FROM workers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eligibility.Worker
	for rows.Next() {
		var w eligibility.Worker
		var active int
		if err := rows.Scan(&w.ID, &w.Name, &w.EmployerID, &w.WorkStatusID, &active); err != nil {
			return nil, err
		}
		w.Active = active != 0
		out = append(out, w)
	}
	return out, rows.Err()
}

// SaveMonthlyHours records one employer's reported hours for a worker-month.
func (s *Store) SaveMonthlyHours(ctx context.Context, workerID, employerID string, month, year int, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO monthly_hours (worker_id, employer_id, month, year, hours)
		VALUES (?, ?, ?, ?, ?)`,
		workerID, employerID, month, year, hours.String())
	return err
}

func (s *Store) MonthlyHoursAllEmployers(ctx context.Context, workerID string, month, year int) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hours FROM monthly_hours
		WHERE worker_id = ? AND month = ? AND year = ?`,
		workerID, month, year)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		h, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt hours value %q for worker %s: %w", raw, workerID, err)
		}
		total = total.Add(h)
	}
	return total, rows.Err()
}

// =============================================================================
// BENEFIT STORE
// =============================================================================

// SaveBenefit inserts or replaces a benefit.
func (s *Store) SaveBenefit(ctx context.Context, b eligibility.Benefit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO benefits (id, name) VALUES (?, ?)`, b.ID, b.Name)
	return err
}

func (s *Store) AllBenefits(ctx context.Context) ([]eligibility.Benefit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM benefits ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eligibility.Benefit
	for rows.Next() {
		var b eligibility.Benefit
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) WorkerBenefits(ctx context.Context, workerID string) ([]eligibility.WMBRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, benefit_id, month, year, COALESCE(employer_id, '')
		FROM worker_monthly_benefits WHERE worker_id = ?
		ORDER BY year, month, benefit_id`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eligibility.WMBRecord
	for rows.Next() {
		var rec eligibility.WMBRecord
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &rec.BenefitID, &rec.Month, &rec.Year, &rec.EmployerID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) WorkerBenefitExists(ctx context.Context, workerID, benefitID string, month, year int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM worker_monthly_benefits
		WHERE worker_id = ? AND benefit_id = ? AND month = ? AND year = ?`,
		workerID, benefitID, month, year).Scan(&n)
	return n > 0, err
}

func (s *Store) CreateWorkerBenefit(ctx context.Context, rec eligibility.WMBRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worker_monthly_benefits (id, worker_id, benefit_id, month, year, employer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.WorkerID, rec.BenefitID, rec.Month, rec.Year, nullable(rec.EmployerID), timestamp(time.Now()))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("worker benefit already exists for %s/%s %s",
			rec.WorkerID, rec.BenefitID, eligibility.MonthKey(rec.Month, rec.Year))
	}
	return err
}

func (s *Store) DeleteWorkerBenefit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM worker_monthly_benefits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("worker benefit record %s not found", id)
	}
	return nil
}

// =============================================================================
// POLICY STORE
// =============================================================================

// SavePolicy persists a parsed policy in its canonical JSON form. The
// factory validates author input before it gets here.
func (s *Store) SavePolicy(ctx context.Context, p eligibility.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO policies (id, name, policy_json, created_at)
		VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, string(blob), timestamp(time.Now()))
	return err
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*eligibility.Policy, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT policy_json FROM policies WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("policy %s: %w", id, eligibility.ErrPolicyNotFound)
	}
	if err != nil {
		return nil, err
	}

	var p eligibility.Policy
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil, fmt.Errorf("corrupt policy %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListPolicies(ctx context.Context) ([]eligibility.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT policy_json FROM policies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eligibility.Policy
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var p eligibility.Policy
		if err := json.Unmarshal([]byte(blob), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveEmployer inserts or replaces an employer.
func (s *Store) SaveEmployer(ctx context.Context, e eligibility.Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employers (id, name, current_policy_id)
		VALUES (?, ?, ?)`,
		e.ID, e.Name, nullable(e.CurrentPolicyID))
	return err
}

func (s *Store) GetEmployer(ctx context.Context, id string) (*eligibility.Employer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(current_policy_id, '')
		FROM employers WHERE id = ?`, id)

	var e eligibility.Employer
	if err := row.Scan(&e.ID, &e.Name, &e.CurrentPolicyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// SavePolicyHistory appends an effective-dated policy assignment.
func (s *Store) SavePolicyHistory(ctx context.Context, entry eligibility.PolicyHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employer_policy_history (employer_id, policy_id, effective_at)
		VALUES (?, ?, ?)`,
		entry.EmployerID, entry.PolicyID, timestamp(entry.EffectiveAt))
	return err
}

func (s *Store) EmployerPolicyHistory(ctx context.Context, employerID string) ([]eligibility.PolicyHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employer_id, policy_id, effective_at
		FROM employer_policy_history WHERE employer_id = ?`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eligibility.PolicyHistoryEntry
	for rows.Next() {
		var entry eligibility.PolicyHistoryEntry
		var effective string
		if err := rows.Scan(&entry.EmployerID, &entry.PolicyID, &effective); err != nil {
			return nil, err
		}
		entry.EffectiveAt, err = time.Parse(time.RFC3339Nano, effective)
		if err != nil {
			return nil, fmt.Errorf("corrupt effective_at %q: %w", effective, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SetSystemVariable sets a named system setting.
func (s *Store) SetSystemVariable(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO system_variables (name, value) VALUES (?, ?)`, name, value)
	return err
}

func (s *Store) SystemVariable(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM system_variables WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// =============================================================================
// SCAN QUEUE STORE
// =============================================================================

func (s *Store) EnqueueMonth(ctx context.Context, month, year int) (string, int, error) {
	if !eligibility.ValidMonth(month, year) {
		return "", 0, fmt.Errorf("invalid target month %d/%d", month, year)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	// Active workers without an open job for this month. Job ids are
	// generated here, so the insert runs per worker inside the transaction.
	rows, err := tx.QueryContext(ctx, `
		SELECT w.id FROM workers w
		WHERE w.active = 1
		  AND NOT EXISTS (
			SELECT 1 FROM scan_jobs j
			WHERE j.worker_id = w.id AND j.month = ? AND j.year = ?
			  AND j.status IN ('pending','processing')
		  )
		ORDER BY w.id`, month, year)
	if err != nil {
		return "", 0, err
	}
	var workerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return "", 0, err
		}
		workerIDs = append(workerIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", 0, err
	}

	now := timestamp(time.Now())
	for _, workerID := range workerIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scan_jobs (id, batch_id, worker_id, month, year, status, attempts, created_at)
			VALUES (?, ?, ?, ?, ?, 'pending', 0, ?)`,
			uuid.NewString(), batchID, workerID, month, year, now); err != nil {
			return "", 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", 0, err
	}
	return batchID, len(workerIDs), nil
}

func (s *Store) ClaimNextJob(ctx context.Context) (*scanqueue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		var id string
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM scan_jobs WHERE status = 'pending'
			ORDER BY created_at, id LIMIT 1`).Scan(&id)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		// Atomic conditional transition: only one claimer's UPDATE can
		// match status='pending' for this row.
		res, err := s.db.ExecContext(ctx, `
			UPDATE scan_jobs SET status = 'processing', claimed_at = ?
			WHERE id = ? AND status = 'pending'`,
			timestamp(time.Now()), id)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Lost the race to another claimer; pick the next candidate.
			continue
		}
		return s.getJob(ctx, id)
	}
}

func (s *Store) RecordJobResult(ctx context.Context, jobID string, success bool, snapshot []byte, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := scanqueue.StatusFailed
	if success {
		status = scanqueue.StatusSuccess
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = ?, attempts = attempts + 1, result_json = ?, error = ?, completed_at = ?
		WHERE id = ?`,
		string(status), nullableBytes(snapshot), nullable(errMsg), timestamp(time.Now()), jobID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("scan job %s: %w", jobID, scanqueue.ErrJobNotFound)
	}
	return nil
}

func (s *Store) PendingSummary(ctx context.Context) (scanqueue.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM scan_jobs GROUP BY status`)
	if err != nil {
		return scanqueue.Summary{}, err
	}
	defer rows.Close()

	var sum scanqueue.Summary
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return scanqueue.Summary{}, err
		}
		switch scanqueue.Status(status) {
		case scanqueue.StatusPending:
			sum.Pending = n
		case scanqueue.StatusProcessing:
			sum.Processing = n
		case scanqueue.StatusSuccess:
			sum.Success = n
		case scanqueue.StatusFailed:
			sum.Failed = n
		}
	}
	return sum, rows.Err()
}

func (s *Store) InvalidateWorkerScans(ctx context.Context, workerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_jobs
		WHERE worker_id = ? AND status IN ('pending','processing')`, workerID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := timestamp(time.Now().Add(-olderThan))
	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs SET status = 'pending', claimed_at = NULL
		WHERE status = 'processing' AND claimed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) RequeueFailed(ctx context.Context, month, year, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = 'pending', claimed_at = NULL, completed_at = NULL, error = NULL
		WHERE status = 'failed' AND month = ? AND year = ?
		  AND (? <= 0 OR attempts < ?)`,
		month, year, maxAttempts, maxAttempts)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// GetJob returns one job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*scanqueue.Job, error) {
	return s.getJob(ctx, id)
}

func (s *Store) getJob(ctx context.Context, id string) (*scanqueue.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, batch_id, worker_id, month, year, status, attempts,
		       COALESCE(result_json, ''), COALESCE(error, ''),
		       created_at, claimed_at, completed_at
		FROM scan_jobs WHERE id = ?`, id)

	var job scanqueue.Job
	var status, result, created string
	var claimed, completed sql.NullString
	if err := row.Scan(&job.ID, &job.BatchID, &job.WorkerID, &job.Month, &job.Year,
		&status, &job.Attempts, &result, &job.Error, &created, &claimed, &completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scan job %s: %w", id, scanqueue.ErrJobNotFound)
		}
		return nil, err
	}
	job.Status = scanqueue.Status(status)
	if result != "" {
		job.Result = json.RawMessage(result)
	}

	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("corrupt created_at %q: %w", created, err)
	}
	if claimed.Valid {
		t, err := time.Parse(time.RFC3339Nano, claimed.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt claimed_at %q: %w", claimed.String, err)
		}
		job.ClaimedAt = &t
	}
	if completed.Valid {
		t, err := time.Parse(time.RFC3339Nano, completed.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt completed_at %q: %w", completed.String, err)
		}
		job.CompletedAt = &t
	}
	return &job, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
