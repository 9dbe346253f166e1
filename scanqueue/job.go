/*
Package scanqueue fans the reconciliation engine out across a worker
population through a durable, claimable work queue.

PURPOSE:
  An external scheduler enqueues a target month; the queue materializes one
  job per active worker; a batch driver repeatedly claims and processes one
  job at a time. Concurrency safety across driver instances comes entirely
  from the atomic claim at the storage layer; there is no in-process
  locking and no ordering guarantee across jobs.

KEY CONCEPTS IN THIS FILE (job.go):
  - Job: a durable unit of work ("scan worker W for month M/Y")
  - Status: pending -> processing -> success | failed
  - Store: the storage collaborator contract for the queue
*/
package scanqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("scan job not found")

// Status is a job's position in its lifecycle. Success and failed are
// terminal; jobs are never deleted by the engine itself.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Job is one queued benefit scan for a worker/month.
type Job struct {
	ID       string `json:"id"`
	BatchID  string `json:"batch_id"`
	WorkerID string `json:"worker_id"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`

	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`

	// Result holds the reconciliation summary snapshot on success.
	Result json.RawMessage `json:"result,omitempty"`
	// Error holds the failure message on failed.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Summary aggregates job counts by status for progress reporting.
type Summary struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
}

// Total returns the number of jobs across every status.
func (s Summary) Total() int { return s.Pending + s.Processing + s.Success + s.Failed }

// Store is the queue's storage collaborator contract.
type Store interface {
	// EnqueueMonth inserts one pending job per active worker for the target
	// month, skipping workers that already have a pending or processing job
	// for that (worker, month, year). Returns the batch id and the number
	// of jobs actually queued.
	EnqueueMonth(ctx context.Context, month, year int) (batchID string, queued int, err error)

	// ClaimNextJob atomically transitions one pending job to processing and
	// returns it, or (nil, nil) when the queue is empty. Two concurrent
	// callers never receive the same job; the store implements the claim as
	// an atomic conditional state transition, not read-then-write.
	ClaimNextJob(ctx context.Context) (*Job, error)

	// RecordJobResult moves a job to its terminal state, stores the result
	// snapshot or error message, and increments the attempt counter.
	RecordJobResult(ctx context.Context, jobID string, success bool, snapshot []byte, errMsg string) error

	// PendingSummary returns job counts by status.
	PendingSummary(ctx context.Context) (Summary, error)

	// InvalidateWorkerScans removes pending and processing jobs for a
	// worker whose underlying data changed since being queued. Returns the
	// number of jobs removed.
	InvalidateWorkerScans(ctx context.Context, workerID string) (int, error)

	// ReclaimStale reverts processing jobs claimed longer than olderThan
	// ago back to pending, so a crashed driver's work is eventually redone.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)

	// RequeueFailed resets failed jobs for the target month back to pending,
	// skipping jobs at or beyond maxAttempts. Returns the number requeued.
	RequeueFailed(ctx context.Context, month, year, maxAttempts int) (int, error)
}
