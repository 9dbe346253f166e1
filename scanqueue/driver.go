/*
driver.go - Batch queue draining and the cron invocation contract

PURPOSE:
  ProcessBatch claims and processes jobs one after another, up to a limit
  or until the queue is empty. Each job runs the reconciliation engine in
  live mode; a job's error (or panic) is recorded as that job's failure and
  the batch keeps going. Execute wraps ProcessBatch behind the test/live
  contract used by the external scheduler.
*/
package scanqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/benefits-engine/eligibility"
)

// DefaultBatchSize is used when an Execute request omits the batch size.
const DefaultBatchSize = 10

// MaxBatchSize caps the batch size accepted by Execute.
const MaxBatchSize = 100

// Scanner runs one worker/month reconciliation. Implemented by
// eligibility.Engine; narrowed to an interface so driver tests can fail
// scans deterministically.
type Scanner interface {
	RunBenefitsScan(ctx context.Context, workerID string, month, year int, mode eligibility.Mode) (*eligibility.ScanResult, error)
}

// BatchResult reports one ProcessBatch invocation.
type BatchResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Driver drains the scan queue through the reconciliation engine.
type Driver struct {
	Queue  Store
	Engine Scanner
	Log    *zap.Logger
}

// NewDriver wires a driver. A nil logger is replaced with a no-op logger.
func NewDriver(queue Store, engine Scanner, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{Queue: queue, Engine: engine, Log: log}
}

// ProcessBatch claims and processes up to limit jobs, strictly one at a
// time. It returns early only on a claim failure or context cancellation;
// per-job scan failures are recorded on the job and counted.
func (d *Driver) ProcessBatch(ctx context.Context, limit int) (BatchResult, error) {
	var res BatchResult

	for res.Processed < limit {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		job, err := d.Queue.ClaimNextJob(ctx)
		if err != nil {
			return res, fmt.Errorf("claim next job: %w", err)
		}
		if job == nil {
			break
		}
		res.Processed++

		snapshot, scanErr := d.runJob(ctx, job)
		if scanErr != nil {
			res.Failed++
			d.Log.Warn("scan job failed",
				zap.String("job_id", job.ID),
				zap.String("worker_id", job.WorkerID),
				zap.String("month", eligibility.MonthKey(job.Month, job.Year)),
				zap.Error(scanErr))
			if err := d.Queue.RecordJobResult(ctx, job.ID, false, nil, scanErr.Error()); err != nil {
				return res, fmt.Errorf("record job %s failure: %w", job.ID, err)
			}
			continue
		}

		res.Succeeded++
		if err := d.Queue.RecordJobResult(ctx, job.ID, true, snapshot, ""); err != nil {
			return res, fmt.Errorf("record job %s result: %w", job.ID, err)
		}
	}

	return res, nil
}

// runJob executes one job's scan in live mode. A panic inside the engine is
// converted into the job's failure so one poisoned worker cannot take down
// the batch.
func (d *Driver) runJob(ctx context.Context, job *Job) (snapshot []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()

	result, err := d.Engine.RunBenefitsScan(ctx, job.WorkerID, job.Month, job.Year, eligibility.ModeLive)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// =============================================================================
// CRON INVOCATION CONTRACT
// =============================================================================

// Request is the invocation context handed in by the external scheduler.
type Request struct {
	Mode      eligibility.Mode `json:"mode"`
	BatchSize int              `json:"batch_size"`
}

// Report is the single message plus structured metadata returned per
// invocation. Failures inside individual jobs never fail the invocation;
// they only affect the counts.
type Report struct {
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// Execute runs the scheduler contract. Test mode reports how many jobs
// would be processed without mutating anything; live mode drains up to the
// batch size and reports the refreshed queue status.
func (d *Driver) Execute(ctx context.Context, req Request) (*Report, error) {
	if !eligibility.ValidMode(req.Mode) {
		return nil, fmt.Errorf("invalid mode %q", req.Mode)
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < 1 || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d out of range 1..%d", req.BatchSize, MaxBatchSize)
	}

	if req.Mode == eligibility.ModeTest {
		summary, err := d.Queue.PendingSummary(ctx)
		if err != nil {
			return nil, err
		}
		would := summary.Pending
		if would > batchSize {
			would = batchSize
		}
		return &Report{
			Message: fmt.Sprintf("test mode: would process %d job(s)", would),
			Metadata: map[string]any{
				"would_process": would,
				"queue":         summary,
			},
		}, nil
	}

	batch, err := d.ProcessBatch(ctx, batchSize)
	if err != nil {
		return nil, err
	}
	summary, err := d.Queue.PendingSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{
		Message: fmt.Sprintf("processed %d job(s): %d succeeded, %d failed", batch.Processed, batch.Succeeded, batch.Failed),
		Metadata: map[string]any{
			"processed": batch.Processed,
			"succeeded": batch.Succeeded,
			"failed":    batch.Failed,
			"queue":     summary,
		},
	}, nil
}
