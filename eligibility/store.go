/*
store.go - Persistence interfaces required by the eligibility engine

PURPOSE:
  Defines the storage collaborator contract. The engine and rules only read
  and write through these interfaces; the concrete technology is a detail.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - store/memory: in-memory store for tests and development
*/
package eligibility

import (
	"context"

	"github.com/shopspring/decimal"
)

// WorkerStore loads workers and their recorded hours.
type WorkerStore interface {
	// GetWorker returns the worker or ErrWorkerNotFound.
	GetWorker(ctx context.Context, id string) (*Worker, error)

	// MonthlyHoursAllEmployers returns the worker's recorded hours for one
	// month, summed across every employer they worked for.
	MonthlyHoursAllEmployers(ctx context.Context, workerID string, month, year int) (decimal.Decimal, error)
}

// BenefitStore manages benefits and worker-monthly-benefit records.
type BenefitStore interface {
	AllBenefits(ctx context.Context) ([]Benefit, error)

	// WorkerBenefits returns every WMB record for a worker, all months.
	WorkerBenefits(ctx context.Context, workerID string) ([]WMBRecord, error)

	// WorkerBenefitExists checks the (worker, benefit, month, year) tuple.
	WorkerBenefitExists(ctx context.Context, workerID, benefitID string, month, year int) (bool, error)

	// CreateWorkerBenefit inserts a record. The store enforces the
	// at-most-one-per-tuple invariant.
	CreateWorkerBenefit(ctx context.Context, rec WMBRecord) error

	// DeleteWorkerBenefit removes one record by id.
	DeleteWorkerBenefit(ctx context.Context, id string) error
}

// PolicyStore resolves policies, employers and system variables.
type PolicyStore interface {
	// GetPolicy returns the policy or ErrPolicyNotFound.
	GetPolicy(ctx context.Context, id string) (*Policy, error)

	// GetEmployer returns the employer, or (nil, nil) when unknown.
	GetEmployer(ctx context.Context, id string) (*Employer, error)

	// EmployerPolicyHistory returns the effective-dated assignments for an
	// employer, in no particular order.
	EmployerPolicyHistory(ctx context.Context, employerID string) ([]PolicyHistoryEntry, error)

	// SystemVariable returns the named setting, or "" when unset.
	SystemVariable(ctx context.Context, name string) (string, error)
}

// SystemVarDefaultPolicy names the system variable holding the fallback
// policy id used when no employer-specific policy applies.
const SystemVarDefaultPolicy = "policy_default"
