/*
resolver.go - Policy resolution per worker and target month

PURPOSE:
  Determines which policy governs a worker for a target month. Resolution
  is a pure function of store state at call time; nothing is cached across
  calls, because effective-dated lookups change as "now" changes.

RESOLUTION ORDER:
  1. Home employer's policy history: the entry with the latest effective
     date on or before the first day of the target month wins.
  2. The employer's standing "current policy" reference.
  3. The system default policy (system variable "policy_default").
  4. Otherwise resolution fails; a scan cannot proceed without a policy.
*/
package eligibility

import "context"

// PolicyResolver resolves the governing policy for a worker/month.
type PolicyResolver struct {
	Store PolicyStore
}

// NewPolicyResolver returns a resolver over the given store.
func NewPolicyResolver(store PolicyStore) *PolicyResolver {
	return &PolicyResolver{Store: store}
}

// Resolve returns the policy governing the worker for the target month,
// or a NoPolicyError when nothing resolves.
func (r *PolicyResolver) Resolve(ctx context.Context, worker *Worker, month, year int) (*Policy, error) {
	if worker.EmployerID != "" {
		policy, err := r.resolveEmployer(ctx, worker.EmployerID, month, year)
		if err != nil {
			return nil, err
		}
		if policy != nil {
			return policy, nil
		}
	}

	defaultID, err := r.Store.SystemVariable(ctx, SystemVarDefaultPolicy)
	if err != nil {
		return nil, err
	}
	if defaultID != "" {
		return r.Store.GetPolicy(ctx, defaultID)
	}

	return nil, &NoPolicyError{WorkerID: worker.ID, Month: month, Year: year}
}

// resolveEmployer applies steps 1 and 2: history first, then the standing
// current-policy reference. Returns (nil, nil) when neither applies.
func (r *PolicyResolver) resolveEmployer(ctx context.Context, employerID string, month, year int) (*Policy, error) {
	cutoff := FirstOfMonth(month, year)

	history, err := r.Store.EmployerPolicyHistory(ctx, employerID)
	if err != nil {
		return nil, err
	}

	var best *PolicyHistoryEntry
	for i := range history {
		entry := &history[i]
		if entry.EffectiveAt.After(cutoff) {
			continue
		}
		if best == nil || entry.EffectiveAt.After(best.EffectiveAt) {
			best = entry
		}
	}
	if best != nil {
		return r.Store.GetPolicy(ctx, best.PolicyID)
	}

	employer, err := r.Store.GetEmployer(ctx, employerID)
	if err != nil {
		return nil, err
	}
	if employer != nil && employer.CurrentPolicyID != "" {
		return r.Store.GetPolicy(ctx, employer.CurrentPolicyID)
	}
	return nil, nil
}
