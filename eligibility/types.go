/*
Package eligibility implements the monthly benefit eligibility
reconciliation engine.

PURPOSE:
  This package decides, for every worker and every trust benefit, whether a
  benefit-grant record should exist for a given month. It evaluates a
  pluggable set of business rules against point-in-time state, classifies
  each benefit as a "start" or a "continue" scan depending on the previous
  month, and reconciles the verdict against the records that already exist.

KEY CONCEPTS IN THIS FILE (types.go):
  - Benefit: named trust benefit, immutable reference data
  - Worker: the subject of evaluation, with denormalized employer and status
  - Policy: a bundle of benefit ids plus per-benefit rule configuration
  - WMBRecord: the persisted fact "worker W has benefit B for month M/Y"
  - ScanType: start vs. continue classification
  - Mode: test (dry run) vs. live execution

DESIGN PRINCIPLES:
  1. Rules are read-only: evaluation never mutates state
  2. Reconciliation is idempotent: a second run with unchanged data is a no-op
  3. The (worker, benefit, month, year) tuple is the unit of truth

SEE ALSO:
  - rule.go:     Rule contract and evaluation context
  - registry.go: Rule registry
  - executor.go: Per-benefit rule execution
  - resolver.go: Policy resolution per worker and month
  - engine.go:   The reconciliation state machine
*/
package eligibility

import (
	"fmt"
	"time"
)

// =============================================================================
// SCAN CLASSIFICATION AND MODE
// =============================================================================

// ScanType classifies a benefit evaluation relative to the previous month.
type ScanType string

const (
	// ScanStart means the worker did not hold the benefit last month.
	ScanStart ScanType = "start"

	// ScanContinue means a record for the benefit exists in the month
	// immediately before the target month.
	ScanContinue ScanType = "continue"
)

// Mode controls whether computed actions are executed.
type Mode string

const (
	// ModeTest computes and reports actions without mutating anything.
	ModeTest Mode = "test"

	// ModeLive executes each computed action against the store.
	ModeLive Mode = "live"
)

// ValidMode reports whether m is a recognized scan mode.
func ValidMode(m Mode) bool { return m == ModeTest || m == ModeLive }

// =============================================================================
// REFERENCE DATA
// =============================================================================

// Benefit is a named trust benefit. Immutable reference data.
type Benefit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Worker is the subject of evaluation. EmployerID and WorkStatusID are
// denormalized references; either may be empty.
type Worker struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmployerID   string `json:"employer_id,omitempty"`
	WorkStatusID string `json:"work_status_id,omitempty"`
	Active       bool   `json:"active"`
}

// Employer holds the home-employer side of policy resolution. CurrentPolicyID
// is the standing policy reference used when no history entry applies.
type Employer struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CurrentPolicyID string `json:"current_policy_id,omitempty"`
}

// PolicyHistoryEntry is an effective-dated policy assignment for an employer.
type PolicyHistoryEntry struct {
	EmployerID  string    `json:"employer_id"`
	PolicyID    string    `json:"policy_id"`
	EffectiveAt time.Time `json:"effective_at"`
}

// =============================================================================
// POLICY
// =============================================================================

// ConfiguredRule binds a registered rule to a benefit with its configuration.
type ConfiguredRule struct {
	RuleID    string     `json:"rule_id"`
	AppliesTo []ScanType `json:"applies_to"`
	Config    RuleConfig `json:"config,omitempty"`
}

// AppliesToScan reports whether the rule participates in the given scan type.
func (cr ConfiguredRule) AppliesToScan(st ScanType) bool {
	for _, s := range cr.AppliesTo {
		if s == st {
			return true
		}
	}
	return false
}

// Policy is a named bundle of benefit ids and, per benefit, an ordered list
// of eligibility rules. BenefitIDs preserves authoring order.
type Policy struct {
	ID         string                      `json:"id"`
	Name       string                      `json:"name"`
	BenefitIDs []string                    `json:"benefit_ids"`
	Rules      map[string][]ConfiguredRule `json:"rules"` // benefit id -> ordered rules
}

// RulesFor returns the ordered rule list configured for a benefit.
func (p *Policy) RulesFor(benefitID string) []ConfiguredRule {
	if p.Rules == nil {
		return nil
	}
	return p.Rules[benefitID]
}

// =============================================================================
// WORKER-MONTHLY-BENEFIT RECORD
// =============================================================================

// WMBRecord is the persisted fact "this worker has this benefit for this
// month". At most one record exists per (WorkerID, BenefitID, Month, Year).
type WMBRecord struct {
	ID         string `json:"id"`
	WorkerID   string `json:"worker_id"`
	BenefitID  string `json:"benefit_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	EmployerID string `json:"employer_id,omitempty"`
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

// ValidMonth reports whether month/year name a real calendar month.
func ValidMonth(month, year int) bool {
	return month >= 1 && month <= 12 && year > 0
}

// PrevMonth returns the month immediately before (month, year).
func PrevMonth(month, year int) (int, int) {
	if month == 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// AddMonths returns (month, year) shifted by n months. n may be negative.
func AddMonths(month, year, n int) (int, int) {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return int(t.Month()), t.Year()
}

// FirstOfMonth returns midnight UTC on the first day of the month.
func FirstOfMonth(month, year int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey formats a month for reasons and log fields, e.g. "2025-02".
func MonthKey(month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
