/*
rule.go - The pluggable eligibility rule contract

PURPOSE:
  A rule is one configured check that yields eligible/ineligible plus a
  reason, scoped to one or both scan classifications. Rules are registered
  once at startup (registry.go) and evaluated per benefit by the executor.

CONTRACT:
  - Evaluate performs read-only lookups and never mutates state.
  - ValidateConfig checks the rule-specific config shape; the shared base
    schema (at least one appliesTo value) lives in ValidateBaseConfig and is
    applied by the policy factory on top of every rule's own validation.
*/
package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
)

// RuleConfig is rule-specific structured configuration, JSON-shaped.
type RuleConfig map[string]any

// RuleResult is one rule's verdict. Every result is retained on the
// benefit action for audit and display.
type RuleResult struct {
	RuleID   string `json:"rule_id"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// RuleContext supplies everything a rule may inspect for one evaluation.
type RuleContext struct {
	ScanType  ScanType
	WorkerID  string
	Month     int
	Year      int
	BenefitID string // optional; set when evaluating for a specific benefit

	Workers  WorkerStore
	Benefits BenefitStore
}

// Rule is the pluggable evaluation capability. Implementations hold no
// mutable state between invocations.
type Rule interface {
	// ID returns the unique identifier the rule registers under.
	ID() string

	// Evaluate yields the rule's verdict for one worker/benefit/period.
	Evaluate(ctx context.Context, rc *RuleContext, cfg RuleConfig) (RuleResult, error)

	// ValidateConfig checks the rule-specific config, returning one
	// FieldError per problem. An empty slice means the config is valid.
	ValidateConfig(cfg RuleConfig) []FieldError
}

// ValidateBaseConfig applies the shared schema every configured rule must
// satisfy: appliesTo names at least one valid scan classification.
func ValidateBaseConfig(cr ConfiguredRule) []FieldError {
	var errs []FieldError
	if len(cr.AppliesTo) == 0 {
		errs = append(errs, FieldError{
			Field:   "applies_to",
			Message: "must include at least one of start, continue",
		})
	}
	for _, st := range cr.AppliesTo {
		if st != ScanStart && st != ScanContinue {
			errs = append(errs, FieldError{
				Field:   "applies_to",
				Message: fmt.Sprintf("unknown scan type %q", st),
			})
		}
	}
	return errs
}

// =============================================================================
// CONFIG ACCESSORS
// =============================================================================
// RuleConfig values come from JSON, so numbers arrive as float64 and lists
// as []any. These helpers normalize the common shapes.

// ConfigInt reads an integer field, falling back to def when absent.
func (c RuleConfig) ConfigInt(field string, def int) (int, error) {
	v, ok := c[field]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: expected integer, got %v", field, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: expected integer, got %v", field, n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", field, v)
	}
}

// ConfigStrings reads a list-of-strings field. A missing field yields nil.
func (c RuleConfig) ConfigStrings(field string) ([]string, error) {
	v, ok := c[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected string elements, got %T", field, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected list of strings, got %T", field, v)
	}
}
