/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into eligibility.Policy values. Policies
  are authored as data (by the excluded admin UI or by hand) so benefit and
  rule configuration changes need no code change.

JSON SCHEMA:
  {
    "id": "policy-standard",
    "name": "Standard Trust Policy",
    "benefits": [
      {
        "benefit_id": "health",
        "rules": [
          {
            "rule": "hours_lookback",
            "applies_to": ["start", "continue"],
            "config": {"lookback_months": 4}
          },
          {
            "rule": "work_status",
            "applies_to": ["start"],
            "config": {"status_ids": ["active"]}
          }
        ]
      }
    ]
  }

VALIDATION:
  Every configured rule is validated against the registry at parse time:
  the shared base schema (at least one applies_to value) plus the rule's
  own ValidateConfig. Problems come back as a structured field-error list,
  so malformed configuration is caught when a policy is authored and never
  surfaces mid-scan.
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/benefits-engine/eligibility"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy.
type PolicyJSON struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Benefits []BenefitRulesJSON `json:"benefits"`
}

// BenefitRulesJSON binds one benefit to its ordered rule list.
type BenefitRulesJSON struct {
	BenefitID string     `json:"benefit_id"`
	Rules     []RuleJSON `json:"rules"`
}

// RuleJSON is one configured rule as authored.
type RuleJSON struct {
	Rule      string         `json:"rule"`
	AppliesTo []string       `json:"applies_to"`
	Config    map[string]any `json:"config,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// PolicyFactory validates and converts policy JSON against a rule registry.
type PolicyFactory struct {
	Registry *eligibility.Registry
}

// NewPolicyFactory returns a factory over the given registry.
func NewPolicyFactory(reg *eligibility.Registry) *PolicyFactory {
	return &PolicyFactory{Registry: reg}
}

// ParsePolicy converts policy JSON into a Policy. Config problems are
// returned as a FieldError list with paths like
// "benefits[0].rules[1].applies_to"; a non-nil error means the JSON itself
// could not be decoded.
func (f *PolicyFactory) ParsePolicy(data []byte) (*eligibility.Policy, []eligibility.FieldError, error) {
	var pj PolicyJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, nil, fmt.Errorf("invalid policy JSON: %w", err)
	}

	var errs []eligibility.FieldError
	if pj.ID == "" {
		errs = append(errs, eligibility.FieldError{Field: "id", Message: "required"})
	}
	if pj.Name == "" {
		errs = append(errs, eligibility.FieldError{Field: "name", Message: "required"})
	}
	if len(pj.Benefits) == 0 {
		errs = append(errs, eligibility.FieldError{Field: "benefits", Message: "must list at least one benefit"})
	}

	policy := &eligibility.Policy{
		ID:    pj.ID,
		Name:  pj.Name,
		Rules: make(map[string][]eligibility.ConfiguredRule),
	}

	for i, b := range pj.Benefits {
		path := fmt.Sprintf("benefits[%d]", i)
		if b.BenefitID == "" {
			errs = append(errs, eligibility.FieldError{Field: path + ".benefit_id", Message: "required"})
			continue
		}
		if _, dup := policy.Rules[b.BenefitID]; dup {
			errs = append(errs, eligibility.FieldError{Field: path + ".benefit_id", Message: "duplicate benefit"})
			continue
		}

		rules := make([]eligibility.ConfiguredRule, 0, len(b.Rules))
		for j, rj := range b.Rules {
			rulePath := fmt.Sprintf("%s.rules[%d]", path, j)
			cr := eligibility.ConfiguredRule{
				RuleID: rj.Rule,
				Config: eligibility.RuleConfig(rj.Config),
			}
			for _, st := range rj.AppliesTo {
				cr.AppliesTo = append(cr.AppliesTo, eligibility.ScanType(st))
			}

			errs = append(errs, prefixFields(rulePath, eligibility.ValidateBaseConfig(cr))...)

			rule, ok := f.Registry.Get(rj.Rule)
			if !ok {
				errs = append(errs, eligibility.FieldError{
					Field:   rulePath + ".rule",
					Message: fmt.Sprintf("unknown rule %q", rj.Rule),
				})
				continue
			}
			errs = append(errs, prefixFields(rulePath+".config", rule.ValidateConfig(cr.Config))...)

			rules = append(rules, cr)
		}

		policy.BenefitIDs = append(policy.BenefitIDs, b.BenefitID)
		policy.Rules[b.BenefitID] = rules
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return policy, nil, nil
}

func prefixFields(prefix string, errs []eligibility.FieldError) []eligibility.FieldError {
	out := make([]eligibility.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, eligibility.FieldError{Field: prefix + "." + e.Field, Message: e.Message})
	}
	return out
}
