/*
registry.go - Rule registry

PURPOSE:
  Process-wide lookup from rule identifier to implementation. The registry
  is an explicit value constructed once at startup and passed by reference
  into the executor and the policy factory; there is no package-level
  mutable registry, so the rule set is testable in isolation.

REGISTRATION:
  Each rule type registers once under a unique id. A duplicate id is a
  fatal configuration error: Register returns ErrDuplicateRule and
  MustRegister panics, which main treats as a startup failure.
*/
package eligibility

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps rule ids to implementations.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule under its id. Registering a duplicate id or a rule
// with an empty id is an error.
func (r *Registry) Register(rule Rule) error {
	if rule == nil {
		return fmt.Errorf("register: nil rule")
	}
	id := rule.ID()
	if id == "" {
		return fmt.Errorf("register: rule has empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[id]; exists {
		return fmt.Errorf("register %s: %w", id, ErrDuplicateRule)
	}
	r.rules[id] = rule
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Get returns the rule registered under id.
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every registered rule, ordered by id.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// DefaultRegistry returns a registry with the built-in rule set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(&HoursLookbackRule{})
	r.MustRegister(&WorkStatusRule{})
	r.MustRegister(&ManualRule{})
	return r
}
