package eligibility_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefits-engine/eligibility"
)

// stubRule is a minimal rule whose verdict is fixed at construction.
type stubRule struct {
	id       string
	eligible bool
	err      error
}

func (s *stubRule) ID() string { return s.id }

func (s *stubRule) Evaluate(_ context.Context, _ *eligibility.RuleContext, _ eligibility.RuleConfig) (eligibility.RuleResult, error) {
	if s.err != nil {
		return eligibility.RuleResult{RuleID: s.id}, s.err
	}
	return eligibility.RuleResult{RuleID: s.id, Eligible: s.eligible, Reason: "stub"}, nil
}

func (s *stubRule) ValidateConfig(_ eligibility.RuleConfig) []eligibility.FieldError { return nil }

func TestRegistry_Register_And_Get(t *testing.T) {
	// GIVEN: An empty registry
	// WHEN: Registering a rule
	// THEN: It is retrievable by id

	reg := eligibility.NewRegistry()
	require.NoError(t, reg.Register(&stubRule{id: "stub"}))

	rule, ok := reg.Get("stub")
	assert.True(t, ok)
	assert.Equal(t, "stub", rule.ID())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateID_Rejected(t *testing.T) {
	// GIVEN: A registry with rule "stub"
	// WHEN: Registering another rule under the same id
	// THEN: Registration fails with ErrDuplicateRule

	reg := eligibility.NewRegistry()
	require.NoError(t, reg.Register(&stubRule{id: "stub"}))

	err := reg.Register(&stubRule{id: "stub"})
	assert.ErrorIs(t, err, eligibility.ErrDuplicateRule)
}

func TestRegistry_EmptyID_Rejected(t *testing.T) {
	reg := eligibility.NewRegistry()
	assert.Error(t, reg.Register(&stubRule{id: ""}))
	assert.Error(t, reg.Register(nil))
}

func TestRegistry_MustRegister_PanicsOnDuplicate(t *testing.T) {
	reg := eligibility.NewRegistry()
	reg.MustRegister(&stubRule{id: "stub"})
	assert.Panics(t, func() { reg.MustRegister(&stubRule{id: "stub"}) })
}

func TestDefaultRegistry_HasBuiltinRules(t *testing.T) {
	// GIVEN: The default registry
	// THEN: The three built-in rules are registered, ordered by id

	reg := eligibility.DefaultRegistry()

	for _, id := range []string{
		eligibility.RuleHoursLookback,
		eligibility.RuleWorkStatus,
		eligibility.RuleManual,
	} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "expected built-in rule %s", id)
	}

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, eligibility.RuleHoursLookback, all[0].ID())
	assert.Equal(t, eligibility.RuleManual, all[1].ID())
	assert.Equal(t, eligibility.RuleWorkStatus, all[2].ID())
}
