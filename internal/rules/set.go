package rules

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Set is an ordered, immutable collection of Horn rules keyed by rule ID.
// Insertion order is the engine's evaluation order, so a Set built from
// the same rules in the same order always produces the same inference
// trace. A constructed Set is safe to share across concurrent runs.
type Set struct {
	ordered []*models.HornRule
	byID    map[string]*models.HornRule
}

// NewSet builds a Set from validated rules. Duplicate IDs and invalid
// rules are rejected.
func NewSet(ruleList ...*models.HornRule) (*Set, error) {
	s := &Set{
		ordered: make([]*models.HornRule, 0, len(ruleList)),
		byID:    make(map[string]*models.HornRule, len(ruleList)),
	}
	for i, rule := range ruleList {
		if rule == nil {
			return nil, fmt.Errorf("rule %d: cannot be nil", i)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.ID, err)
		}
		if _, exists := s.byID[rule.ID]; exists {
			return nil, fmt.Errorf("rule %d: %w: %s", i, models.ErrDuplicateRuleID, rule.ID)
		}
		copied := copyRule(rule)
		s.ordered = append(s.ordered, copied)
		s.byID[copied.ID] = copied
	}
	return s, nil
}

// Rules returns the rules in evaluation order. The returned slice is a
// copy; the rules themselves are shared and must not be mutated.
func (s *Set) Rules() []*models.HornRule {
	out := make([]*models.HornRule, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Get retrieves a rule by ID
func (s *Set) Get(id string) (*models.HornRule, bool) {
	rule, ok := s.byID[id]
	return rule, ok
}

// Len returns the number of rules in the set
func (s *Set) Len() int {
	return len(s.ordered)
}

// Symbols returns every proposition symbol referenced by the set, in
// first-appearance order: premises and conclusions alike. Useful for
// vocabulary checks and API introspection.
func (s *Set) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(sym string) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	for _, rule := range s.ordered {
		for _, lit := range rule.Premises {
			add(lit.Symbol)
		}
		add(rule.Conclusion)
	}
	return out
}

// UnknownSymbols returns premise symbols that are neither produced by any
// rule in the set, present in the known vocabulary, nor one of the
// canonical action facts. Under the closed-world assumption such symbols
// are permanently false; callers may treat this as a lint, not an error.
func (s *Set) UnknownSymbols(vocabulary []string) []string {
	known := make(map[string]bool, len(vocabulary)+len(s.ordered)+3)
	for _, name := range vocabulary {
		known[name] = true
	}
	for _, rule := range s.ordered {
		known[rule.Conclusion] = true
	}
	known[models.FactBuy] = true
	known[models.FactSell] = true
	known[models.FactFalse] = true

	seen := make(map[string]bool)
	var unknown []string
	for _, rule := range s.ordered {
		for _, lit := range rule.Premises {
			if !known[lit.Symbol] && !seen[lit.Symbol] {
				seen[lit.Symbol] = true
				unknown = append(unknown, lit.Symbol)
			}
		}
	}
	return unknown
}

// UnsatisfiableRules returns the IDs of rules whose body asserts and
// negates the same symbol. Such rules are legal but can never fire, so
// like unknown symbols they are a lint, not an error: synthesized rule
// sets may contain them on purpose.
func (s *Set) UnsatisfiableRules() []string {
	var out []string
	for _, rule := range s.ordered {
		polarity := make(map[string]bool, len(rule.Premises))
		for _, lit := range rule.Premises {
			if negated, ok := polarity[lit.Symbol]; ok && negated != lit.Negated {
				out = append(out, rule.ID)
				break
			}
			polarity[lit.Symbol] = lit.Negated
		}
	}
	return out
}

// copyRule creates a deep copy of a rule
func copyRule(rule *models.HornRule) *models.HornRule {
	if rule == nil {
		return nil
	}
	copied := &models.HornRule{
		ID:          rule.ID,
		Premises:    make([]models.Literal, len(rule.Premises)),
		Conclusion:  rule.Conclusion,
		Description: rule.Description,
	}
	copy(copied.Premises, rule.Premises)
	return copied
}
