package rules

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// ValidateRule validates a single rule. Duplicate or contradictory
// premises are not rejected here: a body that asserts and negates the
// same symbol is unsatisfiable and simply never fires, which
// Set.UnsatisfiableRules surfaces as a lint at engine construction.
func ValidateRule(rule *models.HornRule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	return rule.Validate()
}

// ValidateAgainstVocabulary checks that every symbol referenced by the
// rule is either a registered fact name, a fact some rule in the set can
// derive, or a canonical action fact. Unknown symbols are reported with
// models.ErrUnknownPredicate.
func ValidateAgainstVocabulary(rule *models.HornRule, vocabulary map[string]bool) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}

	known := func(sym string) bool {
		return vocabulary[sym] ||
			sym == models.FactBuy || sym == models.FactSell || sym == models.FactFalse
	}

	for _, lit := range rule.Premises {
		if !known(lit.Symbol) {
			return fmt.Errorf("rule %s: %w: %s", rule.ID, models.ErrUnknownPredicate, lit.Symbol)
		}
	}
	if !known(rule.Conclusion) {
		return fmt.Errorf("rule %s: %w: %s", rule.ID, models.ErrUnknownPredicate, rule.Conclusion)
	}
	return nil
}
