package rules

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// CNFClause is a disjunction of literals, e.g. (~A OR ~B OR C).
// To stay Horn-convertible a clause may contain at most one positive
// literal.
type CNFClause struct {
	Literals []models.Literal
}

// String renders the clause in the conventional "(~A OR B)" form
func (c CNFClause) String() string {
	if len(c.Literals) == 0 {
		return "()"
	}
	parts := make([]string, len(c.Literals))
	for i, lit := range c.Literals {
		parts[i] = lit.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// HornFromCNF converts a Horn-compatible CNF clause into a HornRule.
// The single positive literal becomes the conclusion and every negated
// literal becomes a positive premise (~A OR ~B OR C  ==  A AND B -> C).
// A clause with no positive literal is an integrity constraint: its
// conclusion is the synthetic always-false fact, which the action
// resolver ignores.
func HornFromCNF(clause CNFClause, ruleID, description string) (*models.HornRule, error) {
	if strings.TrimSpace(ruleID) == "" {
		return nil, models.ErrInvalidRuleID
	}
	if len(clause.Literals) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrEmptyClause, ruleID)
	}

	var conclusion string
	premises := make([]models.Literal, 0, len(clause.Literals))
	for i, lit := range clause.Literals {
		if err := models.ValidateSymbol(lit.Symbol); err != nil {
			return nil, fmt.Errorf("clause literal %d: %w", i, err)
		}
		if lit.Negated {
			// ~A in the disjunction means A must hold in the premise
			premises = append(premises, models.Literal{Symbol: lit.Symbol})
			continue
		}
		if conclusion != "" {
			return nil, fmt.Errorf("%w: clause %s has more than one positive literal", models.ErrNonHornClause, clause)
		}
		conclusion = lit.Symbol
	}

	if conclusion == "" {
		conclusion = models.FactFalse
	}

	rule := &models.HornRule{
		ID:          strings.TrimSpace(ruleID),
		Premises:    premises,
		Conclusion:  conclusion,
		Description: description,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// HornToCNF converts a HornRule back to its clause form.
// A AND B -> C becomes (~A OR ~B OR C); negated premises flip polarity.
// Integrity constraints (FALSE conclusion) convert back to an all-negated
// clause, so HornFromCNF and HornToCNF round-trip.
func HornToCNF(rule *models.HornRule) CNFClause {
	literals := make([]models.Literal, 0, len(rule.Premises)+1)
	for _, p := range rule.Premises {
		literals = append(literals, models.Literal{Symbol: p.Symbol, Negated: !p.Negated})
	}
	if rule.Conclusion != models.FactFalse {
		literals = append(literals, models.Literal{Symbol: rule.Conclusion})
	}
	return CNFClause{Literals: literals}
}

// ParseCNFClause parses a clause string like "(~A OR ~B OR C)".
// Negation is written "~A" or "NOT A"; surrounding parentheses are
// optional.
func ParseCNFClause(s string) (CNFClause, error) {
	raw := strings.TrimSpace(s)
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	if raw == "" {
		return CNFClause{}, fmt.Errorf("%w: %q", models.ErrEmptyClause, s)
	}

	parts := strings.Split(raw, " OR ")
	literals := make([]models.Literal, 0, len(parts))
	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			return CNFClause{}, fmt.Errorf("empty literal in clause %q", s)
		}

		negated := false
		switch {
		case strings.HasPrefix(p, "~"):
			negated = true
			p = strings.TrimSpace(p[1:])
		case strings.HasPrefix(strings.ToUpper(p), "NOT "):
			negated = true
			p = strings.TrimSpace(p[4:])
		}

		if err := models.ValidateSymbol(p); err != nil {
			return CNFClause{}, fmt.Errorf("clause %q: %w", s, err)
		}
		literals = append(literals, models.Literal{Symbol: p, Negated: negated})
	}
	return CNFClause{Literals: literals}, nil
}
