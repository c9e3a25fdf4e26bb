package engine

import (
	"reflect"
	"testing"

	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
)

func mustSet(t *testing.T, ruleList ...*models.HornRule) *rules.Set {
	t.Helper()
	set, err := rules.NewSet(ruleList...)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	return set
}

func mustEngine(t *testing.T, set *rules.Set, config Config) *Engine {
	t.Helper()
	e, err := New(set, facts.NewRegistry(), nil, config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func rule(id string, conclusion string, premises ...models.Literal) *models.HornRule {
	return &models.HornRule{ID: id, Premises: premises, Conclusion: conclusion}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, facts.NewRegistry(), nil, Config{}); err == nil {
		t.Error("expected error for nil rule set")
	}
	set := mustSet(t, rule("R1", models.FactBuy, models.Literal{Symbol: "A"}))
	if _, err := New(set, nil, nil, Config{}); err == nil {
		t.Error("expected error for nil registry")
	}

	e := mustEngine(t, set, Config{})
	if e.MaxSteps() != DefaultMaxSteps {
		t.Errorf("expected default max steps %d, got %d", DefaultMaxSteps, e.MaxSteps())
	}
}

func TestInfer_MultiPassChaining(t *testing.T) {
	// R_LATE depends on a fact R_EARLY derives, but sits first in the
	// evaluation order, forcing a second pass.
	e := mustEngine(t, mustSet(t,
		rule("R_LATE", "C", models.Literal{Symbol: "B"}),
		rule("R_EARLY", "B", models.Literal{Symbol: "A"}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true})

	wantFired := []string{"R_EARLY", "R_LATE"}
	if !reflect.DeepEqual(result.FiredRules, wantFired) {
		t.Errorf("expected fired %v, got %v", wantFired, result.FiredRules)
	}
	if !result.Truth["B"] || !result.Truth["C"] {
		t.Errorf("expected B and C derived, truth: %v", result.Truth)
	}
	if result.Truncated {
		t.Error("unexpected truncation")
	}
}

func TestInfer_UnsatisfiableRuleNeverFires(t *testing.T) {
	// A body asserting and negating the same symbol is accepted at
	// construction but can never be satisfied; the rest of the set
	// chains normally around it.
	e := mustEngine(t, mustSet(t,
		rule("NEVER", models.FactSell,
			models.Literal{Symbol: "A"},
			models.Literal{Symbol: "A", Negated: true},
		),
		rule("FIRES", models.FactBuy, models.Literal{Symbol: "A"}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true})

	if !reflect.DeepEqual(result.FiredRules, []string{"FIRES"}) {
		t.Errorf("expected only FIRES to fire, got %v", result.FiredRules)
	}
	if result.Action != models.ActionBuy {
		t.Errorf("expected BUY, got %s", result.Action)
	}
	if result.Truth[models.FactSell] {
		t.Error("unsatisfiable rule must not derive its conclusion")
	}
}

func TestInfer_Deterministic(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R1", models.FactBuy, models.Literal{Symbol: "A"}),
		rule("R2", "X", models.Literal{Symbol: "A"}),
		rule("R3", "Y", models.Literal{Symbol: "X"}),
	), Config{})

	base := map[string]bool{"A": true}
	first := e.Infer(base)
	for i := 0; i < 10; i++ {
		again := e.Infer(base)
		if !reflect.DeepEqual(first.FiredRules, again.FiredRules) {
			t.Fatalf("run %d: fired rules diverged: %v vs %v", i, first.FiredRules, again.FiredRules)
		}
		if !reflect.DeepEqual(first.Chain, again.Chain) {
			t.Fatalf("run %d: chains diverged", i)
		}
	}
}

func TestInfer_InputNotModified(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R1", "B", models.Literal{Symbol: "A"}),
	), Config{})

	base := map[string]bool{"A": true}
	e.Infer(base)
	if len(base) != 1 {
		t.Errorf("input map was modified: %v", base)
	}
}

func TestInfer_ClosedWorldNegation(t *testing.T) {
	// ~MISSING is satisfied because MISSING was never asserted
	e := mustEngine(t, mustSet(t,
		rule("R1", models.FactBuy,
			models.Literal{Symbol: "A"},
			models.Literal{Symbol: "MISSING", Negated: true},
		),
	), Config{})

	result := e.Infer(map[string]bool{"A": true})
	if result.Action != models.ActionBuy {
		t.Errorf("expected BUY, got %s", result.Action)
	}

	// An explicitly false fact behaves the same as an absent one
	result = e.Infer(map[string]bool{"A": true, "MISSING": false})
	if result.Action != models.ActionBuy {
		t.Errorf("explicit false: expected BUY, got %s", result.Action)
	}

	// Once MISSING is true the negated premise blocks the rule
	result = e.Infer(map[string]bool{"A": true, "MISSING": true})
	if result.Action != models.ActionHold {
		t.Errorf("expected HOLD, got %s", result.Action)
	}
}

func TestInfer_SkipsAlreadyTrueConclusions(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("REDUNDANT", "A", models.Literal{Symbol: "B"}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true, "B": true})
	if len(result.FiredRules) != 0 {
		t.Errorf("rule with already-true conclusion should not fire, fired %v", result.FiredRules)
	}
	if len(result.DerivedFacts) != 0 {
		t.Errorf("expected no derived facts, got %v", result.DerivedFacts)
	}
}

func TestInfer_Conflict(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R_BUY", models.FactBuy, models.Literal{Symbol: "A"}),
		rule("R_SELL", models.FactSell, models.Literal{Symbol: "A"}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true})
	if result.Action != models.ActionHold {
		t.Errorf("expected HOLD on conflict, got %s", result.Action)
	}
	if !result.Conflict {
		t.Error("expected conflict flag")
	}
	// The derivation still records both firings
	if len(result.FiredRules) != 2 {
		t.Errorf("expected both rules fired, got %v", result.FiredRules)
	}
}

func TestInfer_IntegrityConstraintDoesNotDriveAction(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R_BUY", models.FactBuy, models.Literal{Symbol: "A"}),
		rule("NO_BUY_ALLOWED", models.FactFalse, models.Literal{Symbol: models.FactBuy}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true})
	if result.Action != models.ActionBuy {
		t.Errorf("FALSE conclusion must not affect the action, got %s", result.Action)
	}
	if !result.Truth[models.FactFalse] {
		t.Error("integrity constraint should still derive FALSE for inspection")
	}
}

func TestInfer_StepBudgetTruncation(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R1", "F1", models.Literal{Symbol: "A"}),
		rule("R2", "F2", models.Literal{Symbol: "A"}),
		rule("R3", "F3", models.Literal{Symbol: "A"}),
	), Config{MaxSteps: 2})

	result := e.Infer(map[string]bool{"A": true})
	if !result.Truncated {
		t.Error("expected truncation with budget below firable rule count")
	}
	if len(result.FiredRules) != 2 {
		t.Errorf("expected exactly 2 firings, got %v", result.FiredRules)
	}
	if result.Truth["F3"] {
		t.Error("third rule should not have fired")
	}
}

func TestInfer_BudgetExactlySufficient(t *testing.T) {
	// Using the whole budget without leaving a firable rule is not
	// truncation: the fixed point was reached.
	e := mustEngine(t, mustSet(t,
		rule("R1", "F1", models.Literal{Symbol: "A"}),
		rule("R2", "F2", models.Literal{Symbol: "F1"}),
	), Config{MaxSteps: 2})

	result := e.Infer(map[string]bool{"A": true})
	if result.Truncated {
		t.Error("fixed point reached at exactly the budget must not be truncated")
	}
	if len(result.FiredRules) != 2 {
		t.Errorf("expected 2 firings, got %v", result.FiredRules)
	}
}

func TestInfer_Monotonic(t *testing.T) {
	e := mustEngine(t, mustSet(t,
		rule("R1", "B", models.Literal{Symbol: "A"}),
		rule("R2", "C", models.Literal{Symbol: "B"}),
		rule("R3", models.FactBuy, models.Literal{Symbol: "C"}),
	), Config{})

	result := e.Infer(map[string]bool{"A": true, "UNRELATED": true})

	// Every base fact keeps its value in the final assignment
	if !result.Truth["A"] || !result.Truth["UNRELATED"] {
		t.Error("base facts must survive inference unchanged")
	}
	// Derived facts only ever flip false -> true
	for _, fact := range result.DerivedFacts {
		if !result.Truth[fact] {
			t.Errorf("derived fact %s is not true in the final assignment", fact)
		}
	}
}

func TestResolveAction(t *testing.T) {
	tests := []struct {
		name     string
		truth    map[string]bool
		action   models.Action
		conflict bool
	}{
		{"neither", map[string]bool{}, models.ActionHold, false},
		{"buy only", map[string]bool{models.FactBuy: true}, models.ActionBuy, false},
		{"sell only", map[string]bool{models.FactSell: true}, models.ActionSell, false},
		{"both", map[string]bool{models.FactBuy: true, models.FactSell: true}, models.ActionHold, true},
		{"explicit false buy", map[string]bool{models.FactBuy: false, models.FactSell: true}, models.ActionSell, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, conflict := ResolveAction(tt.truth)
			if action != tt.action || conflict != tt.conflict {
				t.Errorf("expected (%s, %v), got (%s, %v)", tt.action, tt.conflict, action, conflict)
			}
		})
	}
}
