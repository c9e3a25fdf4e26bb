package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

// DefaultMaxSteps bounds how many rule firings a single inference run may
// perform. Monotonic forward chaining over N rules fires at most N times,
// so the default only matters for pathological rule sets.
const DefaultMaxSteps = 256

// Config holds engine tuning knobs
type Config struct {
	// MaxSteps caps successful rule firings per run (default 256)
	MaxSteps int
}

// Engine runs forward-chaining inference over a fixed rule set and fact
// vocabulary. An Engine is immutable after construction and safe for
// concurrent use; rule changes require building a new Engine from a fresh
// rule snapshot.
type Engine struct {
	rules      *rules.Set
	registry   *facts.Registry
	thresholds facts.Thresholds
	maxSteps   int
}

// New creates an inference engine over the given rule set, fact registry
// and threshold parameters. A nil thresholds map uses the defaults.
func New(set *rules.Set, registry *facts.Registry, thresholds facts.Thresholds, config Config) (*Engine, error) {
	if set == nil {
		return nil, fmt.Errorf("rule set cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("fact registry cannot be nil")
	}

	maxSteps := config.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	if unknown := set.UnknownSymbols(registry.Names()); len(unknown) > 0 {
		// Unknown premise symbols are permanently false under the closed
		// world assumption. Legal, but almost always a typo, so say so.
		logger.Warn("Rule set references facts the vocabulary cannot produce",
			logger.Any("symbols", unknown),
		)
	}
	if unsat := set.UnsatisfiableRules(); len(unsat) > 0 {
		// Contradictory bodies never fire; legal for synthesized rule
		// sets but worth flagging.
		logger.Warn("Rule set contains rules that can never fire",
			logger.Any("rule_ids", unsat),
		)
	}

	return &Engine{
		rules:      set,
		registry:   registry,
		thresholds: thresholds,
		maxSteps:   maxSteps,
	}, nil
}

// Rules returns the engine's rule set
func (e *Engine) Rules() *rules.Set {
	return e.rules
}

// MaxSteps returns the firing budget per run
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Evaluate maps an indicator snapshot to base facts, chains the rule set
// to a fixed point and resolves the final trading action. The returned
// result carries the full derivation so every recommendation can be
// explained after the fact.
func (e *Engine) Evaluate(indicators *models.MarketIndicators) (*models.InferenceResult, error) {
	if indicators == nil {
		return nil, fmt.Errorf("indicators cannot be nil")
	}
	if err := indicators.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicators: %w", err)
	}

	start := time.Now()

	base := e.registry.ComputeAll(indicators, e.thresholds)
	result := e.Infer(base)
	result.ID = uuid.NewString()
	result.EvaluatedAt = time.Now().UTC()

	observeRun(result, time.Since(start))

	logger.Debug("Inference run complete",
		logger.String("run_id", result.ID),
		logger.String("action", string(result.Action)),
		logger.Int("fired_rules", len(result.FiredRules)),
		logger.Bool("conflict", result.Conflict),
		logger.Bool("truncated", result.Truncated),
	)

	return result, nil
}

// Infer forward-chains the rule set over an explicit base truth
// assignment. Facts absent from base are false (closed world). The input
// map is not modified.
func (e *Engine) Infer(base map[string]bool) *models.InferenceResult {
	truth := make(map[string]bool, len(base)+e.rules.Len())
	for symbol, value := range base {
		truth[symbol] = value
	}

	result := &models.InferenceResult{
		FiredRules:   []string{},
		Chain:        []models.InferenceStep{},
		DerivedFacts: []string{},
	}

	ordered := e.rules.Rules()
	steps := 0

	// Each pass scans the rules in insertion order and fires every rule
	// whose premises hold and whose conclusion is still unknown. Firing
	// is monotonic (facts are only added), so the loop reaches a fixed
	// point once a full pass fires nothing.
	for {
		fired := false
		for _, rule := range ordered {
			if truth[rule.Conclusion] {
				continue
			}
			if !premisesSatisfied(rule, truth) {
				continue
			}
			if steps >= e.maxSteps {
				// A rule was ready to fire but the budget is spent
				result.Truncated = true
				break
			}

			truth[rule.Conclusion] = true
			steps++
			fired = true
			result.FiredRules = append(result.FiredRules, rule.ID)
			result.DerivedFacts = append(result.DerivedFacts, rule.Conclusion)
			result.Chain = append(result.Chain, models.InferenceStep{
				RuleID:    rule.ID,
				AddedFact: rule.Conclusion,
				Premises:  append([]models.Literal(nil), rule.Premises...),
			})
		}
		if !fired || result.Truncated {
			break
		}
	}

	result.Truth = truth
	result.Action, result.Conflict = ResolveAction(truth)
	return result
}

func premisesSatisfied(rule *models.HornRule, truth map[string]bool) bool {
	for _, lit := range rule.Premises {
		if !lit.Satisfied(truth) {
			return false
		}
	}
	return true
}
