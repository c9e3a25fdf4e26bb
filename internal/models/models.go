package models

import (
	"fmt"
	"strings"
	"time"
)

// Action is the final trading decision produced by an inference run
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Canonical fact symbols consulted by the action resolver.
// Rules derive an action by concluding one of these facts.
const (
	FactBuy  = "BUY"
	FactSell = "SELL"

	// FactFalse is the synthetic conclusion assigned to integrity
	// constraints (CNF clauses with no positive literal). It is never
	// treated as an action trigger.
	FactFalse = "FALSE"

	// FactVolatilityUnknown is set when the snapshot carries no
	// volatility reading, so rules can branch on "unknown" explicitly
	// instead of mistaking missing data for low volatility.
	FactVolatilityUnknown = "VOLATILITY_UNKNOWN"
)

// MarketIndicators is a point-in-time snapshot of the numeric indicators
// the fact vocabulary maps into boolean propositions.
// RSI is conventionally 0-100 but is not range-enforced here.
type MarketIndicators struct {
	RSI        float64  `json:"rsi"`
	MACD       float64  `json:"macd"`
	MA20       float64  `json:"ma20"`
	MA50       float64  `json:"ma50"`
	Volume     float64  `json:"volume"`
	Volatility *float64 `json:"volatility,omitempty"` // nil = unknown
}

// Validate validates a MarketIndicators snapshot
func (m *MarketIndicators) Validate() error {
	if m.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// HasVolatility reports whether the snapshot carries a volatility reading
func (m *MarketIndicators) HasVolatility() bool {
	return m.Volatility != nil
}

// Literal is a proposition symbol with a polarity. Immutable value;
// equality is by (Symbol, Negated).
type Literal struct {
	Symbol  string `json:"symbol"`
	Negated bool   `json:"negated,omitempty"`
}

// Satisfied evaluates the literal against a truth assignment.
// Symbols absent from the assignment are treated as false (closed world).
func (l Literal) Satisfied(truth map[string]bool) bool {
	value := truth[l.Symbol]
	if l.Negated {
		return !value
	}
	return value
}

// Validate validates a Literal
func (l Literal) Validate() error {
	return ValidateSymbol(l.Symbol)
}

// String renders the literal as "SYMBOL" or "~SYMBOL"
func (l Literal) String() string {
	if l.Negated {
		return "~" + l.Symbol
	}
	return l.Symbol
}

// HornRule is an IF-THEN rule: when every premise literal is satisfied,
// the conclusion fact becomes true. Rules are immutable once constructed
// and are shared read-only across concurrent inference runs.
type HornRule struct {
	ID          string    `json:"rule_id"`
	Premises    []Literal `json:"premises"`
	Conclusion  string    `json:"conclusion"`
	Description string    `json:"description,omitempty"`
}

// Validate validates a HornRule
func (r *HornRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidRuleID
	}
	if err := ValidateSymbol(r.Conclusion); err != nil {
		return fmt.Errorf("%w: conclusion %q", ErrInvalidConclusion, r.Conclusion)
	}
	for i, lit := range r.Premises {
		if err := lit.Validate(); err != nil {
			return fmt.Errorf("premise %d: %w", i, err)
		}
		// A rule whose body negates its own head is trivially
		// self-contradicting and is rejected at construction time.
		if lit.Negated && lit.Symbol == r.Conclusion {
			return ErrNegatedConclusion
		}
	}
	return nil
}

// String renders the rule as "ID: IF A AND ~B THEN C".
// Premise-free rules render as unconditional facts.
func (r *HornRule) String() string {
	if len(r.Premises) == 0 {
		return fmt.Sprintf("%s: %s", r.ID, r.Conclusion)
	}
	parts := make([]string, len(r.Premises))
	for i, lit := range r.Premises {
		parts[i] = lit.String()
	}
	return fmt.Sprintf("%s: IF %s THEN %s", r.ID, strings.Join(parts, " AND "), r.Conclusion)
}

// InferenceStep records one rule firing, for explainability
type InferenceStep struct {
	RuleID    string    `json:"rule_id"`
	AddedFact string    `json:"added_fact"`
	Premises  []Literal `json:"premises"`
}

// InferenceResult is the complete output of one inference run
type InferenceResult struct {
	ID           string          `json:"id,omitempty"`
	Action       Action          `json:"action"`
	FiredRules   []string        `json:"fired_rules"`
	Chain        []InferenceStep `json:"inference_chain"`
	Truth        map[string]bool `json:"truth_assignments"`
	DerivedFacts []string        `json:"derived_facts"`
	Conflict     bool            `json:"conflict"`
	Truncated    bool            `json:"truncated"`
	EvaluatedAt  time.Time       `json:"evaluated_at"`
}

// Validate validates an InferenceResult
func (r *InferenceResult) Validate() error {
	switch r.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("invalid action: %q", r.Action)
	}
	if r.EvaluatedAt.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// ValidateSymbol checks that a proposition symbol is well-formed:
// non-empty, letters/digits/underscores only, not starting with a digit
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrInvalidSymbol
	}
	for i, c := range symbol {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return fmt.Errorf("%w: %q starts with a digit", ErrInvalidSymbol, symbol)
			}
		default:
			return fmt.Errorf("%w: %q contains invalid character %q", ErrInvalidSymbol, symbol, c)
		}
	}
	return nil
}

// Bar represents a finalized OHLCV bar used to build indicator snapshots
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}
