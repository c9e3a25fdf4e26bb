package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/multierr"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Rule files are JSON. Accepted shapes:
//   - an array of rule objects:          [ {...}, {...} ]
//   - an object with a "rules" key:      { "rules": [ ... ] }
//   - a mapping keyed by rule ID:        { "R1": {...}, "R2": {...} }
//   - a single rule object:              { "rule_id": ... }
// A rule object is {"rule_id", "premises": [{"symbol", "negated"?}],
// "conclusion", "description"?}; "negated" defaults to false. In the
// keyed-mapping shape the key supplies the rule ID and entries are
// ordered by ID, since JSON objects carry no order of their own.

// ruleDocument covers the {"rules": [...]} wrapper shape
type ruleDocument struct {
	Rules []json.RawMessage `json:"rules"`
}

// LoadSet parses rule descriptors from JSON bytes into a validated Set.
// Validation does not stop at the first bad descriptor: every malformed
// entry is reported, identified by its index and raw content.
func LoadSet(data []byte) (*Set, error) {
	descriptors, err := splitDescriptors(data)
	if err != nil {
		return nil, err
	}

	var errs error
	parsed := make([]*models.HornRule, 0, len(descriptors))
	seen := make(map[string]int, len(descriptors))

	for i, raw := range descriptors {
		var rule models.HornRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w (descriptor: %s)", i, err, compact(raw)))
			continue
		}
		if err := ValidateRule(&rule); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w (descriptor: %s)", i, err, compact(raw)))
			continue
		}
		if prev, dup := seen[rule.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w: %q also used by rule %d", i, models.ErrDuplicateRuleID, rule.ID, prev))
			continue
		}
		seen[rule.ID] = i
		parsed = append(parsed, &rule)
	}

	if errs != nil {
		return nil, fmt.Errorf("rule config has %d invalid entries: %w", len(multierr.Errors(errs)), errs)
	}
	return NewSet(parsed...)
}

// LoadSetFromReader parses rule descriptors from an io.Reader
func LoadSetFromReader(reader io.Reader) (*Set, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule data: %w", err)
	}
	return LoadSet(data)
}

// LoadSetFromFile loads a rule set from a JSON file. A missing file is a
// distinct failure (models.ErrRuleFileNotFound) from malformed content.
func LoadSetFromFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrRuleFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return LoadSet(data)
}

// LoadSetFromClauses builds a Set from CNF clause strings keyed by rule
// ID, converting each clause to Horn form. Clause errors are aggregated
// the same way descriptor errors are. The clauses slice preserves order.
func LoadSetFromClauses(clauses []CNFClauseDescriptor) (*Set, error) {
	var errs error
	parsed := make([]*models.HornRule, 0, len(clauses))
	for i, desc := range clauses {
		clause, err := ParseCNFClause(desc.Clause)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clause %d (%s): %w", i, desc.RuleID, err))
			continue
		}
		rule, err := HornFromCNF(clause, desc.RuleID, desc.Description)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clause %d (%s): %w", i, desc.RuleID, err))
			continue
		}
		parsed = append(parsed, rule)
	}
	if errs != nil {
		return nil, fmt.Errorf("clause config has %d invalid entries: %w", len(multierr.Errors(errs)), errs)
	}
	return NewSet(parsed...)
}

// CNFClauseDescriptor is the declarative form of a CNF-sourced rule
type CNFClauseDescriptor struct {
	RuleID      string `json:"rule_id"`
	Clause      string `json:"clause"`
	Description string `json:"description,omitempty"`
}

// splitDescriptors normalizes the accepted JSON shapes into a flat list
// of raw rule descriptors
func splitDescriptors(data []byte) ([]json.RawMessage, error) {
	var asList []json.RawMessage
	if err := json.Unmarshal(data, &asList); err == nil {
		return asList, nil
	}

	var asDoc ruleDocument
	if err := json.Unmarshal(data, &asDoc); err == nil && asDoc.Rules != nil {
		return asDoc.Rules, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return nil, fmt.Errorf("rule config must be a JSON array, a {\"rules\": [...]} object, a mapping keyed by rule ID, or a single rule object: %w", err)
	}

	// An object with a "rule_id" key is a single rule descriptor
	if _, single := asObject["rule_id"]; single {
		return []json.RawMessage{json.RawMessage(data)}, nil
	}
	return keyedDescriptors(asObject)
}

// keyedDescriptors flattens the {"R1": {...}} mapping shape, stamping
// each entry's key in as its rule ID
func keyedDescriptors(entries map[string]json.RawMessage) ([]json.RawMessage, error) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	descriptors := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entries[id], &fields); err != nil {
			return nil, fmt.Errorf("rule %q: descriptor must be an object: %w", id, err)
		}
		if _, has := fields["rule_id"]; !has {
			fields["rule_id"] = json.RawMessage(fmt.Sprintf("%q", id))
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", id, err)
		}
		descriptors = append(descriptors, raw)
	}
	return descriptors, nil
}

// compact renders a raw descriptor on one line for error messages
func compact(raw json.RawMessage) string {
	var buf []byte
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		if buf, err = json.Marshal(v); err == nil {
			return string(buf)
		}
	}
	return string(raw)
}
