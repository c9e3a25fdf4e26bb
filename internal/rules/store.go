package rules

import (
	"fmt"
	"sync"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// InMemoryRuleStore is an in-memory implementation of RuleStore.
// Insertion order is preserved so GetAllRules (and therefore any Set
// built from this store) has a stable, deterministic order.
type InMemoryRuleStore struct {
	mu      sync.RWMutex
	rules   map[string]*models.HornRule
	ordered []string
}

// NewInMemoryRuleStore creates a new in-memory rule store
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*models.HornRule),
	}
}

// NewInMemoryRuleStoreFromSet seeds a store with the contents of a Set
func NewInMemoryRuleStoreFromSet(set *Set) *InMemoryRuleStore {
	store := NewInMemoryRuleStore()
	for _, rule := range set.Rules() {
		// Set contents are already validated and duplicate-free
		_ = store.AddRule(rule)
	}
	return store
}

// GetRule retrieves a rule by ID
func (s *InMemoryRuleStore) GetRule(id string) (*models.HornRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrRuleNotFound, id)
	}

	// Return a copy to prevent external modifications
	return copyRule(rule), nil
}

// GetAllRules retrieves all rules in insertion order
func (s *InMemoryRuleStore) GetAllRules() ([]*models.HornRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.HornRule, 0, len(s.ordered))
	for _, id := range s.ordered {
		out = append(out, copyRule(s.rules[id]))
	}
	return out, nil
}

// AddRule adds a new rule
func (s *InMemoryRuleStore) AddRule(rule *models.HornRule) error {
	if err := ValidateRule(rule); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateRuleID, rule.ID)
	}

	s.rules[rule.ID] = copyRule(rule)
	s.ordered = append(s.ordered, rule.ID)
	return nil
}

// UpdateRule updates an existing rule in place, keeping its position in
// the evaluation order
func (s *InMemoryRuleStore) UpdateRule(rule *models.HornRule) error {
	if err := ValidateRule(rule); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; !exists {
		return fmt.Errorf("%w: %s", models.ErrRuleNotFound, rule.ID)
	}

	s.rules[rule.ID] = copyRule(rule)
	return nil
}

// DeleteRule deletes a rule by ID
func (s *InMemoryRuleStore) DeleteRule(id string) error {
	if id == "" {
		return models.ErrInvalidRuleID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("%w: %s", models.ErrRuleNotFound, id)
	}

	delete(s.rules, id)
	for i, existing := range s.ordered {
		if existing == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of rules in the store
func (s *InMemoryRuleStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rules)
}

// Clear removes all rules from the store
func (s *InMemoryRuleStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = make(map[string]*models.HornRule)
	s.ordered = nil
}
