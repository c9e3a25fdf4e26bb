package rules

import (
	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// RuleStore defines the interface for storing and retrieving Horn rules.
// Stores manage rule persistence and distribution; inference always runs
// against an immutable Set snapshot, never against a live store.
type RuleStore interface {
	// GetRule retrieves a rule by ID
	GetRule(id string) (*models.HornRule, error)

	// GetAllRules retrieves all rules in a stable order
	GetAllRules() ([]*models.HornRule, error)

	// AddRule adds a new rule
	AddRule(rule *models.HornRule) error

	// UpdateRule updates an existing rule
	UpdateRule(rule *models.HornRule) error

	// DeleteRule deletes a rule by ID
	DeleteRule(id string) error
}

// SetFromStore snapshots a store's current rules into an immutable Set
func SetFromStore(store RuleStore) (*Set, error) {
	all, err := store.GetAllRules()
	if err != nil {
		return nil, err
	}
	return NewSet(all...)
}
