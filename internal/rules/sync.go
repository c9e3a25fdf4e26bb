package rules

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

// RuleSyncService pushes rules from an authoritative store (typically the
// in-memory store behind the API, seeded from a rules file) into Redis,
// where evaluation workers and search collaborators pick them up.
type RuleSyncService struct {
	source     RuleStore
	redisStore *RedisRuleStore
}

// NewRuleSyncService creates a new rule sync service
func NewRuleSyncService(source RuleStore, redisStore *RedisRuleStore) *RuleSyncService {
	return &RuleSyncService{
		source:     source,
		redisStore: redisStore,
	}
}

// SyncAllRules syncs every rule from the source store to Redis
func (s *RuleSyncService) SyncAllRules() error {
	all, err := s.source.GetAllRules()
	if err != nil {
		return fmt.Errorf("failed to get rules from source store: %w", err)
	}

	logger.Info("Syncing rules to Redis",
		logger.Int("count", len(all)),
	)

	for _, rule := range all {
		if err := s.syncOne(rule.ID); err != nil {
			logger.Warn("Failed to sync rule to Redis",
				logger.ErrorField(err),
				logger.String("rule_id", rule.ID),
			)
			// Continue with other rules
		}
	}

	return nil
}

// SyncRule syncs a single rule from the source store to Redis
func (s *RuleSyncService) SyncRule(ruleID string) error {
	return s.syncOne(ruleID)
}

// DeleteRuleFromRedis removes a rule from Redis
func (s *RuleSyncService) DeleteRuleFromRedis(ruleID string) error {
	if err := s.redisStore.DeleteRule(ruleID); err != nil {
		return fmt.Errorf("failed to delete rule from Redis: %w", err)
	}
	return nil
}

func (s *RuleSyncService) syncOne(ruleID string) error {
	rule, err := s.source.GetRule(ruleID)
	if err != nil {
		return fmt.Errorf("failed to get rule from source store: %w", err)
	}

	// AddRule rejects duplicates; fall back to update for existing rules
	if err := s.redisStore.AddRule(rule); err != nil {
		if updateErr := s.redisStore.UpdateRule(rule); updateErr != nil {
			return fmt.Errorf("failed to sync rule to Redis: %w", updateErr)
		}
	}
	return nil
}
