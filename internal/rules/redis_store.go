package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

const (
	// DefaultRedisRuleKeyPrefix is the default prefix for rule keys in Redis
	DefaultRedisRuleKeyPrefix = "kb:rules:"
	// DefaultRedisRuleSetKey is the default key for the set of all rule IDs
	DefaultRedisRuleSetKey = "kb:rules:ids"
	// DefaultRedisRuleTTL is the default TTL for rule keys (1 hour)
	DefaultRedisRuleTTL = 1 * time.Hour
)

// RedisRuleStoreConfig holds configuration for RedisRuleStore
type RedisRuleStoreConfig struct {
	KeyPrefix string        // Prefix for rule keys (default: "kb:rules:")
	SetKey    string        // Key for the set of all rule IDs (default: "kb:rules:ids")
	TTL       time.Duration // TTL for rule keys (default: 1 hour)
}

// DefaultRedisRuleStoreConfig returns default configuration
func DefaultRedisRuleStoreConfig() RedisRuleStoreConfig {
	return RedisRuleStoreConfig{
		KeyPrefix: DefaultRedisRuleKeyPrefix,
		SetKey:    DefaultRedisRuleSetKey,
		TTL:       DefaultRedisRuleTTL,
	}
}

// RedisRuleStore is a Redis-backed implementation of RuleStore, used to
// distribute candidate rule sets between the API and evaluation workers
// (parameter-search and evolution tooling publishes here).
// Rules are stored as JSON under {prefix}{rule_id}; a Redis set holds all
// rule IDs. Redis sets are unordered, so GetAllRules sorts by rule ID to
// keep the evaluation order stable across processes.
type RedisRuleStore struct {
	redis  storage.RedisClient
	config RedisRuleStoreConfig
	ctx    context.Context
}

// NewRedisRuleStore creates a new Redis-backed rule store
func NewRedisRuleStore(redis storage.RedisClient, config RedisRuleStoreConfig) (*RedisRuleStore, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisRuleKeyPrefix
	}
	if config.SetKey == "" {
		config.SetKey = DefaultRedisRuleSetKey
	}
	if config.TTL <= 0 {
		config.TTL = DefaultRedisRuleTTL
	}

	return &RedisRuleStore{
		redis:  redis,
		config: config,
		ctx:    context.Background(),
	}, nil
}

// GetRule retrieves a rule by ID from Redis
func (s *RedisRuleStore) GetRule(id string) (*models.HornRule, error) {
	if id == "" {
		return nil, models.ErrInvalidRuleID
	}

	key := s.config.KeyPrefix + id

	var rule models.HornRule
	err := s.redis.GetJSON(s.ctx, key, &rule)
	if err != nil {
		exists, existsErr := s.redis.Exists(s.ctx, key)
		if existsErr == nil && !exists {
			return nil, fmt.Errorf("%w: %s", models.ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get rule from Redis: %w", err)
	}

	if err := ValidateRule(&rule); err != nil {
		return nil, fmt.Errorf("invalid rule data in Redis: %w", err)
	}

	return &rule, nil
}

// GetAllRules retrieves all rules from Redis, ordered by rule ID
func (s *RedisRuleStore) GetAllRules() ([]*models.HornRule, error) {
	ruleIDs, err := s.redis.SetMembers(s.ctx, s.config.SetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule IDs from Redis: %w", err)
	}

	if len(ruleIDs) == 0 {
		return []*models.HornRule{}, nil
	}

	sort.Strings(ruleIDs)

	out := make([]*models.HornRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rule, err := s.GetRule(id)
		if err != nil {
			logger.Warn("Failed to get rule",
				logger.String("rule_id", id),
				logger.ErrorField(err),
			)
			continue // Skip invalid rules
		}
		out = append(out, rule)
	}

	return out, nil
}

// AddRule adds a new rule to Redis
func (s *RedisRuleStore) AddRule(rule *models.HornRule) error {
	if err := ValidateRule(rule); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	exists, err := s.redis.Exists(s.ctx, s.config.KeyPrefix+rule.ID)
	if err != nil {
		return fmt.Errorf("failed to check if rule exists: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateRuleID, rule.ID)
	}

	key := s.config.KeyPrefix + rule.ID
	if err := s.redis.Set(s.ctx, key, rule, s.config.TTL); err != nil {
		return fmt.Errorf("failed to store rule in Redis: %w", err)
	}

	if err := s.redis.SetAdd(s.ctx, s.config.SetKey, rule.ID); err != nil {
		// Try to clean up the rule key if set operation fails
		s.redis.Delete(s.ctx, key)
		return fmt.Errorf("failed to add rule ID to set: %w", err)
	}

	logger.Debug("Added rule to Redis",
		logger.String("rule_id", rule.ID),
	)

	return nil
}

// UpdateRule updates an existing rule in Redis
func (s *RedisRuleStore) UpdateRule(rule *models.HornRule) error {
	if err := ValidateRule(rule); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	if _, err := s.GetRule(rule.ID); err != nil {
		return fmt.Errorf("%w: %s", models.ErrRuleNotFound, rule.ID)
	}

	key := s.config.KeyPrefix + rule.ID
	if err := s.redis.Set(s.ctx, key, rule, s.config.TTL); err != nil {
		return fmt.Errorf("failed to update rule in Redis: %w", err)
	}

	logger.Debug("Updated rule in Redis",
		logger.String("rule_id", rule.ID),
	)

	return nil
}

// DeleteRule deletes a rule from Redis
func (s *RedisRuleStore) DeleteRule(id string) error {
	if id == "" {
		return models.ErrInvalidRuleID
	}

	key := s.config.KeyPrefix + id

	exists, err := s.redis.Exists(s.ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check if rule exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrRuleNotFound, id)
	}

	if err := s.redis.Delete(s.ctx, key); err != nil {
		return fmt.Errorf("failed to delete rule from Redis: %w", err)
	}

	if err := s.redis.SetRemove(s.ctx, s.config.SetKey, id); err != nil {
		logger.Warn("Failed to remove rule ID from set",
			logger.String("rule_id", id),
			logger.ErrorField(err),
		)
		// Don't fail the operation if set removal fails
	}

	logger.Debug("Deleted rule from Redis",
		logger.String("rule_id", id),
	)

	return nil
}
