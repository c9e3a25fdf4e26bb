package storage

import (
	"context"
	"time"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// RedisClient defines the Redis operations the rule distribution and
// caching layers need. Implementations must be safe for concurrent use.
type RedisClient interface {
	// Set stores a value (JSON-encoded if not a string) with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get retrieves a raw string value
	Get(ctx context.Context, key string) (string, error)

	// GetJSON retrieves a value and unmarshals it into dest
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists checks whether a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// SetAdd adds members to a Redis set
	SetAdd(ctx context.Context, key string, members ...string) error

	// SetMembers returns all members of a Redis set (unordered)
	SetMembers(ctx context.Context, key string) ([]string, error)

	// SetRemove removes members from a Redis set
	SetRemove(ctx context.Context, key string, members ...string) error

	// Publish publishes a message (JSON-encoded) to a channel
	Publish(ctx context.Context, channel string, message interface{}) error

	// Close closes the connection
	Close() error
}

// ResultStorage persists inference results as an audit log, so past
// recommendations can be replayed and explained after the fact.
type ResultStorage interface {
	// SaveResult persists a single inference result for a symbol
	SaveResult(ctx context.Context, symbol string, result *models.InferenceResult) error

	// GetResult retrieves a result by its ID
	GetResult(ctx context.Context, id string) (*models.InferenceResult, error)

	// GetRecentResults retrieves the most recent results for a symbol,
	// newest first
	GetRecentResults(ctx context.Context, symbol string, limit int) ([]*models.InferenceResult, error)

	// Close closes the storage connection
	Close() error
}
