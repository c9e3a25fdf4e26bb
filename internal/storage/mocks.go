package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// MockRedisClient is an in-memory RedisClient for tests
type MockRedisClient struct {
	mu        sync.RWMutex
	data      map[string]string
	sets      map[string]map[string]bool
	published map[string][]string
	closed    bool

	// FailNext, when set, makes the next operation fail with this error
	FailNext error
}

// NewMockRedisClient creates an empty mock Redis client
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data:      make(map[string]string),
		sets:      make(map[string]map[string]bool),
		published: make(map[string][]string),
	}
}

func (m *MockRedisClient) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}

	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		m.data[key] = string(data)
	}
	return nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return val, nil
}

func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (m *MockRedisClient) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}

	delete(m.data, key)
	return nil
}

func (m *MockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok, nil
}

func (m *MockRedisClient) SetAdd(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}

	if m.sets[key] == nil {
		m.sets[key] = make(map[string]bool)
	}
	for _, member := range members {
		m.sets[key][member] = true
	}
	return nil
}

func (m *MockRedisClient) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	// Real Redis sets are unordered; sorting here keeps tests stable
	sort.Strings(members)
	return members, nil
}

func (m *MockRedisClient) SetRemove(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}

	for _, member := range members {
		delete(m.sets[key], member)
	}
	return nil
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}

	var payload string
	switch v := message.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		data, err := json.Marshal(message)
		if err != nil {
			return err
		}
		payload = string(data)
	}
	m.published[channel] = append(m.published[channel], payload)
	return nil
}

// Published returns the messages published to a channel, in order
func (m *MockRedisClient) Published(channel string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.published[channel]...)
}

func (m *MockRedisClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockResultStorage is an in-memory ResultStorage for tests
type MockResultStorage struct {
	mu       sync.RWMutex
	byID     map[string]*models.InferenceResult
	bySymbol map[string][]*models.InferenceResult
}

// NewMockResultStorage creates an empty mock result storage
func NewMockResultStorage() *MockResultStorage {
	return &MockResultStorage{
		byID:     make(map[string]*models.InferenceResult),
		bySymbol: make(map[string][]*models.InferenceResult),
	}
}

func (m *MockResultStorage) SaveResult(ctx context.Context, symbol string, result *models.InferenceResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[result.ID] = result
	m.bySymbol[symbol] = append(m.bySymbol[symbol], result)
	return nil
}

func (m *MockResultStorage) GetResult(ctx context.Context, id string) (*models.InferenceResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("result not found: %s", id)
	}
	return result, nil
}

func (m *MockResultStorage) GetRecentResults(ctx context.Context, symbol string, limit int) ([]*models.InferenceResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.bySymbol[symbol]
	out := make([]*models.InferenceResult, 0, len(stored))
	// Newest first
	for i := len(stored) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (m *MockResultStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MockResultStorage) Close() error {
	return nil
}
