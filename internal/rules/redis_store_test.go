package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
)

func newTestRedisStore(t *testing.T) (*RedisRuleStore, *storage.MockRedisClient) {
	t.Helper()
	mock := storage.NewMockRedisClient()
	store, err := NewRedisRuleStore(mock, DefaultRedisRuleStoreConfig())
	require.NoError(t, err)
	return store, mock
}

func TestNewRedisRuleStore_NilClient(t *testing.T) {
	_, err := NewRedisRuleStore(nil, RedisRuleStoreConfig{})
	require.Error(t, err)
}

func TestRedisRuleStore_AddAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t)

	rule := buyRule("REDIS_R1", models.Literal{Symbol: "A"}, models.Literal{Symbol: "B", Negated: true})
	require.NoError(t, store.AddRule(rule))

	got, err := store.GetRule("REDIS_R1")
	require.NoError(t, err)
	assert.Equal(t, rule.ID, got.ID)
	assert.Equal(t, rule.Conclusion, got.Conclusion)
	require.Len(t, got.Premises, 2)
	assert.True(t, got.Premises[1].Negated)
}

func TestRedisRuleStore_DuplicateAdd(t *testing.T) {
	store, _ := newTestRedisStore(t)

	rule := buyRule("DUP", models.Literal{Symbol: "A"})
	require.NoError(t, store.AddRule(rule))

	err := store.AddRule(rule)
	assert.True(t, errors.Is(err, models.ErrDuplicateRuleID))
}

func TestRedisRuleStore_GetAllRulesSortedByID(t *testing.T) {
	store, _ := newTestRedisStore(t)

	// Insert out of lexical order; GetAllRules must sort by ID
	for _, id := range []string{"Z_RULE", "A_RULE", "M_RULE"} {
		require.NoError(t, store.AddRule(buyRule(id, models.Literal{Symbol: "A"})))
	}

	all, err := store.GetAllRules()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A_RULE", all[0].ID)
	assert.Equal(t, "M_RULE", all[1].ID)
	assert.Equal(t, "Z_RULE", all[2].ID)
}

func TestRedisRuleStore_UpdateAndDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)

	rule := buyRule("UPD", models.Literal{Symbol: "A"})
	require.NoError(t, store.AddRule(rule))

	updated := buyRule("UPD", models.Literal{Symbol: "B"})
	require.NoError(t, store.UpdateRule(updated))

	got, err := store.GetRule("UPD")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Premises[0].Symbol)

	require.NoError(t, store.DeleteRule("UPD"))
	_, err = store.GetRule("UPD")
	assert.True(t, errors.Is(err, models.ErrRuleNotFound))

	all, err := store.GetAllRules()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedisRuleStore_UpdateMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	err := store.UpdateRule(buyRule("MISSING", models.Literal{Symbol: "A"}))
	assert.True(t, errors.Is(err, models.ErrRuleNotFound))
}

func TestRedisRuleStore_DeleteMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	err := store.DeleteRule("MISSING")
	assert.True(t, errors.Is(err, models.ErrRuleNotFound))
}

func TestRuleSyncService_SyncAllRules(t *testing.T) {
	source := NewInMemoryRuleStoreFromSet(DefaultTradingRules())
	redisStore, _ := newTestRedisStore(t)
	sync := NewRuleSyncService(source, redisStore)

	require.NoError(t, sync.SyncAllRules())

	all, err := redisStore.GetAllRules()
	require.NoError(t, err)
	assert.Len(t, all, source.Count())

	// Syncing again must be idempotent (add falls back to update)
	require.NoError(t, sync.SyncAllRules())
	all, err = redisStore.GetAllRules()
	require.NoError(t, err)
	assert.Len(t, all, source.Count())
}

func TestRuleSyncService_SyncSingleRule(t *testing.T) {
	source := NewInMemoryRuleStore()
	require.NoError(t, source.AddRule(buyRule("ONE", models.Literal{Symbol: "A"})))

	redisStore, _ := newTestRedisStore(t)
	sync := NewRuleSyncService(source, redisStore)

	require.NoError(t, sync.SyncRule("ONE"))
	got, err := redisStore.GetRule("ONE")
	require.NoError(t, err)
	assert.Equal(t, "ONE", got.ID)

	require.NoError(t, sync.DeleteRuleFromRedis("ONE"))
	_, err = redisStore.GetRule("ONE")
	assert.Error(t, err)
}
