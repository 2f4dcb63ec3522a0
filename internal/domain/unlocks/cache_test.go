package unlocks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryStore struct {
	records map[[2]int64]Record
	lookups int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[[2]int64]Record{}}
}

func (m *memoryStore) IsUnlocked(_ context.Context, userID, storeID int64) (bool, error) {
	m.lookups++
	_, ok := m.records[[2]int64{userID, storeID}]
	return ok, nil
}

func (m *memoryStore) Unlock(_ context.Context, userID, storeID int64) (Record, bool, error) {
	key := [2]int64{userID, storeID}
	if rec, ok := m.records[key]; ok {
		return rec, false, nil
	}
	rec := Record{UserID: userID, StoreID: storeID, UnlockedAt: time.Now()}
	m.records[key] = rec
	return rec, true, nil
}

func (m *memoryStore) ListByUser(context.Context, int64) ([]Record, error) {
	return nil, nil
}

// stubRedis implements the GET and SET commands over a map. Any other
// command panics through the nil embedded interface.
type stubRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return redis.NewStatusResult("", s.setErr)
	}
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func newObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core).Sugar(), logs
}

func TestCachedStore_PositiveAnswersAreCached(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()
	mem := newMemoryStore()
	cache := NewCachedStore(mem, rdb, time.Minute, zap.NewNop().Sugar())

	ok, err := cache.IsUnlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cache.IsUnlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, mem.lookups, "negative answers must not be cached")
	assert.Empty(t, rdb.values)

	_, created, err := cache.Unlock(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "1", rdb.values["unlock:1:2"])
	assert.Equal(t, time.Minute, rdb.ttls["unlock:1:2"])

	ok, err = cache.IsUnlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, mem.lookups)
}

func TestCachedStore_LedgerHitIsRemembered(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()
	mem := newMemoryStore()
	_, _, err := mem.Unlock(ctx, 5, 6)
	require.NoError(t, err)
	cache := NewCachedStore(mem, rdb, time.Minute, zap.NewNop().Sugar())

	for range 3 {
		ok, err := cache.IsUnlocked(ctx, 5, 6)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, mem.lookups)
}

func TestCachedStore_ReadFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()
	rdb.getErr = errors.New("dial tcp: connection refused")
	mem := newMemoryStore()
	_, _, err := mem.Unlock(ctx, 7, 8)
	require.NoError(t, err)
	logger, logs := newObservedLogger()
	cache := NewCachedStore(mem, rdb, time.Minute, logger)

	ok, err := cache.IsUnlocked(ctx, 7, 8)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, mem.lookups)

	ok, err = cache.IsUnlocked(ctx, 7, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	reads := logs.FilterMessage("unlock cache read failed").All()
	require.Len(t, reads, 2)
	assert.Equal(t, "unlock:7:8", reads[0].ContextMap()["key"])
}

func TestCachedStore_MissIsNotLogged(t *testing.T) {
	logger, logs := newObservedLogger()
	cache := NewCachedStore(newMemoryStore(), newStubRedis(), time.Minute, logger)

	ok, err := cache.IsUnlocked(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, logs.Len())
}

func TestCachedStore_WriteFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()
	rdb.setErr = errors.New("OOM command not allowed")
	logger, logs := newObservedLogger()
	cache := NewCachedStore(newMemoryStore(), rdb, time.Minute, logger)

	rec, created, err := cache.Unlock(ctx, 3, 4)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), rec.UserID)

	writes := logs.FilterMessage("unlock cache write failed").All()
	require.Len(t, writes, 1)
	assert.Equal(t, zapcore.WarnLevel, writes[0].Level)
	assert.Equal(t, "unlock:3:4", writes[0].ContextMap()["key"])
	assert.Equal(t, "OOM command not allowed", writes[0].ContextMap()["error"])
}

func TestCachedStore_UnlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cache := NewCachedStore(newMemoryStore(), newStubRedis(), time.Minute, zap.NewNop().Sugar())

	first, created, err := cache.Unlock(ctx, 3, 4)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := cache.Unlock(ctx, 3, 4)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.UnlockedAt, second.UnlockedAt)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "unlock:12:34", cacheKey(12, 34))
}
