package unlocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore remembers positive unlock answers in redis. The ledger is
// append-only, so a cached "unlocked" never goes stale; negative answers are
// never cached. Redis failures fall through to the wrapped store.
type CachedStore struct {
	next   Store
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewCachedStore(next Store, rdb redis.Cmdable, ttl time.Duration, logger *zap.SugaredLogger) *CachedStore {
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(userID, storeID int64) string {
	return fmt.Sprintf("unlock:%d:%d", userID, storeID)
}

func (c *CachedStore) IsUnlocked(ctx context.Context, userID, storeID int64) (bool, error) {
	key := cacheKey(userID, storeID)
	v, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && v == "1":
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warnw("unlock cache read failed", "key", key, "error", err.Error())
	}

	ok, err := c.next.IsUnlocked(ctx, userID, storeID)
	if err != nil {
		return false, err
	}
	if ok {
		c.remember(ctx, userID, storeID)
	}
	return ok, nil
}

func (c *CachedStore) Unlock(ctx context.Context, userID, storeID int64) (Record, bool, error) {
	rec, created, err := c.next.Unlock(ctx, userID, storeID)
	if err != nil {
		return Record{}, false, err
	}
	c.remember(ctx, userID, storeID)
	return rec, created, nil
}

func (c *CachedStore) ListByUser(ctx context.Context, userID int64) ([]Record, error) {
	return c.next.ListByUser(ctx, userID)
}

func (c *CachedStore) remember(ctx context.Context, userID, storeID int64) {
	key := cacheKey(userID, storeID)
	if err := c.rdb.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.Warnw("unlock cache write failed", "key", key, "error", err.Error())
	}
}
