package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bubble_backend/internal/feature/candles/domain/entity"
	"bubble_backend/internal/feature/candles/usecase"
)

// DefaultSeriesTTL is how long a normalized series is served without refetching.
const DefaultSeriesTTL = 60 * time.Second

// CachingSeriesRepository decorates a SeriesRepository with an in-memory TTL
// cache and an optional Redis mirror shared between instances.
type CachingSeriesRepository struct {
	inner     usecase.SeriesRepository
	memo      *Memo[[]entity.Candle]
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.SeriesRepository = (*CachingSeriesRepository)(nil)

// redisSeries is the JSON stored in Redis. FetchedAt travels with the candles
// so a Redis hit does not extend the freshness window.
type redisSeries struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Candles   []entity.Candle `json:"candles"`
}

// NewCachingSeriesRepository decorates a SeriesRepository with caching.
// If ttl is 0, it defaults to 60 seconds. If namespace is empty, it uses "series".
// A nil rdb disables the Redis tier.
func NewCachingSeriesRepository(rdb *redis.Client, ttl time.Duration, inner usecase.SeriesRepository, namespace string) *CachingSeriesRepository {
	if ttl <= 0 {
		ttl = DefaultSeriesTTL
	}
	if namespace == "" {
		namespace = "series"
	}
	return &CachingSeriesRepository{
		inner:     inner,
		memo:      NewMemo[[]entity.Candle](ttl, nil),
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Series returns the cached series for symbol while it is fresh, otherwise
// fetches through the inner repository. A failed fetch neither populates nor
// clears the cache.
func (c *CachingSeriesRepository) Series(ctx context.Context, symbol string) ([]entity.Candle, error) {
	return c.memo.GetOrFetch(ctx, symbol, func(ctx context.Context) (Entry[[]entity.Candle], error) {
		// 1) Check Redis
		if e, ok := c.getShared(ctx, symbol); ok {
			return e, nil
		}

		// 2) Fetch and normalize
		out, err := c.inner.Series(ctx, symbol)
		if err != nil {
			return Entry[[]entity.Candle]{}, err
		}
		e := Entry[[]entity.Candle]{Value: out, FetchedAt: c.memo.now()}

		// 3) Store in Redis (best effort)
		c.setShared(ctx, symbol, e)
		return e, nil
	})
}

// Cached returns the last stored series for symbol and when it was fetched,
// regardless of freshness.
func (c *CachingSeriesRepository) Cached(symbol string) ([]entity.Candle, time.Time, bool) {
	e, ok := c.memo.Peek(symbol)
	return e.Value, e.FetchedAt, ok
}

// InvalidateAll drops every cached series in memory and in Redis.
func (c *CachingSeriesRepository) InvalidateAll(ctx context.Context) error {
	c.memo.Clear()
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

func (c *CachingSeriesRepository) getShared(ctx context.Context, symbol string) (Entry[[]entity.Candle], bool) {
	if c.rdb == nil {
		return Entry[[]entity.Candle]{}, false
	}
	key := c.cacheKey(symbol)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return Entry[[]entity.Candle]{}, false
	}
	var rs redisSeries
	if err := json.Unmarshal(b, &rs); err != nil || len(rs.Candles) == 0 {
		// Delete corrupted cache entry
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			slog.Warn("failed to delete corrupted cache entry", "key", key, "error", err)
		}
		return Entry[[]entity.Candle]{}, false
	}
	if c.memo.now().Sub(rs.FetchedAt) >= c.ttl {
		return Entry[[]entity.Candle]{}, false
	}
	return Entry[[]entity.Candle]{Value: rs.Candles, FetchedAt: rs.FetchedAt}, true
}

func (c *CachingSeriesRepository) setShared(ctx context.Context, symbol string, e Entry[[]entity.Candle]) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(redisSeries{FetchedAt: e.FetchedAt, Candles: e.Value})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.cacheKey(symbol), b, c.ttl).Err(); err != nil {
		slog.Warn("failed to write series cache", "symbol", symbol, "error", err)
	}
}

// cacheKey generates the Redis key for a symbol.
func (c *CachingSeriesRepository) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingSeriesRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
