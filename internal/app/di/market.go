// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"bubble_backend/internal/feature/candles/usecase"
	"bubble_backend/internal/platform/cache"
	"bubble_backend/internal/platform/externalapi/yahoo"
	infrahttp "bubble_backend/internal/platform/http"
)

// NewMarket creates a fully configured YahooMarket with HTTP client.
func NewMarket(cfg yahoo.Config) *yahoo.YahooMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return yahoo.NewYahooMarket(cfg, httpClient)
}

// NewSeriesRepository stacks normalization and caching on top of the market.
// rdb may be nil, in which case only the in-process tier is used.
func NewSeriesRepository(market usecase.MarketRepository, rdb *redis.Client, ttl time.Duration, namespace string) *cache.CachingSeriesRepository {
	normalized := usecase.NewNormalizedMarket(market, time.Now)
	return cache.NewCachingSeriesRepository(rdb, ttl, normalized, namespace)
}
