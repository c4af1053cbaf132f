package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bubble_backend/internal/config"
	"bubble_backend/internal/feature/symbollist/adapters"
	"bubble_backend/internal/feature/symbollist/domain/entity"
	symbollist "bubble_backend/internal/feature/symbollist/usecase"
	"bubble_backend/internal/platform/db"
	platformhandler "bubble_backend/internal/platform/http/handler"
	infraredis "bubble_backend/internal/platform/redis"
)

// OpenRedis returns a connected client, or nil when Redis is disabled or
// unreachable. The series cache runs in-process only in that case.
func OpenRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		slog.Warn("Redis unavailable. Running without shared cache.", "error", err)
		return nil
	}
	return rdb
}

// OpenRoster connects the roster database and seeds it with the built-in
// list on first use. It returns nil when no driver is configured or the
// connection fails; the built-in list is served then.
func OpenRoster(ctx context.Context, cfg db.Config) *gorm.DB {
	if !cfg.Enabled() {
		return nil
	}
	conn, err := db.Open(cfg, &entity.Company{})
	if err != nil {
		slog.Warn("roster database unavailable. Serving built-in companies.", "error", err)
		return nil
	}
	if cfg.RunMigrations {
		n, err := adapters.NewCompanyRepository(conn).SeedIfEmpty(ctx, symbollist.FallbackCompanies())
		if err != nil {
			slog.Warn("failed to seed companies", "error", err)
		} else if n > 0 {
			slog.Info("seeded companies", "count", n)
		}
	}
	return conn
}

// Checks builds the health probes for the optional dependencies in use.
func Checks(rdb *redis.Client, conn *gorm.DB) map[string]platformhandler.Check {
	checks := map[string]platformhandler.Check{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if conn != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return checks
}
