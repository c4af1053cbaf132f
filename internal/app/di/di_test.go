package di

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble_backend/internal/config"
	"bubble_backend/internal/feature/candles/domain/entity"
	"bubble_backend/internal/platform/db"
	"bubble_backend/internal/platform/externalapi/yahoo"
)

type stubMarket struct{ calls int }

func (m *stubMarket) FetchSeries(ctx context.Context, symbol string) ([]entity.Candle, error) {
	m.calls++
	return nil, errors.New("offline")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestNewMarket(t *testing.T) {
	t.Parallel()

	m := NewMarket(yahoo.Config{BaseURL: yahoo.DefaultBaseURL, Proxies: yahoo.DefaultProxies, Timeout: time.Second})
	assert.NotNil(t, m)
}

func TestNewSeriesRepository_FailureNotCached(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	repo := NewSeriesRepository(market, nil, time.Minute, "series")

	_, err := repo.Series(context.Background(), "NVDA")
	assert.Error(t, err)
	_, err = repo.Series(context.Background(), "NVDA")
	assert.Error(t, err)
	assert.Equal(t, 2, market.calls)
}

func TestNewCompanyRepository_NilDB(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewCompanyRepository(nil))
}

func TestOpenRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = false
	assert.Nil(t, OpenRedis(context.Background(), cfg), "disabled redis must yield nil")

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	cfg.Redis.Enabled = true
	cfg.Redis.Host, cfg.Redis.Port = host, port

	rdb := OpenRedis(context.Background(), cfg)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	checks := Checks(rdb, nil)
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
}

func TestOpenRoster(t *testing.T) {
	t.Parallel()

	assert.Nil(t, OpenRoster(context.Background(), db.Config{}))

	cfg := db.Config{Driver: db.DriverSQLite, DSN: filepath.Join(t.TempDir(), "roster.db"), RunMigrations: true}
	conn := OpenRoster(context.Background(), cfg)
	require.NotNil(t, conn)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	companies, err := NewCompanyRepository(conn).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 20)
	assert.Equal(t, "NVDA", companies[0].Symbol)

	checks := Checks(nil, conn)
	require.Contains(t, checks, "database")
	assert.NoError(t, checks["database"](context.Background()))
}
