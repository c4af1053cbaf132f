package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bubble_backend/internal/app/di"
	"bubble_backend/internal/config"
	candlesusecase "bubble_backend/internal/feature/candles/usecase"
	symbollistusecase "bubble_backend/internal/feature/symbollist/usecase"
	"bubble_backend/internal/shared/ratelimiter"
)

// Warms the shared Redis cache once for every tracked symbol, or for the
// comma separated -symbols list.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	only := flag.String("symbols", "", "comma separated symbols (default: roster)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rdb := di.OpenRedis(ctx, cfg)
	if rdb == nil {
		slog.Error("prefetch needs the shared Redis cache; set redis.enabled")
		os.Exit(1)
	}
	defer rdb.Close()

	symbols := splitSymbols(*only)
	if len(symbols) == 0 {
		companies, _ := symbollistusecase.NewCompanyUsecase(di.NewCompanyRepository(di.OpenRoster(ctx, cfg.Database)), time.Now).ListCompanies(ctx)
		for _, c := range companies {
			symbols = append(symbols, c.Symbol)
		}
	}

	series := di.NewSeriesRepository(di.NewMarket(cfg.YahooConfig()), rdb, cfg.Cache.SeriesTTL, cfg.Cache.Namespace)
	uc := candlesusecase.NewPrefetchUsecase(series, ratelimiter.NewRateLimiter(cfg.Yahoo.RequestsPerMinute, time.Minute))

	n, err := uc.PrefetchAll(ctx, symbols)
	if err != nil {
		slog.Error("prefetch interrupted", "prefetched", n, "error", err)
		os.Exit(1)
	}
	slog.Info("prefetch ok", "prefetched", n, "total", len(symbols))
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
