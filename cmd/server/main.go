package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bubble_backend/internal/app/di"
	"bubble_backend/internal/app/router"
	"bubble_backend/internal/config"
	candleshandler "bubble_backend/internal/feature/candles/transport/handler"
	candlesusecase "bubble_backend/internal/feature/candles/usecase"
	dashboardhandler "bubble_backend/internal/feature/dashboard/transport/handler"
	dashboardusecase "bubble_backend/internal/feature/dashboard/usecase"
	dotcomhandler "bubble_backend/internal/feature/dotcom/transport/handler"
	dotcomusecase "bubble_backend/internal/feature/dotcom/usecase"
	symbollisthandler "bubble_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "bubble_backend/internal/feature/symbollist/usecase"
	"bubble_backend/internal/platform/scheduler"
	"bubble_backend/internal/shared/ratelimiter"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// .envを読み込む
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis（任意）
	rdb := di.OpenRedis(ctx, cfg)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// 銘柄DB（任意）
	rosterDB := di.OpenRoster(ctx, cfg.Database)

	// Repository
	market := di.NewMarket(cfg.YahooConfig())
	series := di.NewSeriesRepository(market, rdb, cfg.Cache.SeriesTTL, cfg.Cache.Namespace)

	// Usecase
	candlesUC := candlesusecase.NewCandlesUsecase(series)
	companyUC := symbollistusecase.NewCompanyUsecase(di.NewCompanyRepository(rosterDB), time.Now)
	panel := dashboardusecase.NewPanel(candlesUC, func() dashboardusecase.Ticker { return scheduler.New() }, cfg.AutoUpdate(), time.Now)
	defer panel.Close()

	// 初回読み込みはバックグラウンドで行い、起動を待たせない
	go func() {
		if err := panel.Start(ctx); err != nil {
			slog.Warn("initial dashboard load failed", "error", err)
		}
	}()

	// 追跡銘柄の定期プリフェッチ
	if cfg.Prefetch.Cron != "" || cfg.Prefetch.OnStart {
		prefetchUC := candlesusecase.NewPrefetchUsecase(series, ratelimiter.NewRateLimiter(cfg.Yahoo.RequestsPerMinute, time.Minute))
		run := func() { prefetch(ctx, companyUC, prefetchUC) }
		if cfg.Prefetch.OnStart {
			go run()
		}
		if cfg.Prefetch.Cron != "" {
			sched := scheduler.New()
			if err := sched.AddCron(cfg.Prefetch.Cron, run); err != nil {
				slog.Error("invalid prefetch schedule", "cron", cfg.Prefetch.Cron, "error", err)
				os.Exit(1)
			}
			sched.Start()
			defer sched.Stop()
		}
	}

	// Handler
	r := router.NewRouter(router.Handlers{
		Candles:   candleshandler.NewCandlesHandler(candlesUC, series),
		Companies: symbollisthandler.NewCompanyHandler(companyUC),
		Dotcom:    dotcomhandler.NewDotcomHandler(dotcomusecase.NewGenerator(nil)),
		Dashboard: dashboardhandler.NewDashboardHandler(panel),
		Checks:    di.Checks(rdb, rosterDB),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// prefetch は銘柄一覧を取得し、全銘柄の系列でキャッシュを温めます。
func prefetch(ctx context.Context, companies *symbollistusecase.CompanyUsecase, uc *candlesusecase.PrefetchUsecase) {
	list, err := companies.ListCompanies(ctx)
	if err != nil {
		slog.Error("failed to list companies", "error", err)
		return
	}
	symbols := make([]string, 0, len(list))
	for _, c := range list {
		symbols = append(symbols, c.Symbol)
	}
	n, err := uc.PrefetchAll(ctx, symbols)
	if err != nil {
		slog.Warn("prefetch interrupted", "prefetched", n, "error", err)
		return
	}
	slog.Info("prefetch finished", "prefetched", n, "total", len(symbols))
}
