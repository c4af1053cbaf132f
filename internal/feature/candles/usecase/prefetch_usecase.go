package usecase

import (
	"context"
	"log/slog"

	"bubble_backend/internal/shared/ratelimiter"
)

// PrefetchUsecase は追跡銘柄の系列をまとめて取得し、キャッシュを温めます。
type PrefetchUsecase struct {
	series      SeriesRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewPrefetchUsecase は新しい PrefetchUsecase を作成します。
func NewPrefetchUsecase(series SeriesRepository, rateLimiter ratelimiter.RateLimiterInterface) *PrefetchUsecase {
	return &PrefetchUsecase{series: series, rateLimiter: rateLimiter}
}

// PrefetchAll は全銘柄を順番に取得します。公開プロキシへの負荷を抑えるため、
// リクエスト間はレートリミッターで間隔を空けます。
// 1銘柄の失敗では止まらず、成功した銘柄数を返します。
func (pu *PrefetchUsecase) PrefetchAll(ctx context.Context, symbols []string) (int, error) {
	ok := 0
	for _, s := range symbols {
		if err := pu.rateLimiter.WaitIfNeeded(ctx); err != nil {
			return ok, err
		}
		cs, err := pu.series.Series(ctx, s)
		if err != nil {
			// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の銘柄へ
			slog.Error("failed to prefetch series", "symbol", s, "error", err)
			continue
		}
		ok++
		slog.Debug("prefetched series", "symbol", s, "candles", len(cs))
	}
	return ok, nil
}
