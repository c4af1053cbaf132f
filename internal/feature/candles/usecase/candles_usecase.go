// Package usecase はローソク足系列の取得・正規化・間引きのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bubble_backend/internal/feature/candles/domain/entity"
)

const (
	// MaxRequestPoints はクライアントが要求できる描画点数の上限です。
	MaxRequestPoints = 5000
)

// ErrInvalidSymbol は空の銘柄コードが指定された場合のエラーです。
var ErrInvalidSymbol = errors.New("symbol must not be empty")

// Title は銘柄チャートの表示タイトルを返します。
func Title(symbol string) string {
	return fmt.Sprintf("%s (%d-Present)", symbol, WindowStart.Year())
}

// MarketRepository は外部の相場データ取得を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	FetchSeries(ctx context.Context, symbol string) ([]entity.Candle, error)
}

// SeriesRepository は正規化済み系列の取得元です。キャッシュはこのインターフェースを装飾します。
type SeriesRepository interface {
	Series(ctx context.Context, symbol string) ([]entity.Candle, error)
}

// NormalizedMarket は MarketRepository の生データを WindowStart から現在までの窓で正規化します。
type NormalizedMarket struct {
	market MarketRepository
	now    func() time.Time
}

var _ SeriesRepository = (*NormalizedMarket)(nil)

// NewNormalizedMarket は NormalizedMarket を生成します。now が nil の場合は time.Now を使います。
func NewNormalizedMarket(market MarketRepository, now func() time.Time) *NormalizedMarket {
	if now == nil {
		now = time.Now
	}
	return &NormalizedMarket{market: market, now: now}
}

// Series は取得と正規化を行います。取得失敗も正規化失敗もそのまま呼び出し元へ返します。
func (n *NormalizedMarket) Series(ctx context.Context, symbol string) ([]entity.Candle, error) {
	raw, err := n.market.FetchSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, WindowStart, n.now())
}

// candlesUsecase は描画用のローソク足系列を返すユースケースです。
type candlesUsecase struct {
	series SeriesRepository
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(series SeriesRepository) *candlesUsecase {
	return &candlesUsecase{series: series}
}

// GetCandles は銘柄の正規化済み系列を取得し、maxPoints 点以下に間引いて返します。
func (cu *candlesUsecase) GetCandles(ctx context.Context, symbol string, maxPoints int) ([]entity.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if maxPoints <= 0 || maxPoints > MaxRequestPoints {
		maxPoints = MaxPoints
	}

	cs, err := cu.series.Series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return Downsample(cs, maxPoints), nil
}
