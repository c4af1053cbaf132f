package yahoo

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"bubble_backend/internal/feature/candles/domain"
	"bubble_backend/internal/feature/candles/domain/entity"
	"bubble_backend/internal/feature/candles/usecase"
	"bubble_backend/internal/platform/externalapi/yahoo/dto"
)

// maxBodyBytes caps how much of a relay response is read.
const maxBodyBytes = 16 << 20

// YahooMarket はYahoo FinanceのチャートAPIを公開プロキシ経由で呼び出すMarketRepository実装です。
type YahooMarket struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// YahooMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*YahooMarket)(nil)

// NewYahooMarket は指定された設定とHTTPクライアントでYahooMarketの新しいインスタンスを生成します。
func NewYahooMarket(cfg Config, client *http.Client) *YahooMarket {
	return &YahooMarket{cfg: cfg, client: client, now: time.Now}
}

// FetchSeries は WindowStart から現在までの日足を取得します。
// プロキシを設定順に1回ずつ試し、最初に成功したものの結果を返します。
// 全て失敗した場合は domain.ErrNetwork を返します。
func (y *YahooMarket) FetchSeries(ctx context.Context, symbol string) ([]entity.Candle, error) {
	if len(y.cfg.Proxies) == 0 {
		return nil, fmt.Errorf("%w: %s: no proxies configured", domain.ErrNetwork, symbol)
	}

	direct := y.chartURL(symbol)
	var lastErr error
	for i, tmpl := range y.cfg.Proxies {
		candles, err := y.fetchVia(ctx, wrapURL(tmpl, direct))
		if err == nil {
			logLastPrice(symbol, i, candles)
			return candles, nil
		}
		lastErr = err
		// 呼び出し元がキャンセルした場合は残りのプロキシを試さない
		if ctx.Err() != nil {
			break
		}
		slog.Warn("proxy attempt failed", "symbol", symbol, "proxy", i, "error", err)
	}
	return nil, fmt.Errorf("%w: %s: all proxies failed: %v", domain.ErrNetwork, symbol, lastErr)
}

// chartURL は上流のチャートAPIのURLを組み立てます。
func (y *YahooMarket) chartURL(symbol string) string {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(usecase.WindowStart.Unix()))
	q.Set("period2", fmt.Sprint(y.now().Unix()))
	q.Set("interval", "1d")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(y.cfg.BaseURL, "/"), url.PathEscape(symbol), q.Encode())
}

// wrapURL はプロキシのテンプレートに上流URLをエスケープして埋め込みます。
func wrapURL(tmpl, direct string) string {
	return strings.ReplaceAll(tmpl, URLPlaceholder, url.QueryEscape(direct))
}

// fetchVia は1つのプロキシに対して1回だけリクエストします。
// 時間制限は http.Client.Timeout に任せ、ここでは呼び出し元の ctx だけを使います。
func (y *YahooMarket) fetchVia(ctx context.Context, u string) ([]entity.Candle, error) {
	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if y.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", y.cfg.UserAgent)
	}

	// リクエストを実行
	res, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("yahoo relay http %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	result, err := validate(payload)
	if err != nil {
		return nil, err
	}
	return toCandles(result), nil
}

// decodePayload はまずエンベロープの contents を解釈し、失敗したら本文そのものをペイロードとして解釈します。
func decodePayload(body []byte) (*dto.ChartResponse, error) {
	var env dto.Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Contents != nil && *env.Contents != "" {
		var inner dto.ChartResponse
		if err := json.Unmarshal([]byte(*env.Contents), &inner); err == nil {
			return &inner, nil
		}
	}

	var payload dto.ChartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return &payload, nil
}

// validate はチャートレスポンスの構造を検証し、最初の result を返します。
func validate(p *dto.ChartResponse) (*dto.Result, error) {
	switch {
	case p.Chart == nil:
		return nil, fmt.Errorf("%w: missing chart", domain.ErrParse)
	case p.Chart.Error != nil && len(p.Chart.Result) == 0:
		return nil, fmt.Errorf("%w: upstream error %s: %s", domain.ErrParse, p.Chart.Error.Code, p.Chart.Error.Description)
	case len(p.Chart.Result) == 0:
		return nil, fmt.Errorf("%w: empty result", domain.ErrParse)
	}
	r := &p.Chart.Result[0]
	if len(r.Timestamp) == 0 {
		return nil, fmt.Errorf("%w: missing timestamp array", domain.ErrParse)
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: missing quote indicators", domain.ErrParse)
	}
	return r, nil
}

// toCandles はnullや欠損を0として扱い、OHLCのいずれかが0以下の足を除外して時刻昇順で返します。
func toCandles(r *dto.Result) []entity.Candle {
	q := r.Indicators.Quote[0]
	raw := make([]entity.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		raw = append(raw, entity.Candle{
			Timestamp: ts * 1000,
			Open:      at(q.Open, i),
			High:      at(q.High, i),
			Low:       at(q.Low, i),
			Close:     at(q.Close, i),
		})
	}
	out := usecase.DropNonPositive(raw)
	slices.SortStableFunc(out, func(a, b entity.Candle) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

func at(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

func logLastPrice(symbol string, proxy int, candles []entity.Candle) {
	if len(candles) == 0 {
		slog.Info("fetched series", "symbol", symbol, "proxy", proxy, "candles", 0)
		return
	}
	last := candles[len(candles)-1]
	slog.Info("fetched series",
		"symbol", symbol,
		"proxy", proxy,
		"candles", len(candles),
		"last_price", fmt.Sprintf("%.2f", last.Close),
		"last_date", last.Time().Format(time.RFC3339),
	)
}
