package yahoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble_backend/internal/feature/candles/domain"
)

const chartBody = `{
	"chart": {
		"result": [{
			"meta": {"symbol": "NVDA", "currency": "USD"},
			"timestamp": [1704205800, 1704119400, 1704292200],
			"indicators": {"quote": [{
				"open":  [481.68, 492.44, null],
				"high":  [485.0, 496.0, 490.0],
				"low":   [475.1, 489.0, 470.0],
				"close": [479.9, 495.2, 480.0]
			}]}
		}],
		"error": null
	}
}`

// newTestMarket は3つのパスを順に試すプロキシ構成でYahooMarketを生成します。
func newTestMarket(t *testing.T, handler http.HandlerFunc) (*YahooMarket, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL: "https://quotes.example.com",
		Proxies: []string{
			server.URL + "/p0?u=" + URLPlaceholder,
			server.URL + "/p1?u=" + URLPlaceholder,
			server.URL + "/p2?u=" + URLPlaceholder,
		},
		UserAgent: "test-agent",
	}
	m := NewYahooMarket(cfg, server.Client())
	m.now = func() time.Time { return time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC) }
	return m, server
}

func envelope(t *testing.T, inner string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"contents": inner, "status": map[string]int{"http_code": 200}})
	require.NoError(t, err)
	return string(b)
}

// TestYahooMarket_FetchSeries_FirstProxy は最初のプロキシ成功時に後続を呼ばないことを検証します。
func TestYahooMarket_FetchSeries_FirstProxy(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	m, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/p0", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		// 上流URLがクエリとして渡されていることを検証
		upstream, err := url.Parse(r.URL.Query().Get("u"))
		require.NoError(t, err)
		assert.Equal(t, "quotes.example.com", upstream.Host)
		assert.Equal(t, "/v8/finance/chart/NVDA", upstream.Path)
		assert.Equal(t, "1d", upstream.Query().Get("interval"))
		assert.Equal(t, "1577836800", upstream.Query().Get("period1"))
		assert.Equal(t, "1704412800", upstream.Query().Get("period2"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	})

	candles, err := m.FetchSeries(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// null open の足は除外され、時刻昇順に並ぶ
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1704119400000), candles[0].Timestamp)
	assert.Equal(t, 492.44, candles[0].Open)
	assert.Equal(t, int64(1704205800000), candles[1].Timestamp)
	assert.Equal(t, 479.9, candles[1].Close)
}

// TestYahooMarket_FetchSeries_FallsThroughToEnvelope は失敗したプロキシを飛ばし、エンベロープ形式を展開することを検証します。
func TestYahooMarket_FetchSeries_FallsThroughToEnvelope(t *testing.T) {
	t.Parallel()

	var order []string
	m, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/p0":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/p1":
			_, _ = w.Write([]byte(`<html>blocked</html>`))
		default:
			_, _ = w.Write([]byte(envelope(t, chartBody)))
		}
	})

	candles, err := m.FetchSeries(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Len(t, candles, 2)
	assert.Equal(t, []string{"/p0", "/p1", "/p2"}, order)
}

// TestYahooMarket_FetchSeries_AllProxiesFail は全プロキシ失敗時に ErrNetwork を返し、各プロキシを1回ずつしか呼ばないことを検証します。
func TestYahooMarket_FetchSeries_AllProxiesFail(t *testing.T) {
	t.Parallel()

	hits := map[string]int{}
	m, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		w.WriteHeader(http.StatusBadGateway)
	})

	candles, err := m.FetchSeries(context.Background(), "NVDA")
	assert.Nil(t, candles)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "NVDA")
	assert.Equal(t, map[string]int{"/p0": 1, "/p1": 1, "/p2": 1}, hits)
}

// TestYahooMarket_FetchSeries_StructuralValidation は構造が不正なレスポンスを失敗として扱うことを検証します。
func TestYahooMarket_FetchSeries_StructuralValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "error: invalid json", body: `{invalid json`},
		{name: "error: missing chart", body: `{"foo": 1}`},
		{name: "error: empty result", body: `{"chart": {"result": [], "error": null}}`},
		{name: "error: null result with upstream error", body: `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`},
		{name: "error: missing timestamp", body: `{"chart": {"result": [{"indicators": {"quote": [{}]}}]}}`},
		{name: "error: empty timestamp", body: `{"chart": {"result": [{"timestamp": [], "indicators": {"quote": [{}]}}]}}`},
		{name: "error: missing quote", body: `{"chart": {"result": [{"timestamp": [1704205800], "indicators": {"quote": []}}]}}`},
		{name: "error: envelope with garbage contents", body: `{"contents": "not json"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			m, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := m.FetchSeries(context.Background(), "NVDA")
			assert.ErrorIs(t, err, domain.ErrNetwork)
			assert.Equal(t, int32(3), calls.Load())
		})
	}
}

// TestYahooMarket_FetchSeries_ContextCancellation はキャンセル後に残りのプロキシを試さないことを検証します。
func TestYahooMarket_FetchSeries_ContextCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	m, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(chartBody))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.FetchSeries(ctx, "NVDA")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, int32(1), calls.Load())
}

// deadlineRecorder はリクエストの ctx に期限が付いているかを記録します。
type deadlineRecorder struct {
	next        http.RoundTripper
	hasDeadline atomic.Bool
}

func (d *deadlineRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	if _, ok := r.Context().Deadline(); ok {
		d.hasDeadline.Store(true)
	}
	return d.next.RoundTrip(r)
}

// TestYahooMarket_FetchSeries_TimeoutLeftToClient は Config.Timeout が ctx の期限として二重に掛からないことを検証します。
func TestYahooMarket_FetchSeries_TimeoutLeftToClient(t *testing.T) {
	t.Parallel()

	m, server := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	rec := &deadlineRecorder{next: server.Client().Transport}
	m.client = &http.Client{Transport: rec}
	m.cfg.Timeout = time.Minute

	candles, err := m.FetchSeries(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.NotEmpty(t, candles)
	assert.False(t, rec.hasDeadline.Load(), "per-attempt deadline must not be added on top of the client timeout")
}

// TestYahooMarket_FetchSeries_NoProxies はプロキシ未設定時に ErrNetwork を返すことを検証します。
func TestYahooMarket_FetchSeries_NoProxies(t *testing.T) {
	t.Parallel()

	m := NewYahooMarket(Config{BaseURL: DefaultBaseURL}, http.DefaultClient)
	_, err := m.FetchSeries(context.Background(), "NVDA")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

// TestDecodePayload はエンベロープ優先、失敗時は本文をそのまま解釈する2段階デコードを検証します。
func TestDecodePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantChart bool
		wantErr   error
	}{
		{name: "success: raw payload", body: chartBody, wantChart: true},
		{name: "success: envelope payload", body: envelope(t, chartBody), wantChart: true},
		{name: "success: empty contents falls back to body", body: `{"contents": "", "chart": {"result": []}}`, wantChart: true},
		{name: "success: undecodable contents falls back to body", body: `{"contents": "<html>", "chart": {"result": []}}`, wantChart: true},
		{name: "error: not json", body: `<!doctype html>`, wantErr: domain.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := decodePayload([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChart, p.Chart != nil)
		})
	}
}

// TestWrapURL は上流URLがクエリ値としてエスケープされることを検証します。
func TestWrapURL(t *testing.T) {
	t.Parallel()

	direct := "https://query1.finance.yahoo.com/v8/finance/chart/NVDA?interval=1d&period1=1"
	got := wrapURL("https://api.codetabs.com/v1/proxy?quest="+URLPlaceholder, direct)

	assert.False(t, strings.Contains(got, "&period1"), "upstream query must be escaped")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, direct, u.Query().Get("quest"))
}

// TestDefaultProxies は既定のプロキシ順序を検証します。
func TestDefaultProxies(t *testing.T) {
	t.Parallel()

	require.Len(t, DefaultProxies, 3)
	assert.True(t, strings.HasPrefix(DefaultProxies[0], "https://corsproxy.io/"))
	assert.True(t, strings.HasPrefix(DefaultProxies[1], "https://api.codetabs.com/"))
	assert.True(t, strings.HasPrefix(DefaultProxies[2], "https://api.allorigins.win/get"))
	for _, p := range DefaultProxies {
		assert.Contains(t, p, URLPlaceholder)
	}
}
