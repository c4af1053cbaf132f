package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は公開プロキシ経由の相場取得用にチューニングしたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTPS_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout / TLSHandshakeTimeout: 応答しないプロキシはここで打ち切られる
//   - ResponseHeaderTimeout: ヘッダーを返さないプロキシを打ち切る
//   - MaxIdleConnsPerHost: プロキシは3ホストだけなので少数で十分
//   - Client.Timeout: リクエスト全体のタイムアウト。0 の場合はTransportの各タイムアウトのみ
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          30,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
