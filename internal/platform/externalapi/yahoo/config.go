// Package yahoo provides a client for the Yahoo Finance v8 chart endpoint,
// reached through public CORS relays.
package yahoo

import "time"

// DefaultBaseURL is the upstream quote host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultUserAgent is sent on every relay request.
const DefaultUserAgent = "Mozilla/5.0 (compatible; bubble-backend/1.0)"

// URLPlaceholder is replaced with the query-escaped upstream URL in a proxy template.
const URLPlaceholder = "{url}"

// DefaultProxies are tried in this order, each exactly once per fetch.
// allorigins /get wraps the upstream body as {"contents": "<json>"}.
var DefaultProxies = []string{
	"https://corsproxy.io/?" + URLPlaceholder,
	"https://api.codetabs.com/v1/proxy?quest=" + URLPlaceholder,
	"https://api.allorigins.win/get?url=" + URLPlaceholder,
}

// Config holds configuration for the Yahoo chart client.
type Config struct {
	BaseURL   string        // Upstream host (e.g., "https://query1.finance.yahoo.com")
	Proxies   []string      // Relay URL templates containing URLPlaceholder
	Timeout   time.Duration // Applied once, as http.Client.Timeout in di.NewMarket
	UserAgent string
}
