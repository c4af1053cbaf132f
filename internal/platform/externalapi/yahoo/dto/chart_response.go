// Package dto defines data transfer objects for the Yahoo chart API responses.
package dto

// ChartResponse represents the JSON body of /v8/finance/chart/{symbol}.
type ChartResponse struct {
	Chart *Chart `json:"chart"`
}

// Chart wraps the result list and an optional upstream error.
type Chart struct {
	Result []Result    `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is set by Yahoo for unknown symbols and similar failures.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is one instrument's time series. Timestamps are epoch seconds.
type Result struct {
	Meta       Meta       `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

// Meta carries the fields of the result header that are logged.
type Meta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// Indicators holds the quote arrays.
type Indicators struct {
	Quote []Quote `json:"quote"`
}

// Quote arrays are parallel to Result.Timestamp. Yahoo emits null for missing bars.
type Quote struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

// Envelope is the wrapper some relays put around the upstream body.
type Envelope struct {
	Contents *string `json:"contents"`
}
