// Package dto defines data transfer objects for the candles HTTP API.
package dto

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
