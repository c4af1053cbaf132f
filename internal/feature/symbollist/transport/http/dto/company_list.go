// Package dto defines data transfer objects for the company roster HTTP API.
package dto

// CompanyItem represents a company in the API response.
// It contains only the public-facing fields needed by clients.
type CompanyItem struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
