// Package eodhd provides a client for the EODHD (End of Day Historical Data) API
// and converts its fundamentals and price payloads into analysis inputs.
package eodhd

import (
	"fmt"
	"net/http"
	"time"
)

// PriceQuery selects a window of daily bars. Zero bounds are left to the API.
type PriceQuery struct {
	From time.Time
	To   time.Time
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NotFound reports whether the API did not know the symbol.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// RateLimitError is returned when the API keeps answering 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Endpoint   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EODHD rate limit exceeded on %s, retry after %v", e.Endpoint, e.RetryAfter)
}
