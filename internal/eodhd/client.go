package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/equitas/internal/common"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultRetries   = 2

	// DefaultExchange is appended to tickers given without an exchange.
	DefaultExchange = "US"
)

// Client is a rate-limited EODHD API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outgoing requests per second, bursting up to the same number.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithRetries sets how often 429 and 5xx responses are retried and the base backoff.
func WithRetries(retries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
		c.backoff = backoff
	}
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		retries:    DefaultRetries,
		backoff:    time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request and decodes the JSON body into result.
// Throttled and server-side failures are retried with linear backoff.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")
	reqURL := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			var rl *RateLimitError
			if errors.As(lastErr, &rl) && rl.RetryAfter > wait {
				wait = rl.RetryAfter
			}
			if c.logger != nil {
				c.logger.Debug().Err(lastErr).Str("endpoint", path).Int("attempt", attempt).Msg("Retrying EODHD request")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		lastErr = c.do(ctx, reqURL, path, result)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, reqURL, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().Str("endpoint", path).Msg("EODHD API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Endpoint: path}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func retryable(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Second
}

// GetEOD retrieves daily bars for a symbol in ascending date order.
// Symbol format: TICKER.EXCHANGE (e.g., "AAPL.US", "BHP.AU")
func (c *Client) GetEOD(ctx context.Context, symbol string, q PriceQuery) (EODResponse, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !q.From.IsZero() {
		params.Set("from", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format("2006-01-02"))
	}

	var result EODResponse
	if err := c.get(ctx, "/eod/"+symbol, params, &result); err != nil {
		return nil, err
	}

	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}
	return result, nil
}

// GetFundamentals retrieves the fundamentals document for a symbol.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*FundamentalsResponse, error) {
	var result FundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+symbol, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Symbol converts a ticker into the API's TICKER.EXCHANGE form. Tickers may
// carry an exchange prefix ("AU:BHP") or a known exchange suffix ("BHP.AU");
// share-class dots become dashes ("BRK.B" -> "BRK-B.US").
func Symbol(ticker, defaultExchange string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	exchange := strings.ToUpper(defaultExchange)
	if exchange == "" {
		exchange = DefaultExchange
	}
	if i := strings.Index(ticker, ":"); i >= 0 {
		exchange, ticker = ticker[:i], ticker[i+1:]
	}
	if base, suffix, ok := common.SplitExchangeSuffix(ticker); ok {
		exchange, ticker = suffix, base
	}
	return strings.ReplaceAll(ticker, ".", "-") + "." + exchange
}
