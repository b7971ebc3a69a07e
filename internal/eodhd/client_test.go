package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetryClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL), WithRetries(2, time.Millisecond))
}

func TestGetRetriesThrottledRequests(t *testing.T) {
	var calls int32
	client := newRetryClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, eodFixture(2))
	})

	// Retry-After defaults to one second when absent.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prices, err := client.GetEOD(ctx, "ACME.US", PriceQuery{})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2024, prices[0].Date.Year())
}

func TestGetGivesUpOnServerErrors(t *testing.T) {
	var calls int32
	client := newRetryClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.GetFundamentals(context.Background(), "ACME.US")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newRetryClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.GetFundamentals(context.Background(), "ACME.US")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetEODQuery(t *testing.T) {
	client := newRetryClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("from"))
		assert.Equal(t, "2024-12-31", q.Get("to"))
		assert.Equal(t, "a", q.Get("order"))
		assert.Equal(t, "json", q.Get("fmt"))
		fmt.Fprint(w, "[]")
	})

	_, err := client.GetEOD(context.Background(), "ACME.US", PriceQuery{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Equal(t, time.Second, retryAfter(""))
	assert.Equal(t, time.Second, retryAfter("Wed, 21 Oct 2025 07:28:00 GMT"))
}
