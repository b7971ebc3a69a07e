// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/equitas/internal/models"
)

// ErrCacheMiss is returned when no live cache entry exists for a key
var ErrCacheMiss = errors.New("cache miss")

// DataCollector gathers the raw inputs of one company
type DataCollector interface {
	// Collect fetches financial periods, the market snapshot and sentiment inputs for ticker
	Collect(ctx context.Context, ticker string) (models.CompanyData, error)
}

// AnalysisCache stores analysis reports for a limited time
type AnalysisCache interface {
	// Get returns the report stored under key, or ErrCacheMiss when absent or expired
	Get(ctx context.Context, key string) (*models.AnalysisReport, error)

	// Put stores report under key for ttl
	Put(ctx context.Context, key string, report models.AnalysisReport, ttl time.Duration) error

	// Delete removes the entry for key
	Delete(ctx context.Context, key string) error

	// Purge removes expired entries and returns how many were removed
	Purge(ctx context.Context) (int, error)
}
