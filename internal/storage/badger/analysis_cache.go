package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// cacheEntry is the stored form of a report. The report is kept as a JSON
// payload so cached and fresh results serialize identically.
type cacheEntry struct {
	Key       string
	Payload   []byte
	StoredAt  int64 // unix nanoseconds
	ExpiresAt int64 `badgerholdIndex:"ExpiresAt"`
}

// AnalysisCache implements interfaces.AnalysisCache on Badger
type AnalysisCache struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// NewAnalysisCache creates a new AnalysisCache
func NewAnalysisCache(db *BadgerDB, logger arbor.ILogger) *AnalysisCache {
	return &AnalysisCache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the report stored under key. Expired entries are removed and
// reported as a miss.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*models.AnalysisReport, error) {
	var entry cacheEntry
	err := c.db.Store().Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if c.now().UnixNano() >= entry.ExpiresAt {
		if err := c.db.Store().Delete(key, cacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete expired cache entry")
		}
		return nil, interfaces.ErrCacheMiss
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(entry.Payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, nil
}

// Put stores report under key until ttl elapses.
func (c *AnalysisCache) Put(ctx context.Context, key string, report models.AnalysisReport, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	now := c.now()
	entry := cacheEntry{
		Key:       key,
		Payload:   payload,
		StoredAt:  now.UnixNano(),
		ExpiresAt: now.Add(ttl).UnixNano(),
	}
	if err := c.db.Store().Upsert(key, entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	c.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Cached analysis report")
	return nil
}

// Delete removes the entry for key.
func (c *AnalysisCache) Delete(ctx context.Context, key string) error {
	err := c.db.Store().Delete(key, cacheEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge removes expired entries.
func (c *AnalysisCache) Purge(ctx context.Context) (int, error) {
	query := badgerhold.Where("ExpiresAt").Le(c.now().UnixNano())

	count, err := c.db.Store().Count(&cacheEntry{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired entries: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := c.db.Store().DeleteMatching(&cacheEntry{}, query); err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}

	if err := c.db.RunGC(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to reclaim cache space")
	}

	c.logger.Info().Int("removed", int(count)).Msg("Purged expired analysis cache entries")
	return int(count), nil
}
