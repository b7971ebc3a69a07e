package eodhd

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/equitas/internal/models"
)

// CollectorConfig controls what the collector fetches per ticker.
type CollectorConfig struct {
	// Exchange is used for tickers given without an exchange prefix.
	Exchange string
	// PriceHistoryDays is the calendar window of daily closes requested.
	PriceHistoryDays int
	Convert          ConvertOptions
}

// DefaultCollectorConfig returns a window long enough for a 200-day average.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Exchange:         DefaultExchange,
		PriceHistoryDays: 400,
		Convert:          DefaultConvertOptions(),
	}
}

// Collector gathers fundamentals and prices for one ticker from EODHD.
type Collector struct {
	client *Client
	config CollectorConfig
	logger arbor.ILogger
	now    func() time.Time
}

// NewCollector creates a collector backed by client.
func NewCollector(client *Client, config CollectorConfig, logger arbor.ILogger) *Collector {
	if config.Exchange == "" {
		config.Exchange = DefaultExchange
	}
	if config.PriceHistoryDays <= 0 {
		config.PriceHistoryDays = DefaultCollectorConfig().PriceHistoryDays
	}
	return &Collector{
		client: client,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Collect fetches fundamentals and daily closes for ticker and converts them.
func (c *Collector) Collect(ctx context.Context, ticker string) (models.CompanyData, error) {
	symbol := Symbol(ticker, c.config.Exchange)

	fundamentals, err := c.client.GetFundamentals(ctx, symbol)
	if err != nil {
		return models.CompanyData{}, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}

	to := c.now().UTC()
	from := to.AddDate(0, 0, -c.config.PriceHistoryDays)
	prices, err := c.client.GetEOD(ctx, symbol, PriceQuery{From: from, To: to})
	if err != nil {
		return models.CompanyData{}, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	data := ToCompanyData(ticker, fundamentals, prices, c.config.Convert)

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Int("periods", len(data.Periods)).
			Int("closes", len(data.Sentiment.Prices)).
			Int("quarters", len(data.Sentiment.Earnings)).
			Msg("Collected company data")
	}
	return data, nil
}
