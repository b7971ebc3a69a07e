package main

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/eodhd"
	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/analysis"
	"github.com/ternarybob/equitas/internal/services/peers"
	"github.com/ternarybob/equitas/internal/services/ratios"
	"github.com/ternarybob/equitas/internal/services/report"
	"github.com/ternarybob/equitas/internal/services/scoring"
	"github.com/ternarybob/equitas/internal/services/sentiment"
	"github.com/ternarybob/equitas/internal/services/thesis"
	"github.com/ternarybob/equitas/internal/storage"
)

// application holds the wired services
type application struct {
	storage  interfaces.StorageManager // nil when caching is disabled
	analysis *analysis.Service
	report   *report.Service
}

func newApplication(config *common.Config, logger arbor.ILogger) (*application, error) {
	if config.EODHD.APIKey == "" {
		return nil, fmt.Errorf("EODHD API key not configured (set eodhd.api_key or EQUITAS_EODHD_API_KEY)")
	}

	mapping, err := peers.LoadMapping(config.Peers.MappingFile)
	if err != nil {
		return nil, err
	}

	app := &application{
		report: report.NewService(logger),
	}

	var cache interfaces.AnalysisCache
	if config.CacheTTLHours() > 0 {
		app.storage, err = storage.NewStorageManager(logger, config)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		cache = app.storage.AnalysisCache()
	}

	client := eodhd.NewClient(config.EODHD.APIKey,
		eodhd.WithBaseURL(config.EODHD.BaseURL),
		eodhd.WithRateLimit(config.EODHD.RateLimit),
		eodhd.WithTimeout(time.Duration(config.EODHD.TimeoutSeconds)*time.Second),
		eodhd.WithLogger(logger),
	)
	collector := eodhd.NewCollector(client, collectorConfig(config), logger)

	app.analysis = analysis.NewService(collector, cache, mapping, analysisConfig(config), analysisOptions(config), logger)
	return app, nil
}

func (a *application) Close() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close storage")
	}
}

func collectorConfig(config *common.Config) eodhd.CollectorConfig {
	return eodhd.CollectorConfig{
		Exchange:         config.EODHD.Exchange,
		PriceHistoryDays: config.Collector.PriceHistoryDays,
		Convert: eodhd.ConvertOptions{
			MaxPeriods:  config.Collector.MaxPeriods,
			MaxQuarters: config.Collector.MaxQuarters,
		},
	}
}

func analysisOptions(config *common.Config) analysis.Options {
	return analysis.Options{
		Concurrency: config.Collector.Concurrency,
		MaxPeers:    config.Peers.MaxPeers,
		CacheTTL:    time.Duration(config.CacheTTLHours()) * time.Hour,
	}
}

// analysisConfig converts the [analysis] sections to the stage configurations
func analysisConfig(config *common.Config) analysis.Config {
	a := config.Analysis

	weights := make(map[models.Category]float64, len(a.Scoring.Weights))
	for category, weight := range a.Scoring.Weights {
		weights[models.Category(category)] = weight
	}

	return analysis.Config{
		Ratios: ratios.Config{
			CAGRMaxYears:     a.Ratios.CAGRMaxYears,
			DefaultTaxRate:   a.Ratios.DefaultTaxRate,
			MaxTaxRate:       a.Ratios.MaxTaxRate,
			DaysPerYear:      a.Ratios.DaysPerYear,
			MarginTrendYears: a.Ratios.MarginTrendYears,
		},
		Peers: peers.Config{
			MinPeers:               a.Peers.MinPeers,
			SignificantDiscountPct: a.Peers.SignificantDiscountPct,
			DiscountPct:            a.Peers.DiscountPct,
			PremiumPct:             a.Peers.PremiumPct,
			SignificantPremiumPct:  a.Peers.SignificantPremiumPct,
			JustificationBandPct:   a.Peers.JustificationBandPct,
		},
		Sentiment: sentiment.Config{
			AnalystWeight:    a.Sentiment.AnalystWeight,
			EarningsWeight:   a.Sentiment.EarningsWeight,
			MomentumWeight:   a.Sentiment.MomentumWeight,
			EarningsQuarters: a.Sentiment.EarningsQuarters,
			BeatThresholdPct: a.Sentiment.BeatThresholdPct,
			ShortWindow:      a.Sentiment.ShortWindow,
			LongWindow:       a.Sentiment.LongWindow,
			MomentumBand:     a.Sentiment.MomentumBand,
			OffSideFactor:    a.Sentiment.OffSideFactor,

			InsiderLookbackDays: a.Sentiment.InsiderLookbackDays,
		},
		Scoring: scoring.Config{
			Weights:   weights,
			StrongBuy: a.Scoring.StrongBuy,
			Buy:       a.Scoring.Buy,
			Hold:      a.Scoring.Hold,
			Sell:      a.Scoring.Sell,
		},
		Thesis: thesis.Config{
			BullPercentile:           a.Thesis.BullPercentile,
			BearPercentile:           a.Thesis.BearPercentile,
			MaxPoints:                a.Thesis.MaxPoints,
			MonitorPEAbove:           a.Thesis.MonitorPEAbove,
			MonitorDebtToEquityAbove: a.Thesis.MonitorDebtToEquityAbove,
			MaxMonitored:             a.Thesis.MaxMonitored,
		},
	}
}
