// Package analysis runs the full pipeline for one company: ratios, peer
// ranking, sentiment, scoring and bull/bear evidence, plus the valuation
// justification, margin history and metrics to monitor.
package analysis

import (
	"fmt"

	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/peers"
	"github.com/ternarybob/equitas/internal/services/ratios"
	"github.com/ternarybob/equitas/internal/services/scoring"
	"github.com/ternarybob/equitas/internal/services/sentiment"
	"github.com/ternarybob/equitas/internal/services/thesis"
)

// Config bundles the configuration of every pipeline stage.
type Config struct {
	Ratios    ratios.Config
	Peers     peers.Config
	Sentiment sentiment.Config
	Scoring   scoring.Config
	Thesis    thesis.Config
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Ratios:    ratios.DefaultConfig(),
		Peers:     peers.DefaultConfig(),
		Sentiment: sentiment.DefaultConfig(),
		Scoring:   scoring.DefaultConfig(),
		Thesis:    thesis.DefaultConfig(),
	}
}

// Validate checks every stage configuration.
func (c Config) Validate() error {
	validators := []func() error{
		c.Ratios.Validate,
		c.Peers.Validate,
		c.Sentiment.Validate,
		c.Scoring.Validate,
		c.Thesis.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// BuildPeerGroup computes ratio records for the peers of subject. Peers
// whose data cannot be scored are left out and returned as dropped.
func BuildPeerGroup(subject string, peerData []models.CompanyData, cfg ratios.Config) (models.PeerGroup, []string) {
	records := make(map[string]models.RatioRecord, len(peerData))
	tickers := make([]string, 0, len(peerData))
	var dropped []string

	for _, data := range peerData {
		record, err := ratios.Compute(data.Periods, data.Market, cfg)
		if err != nil {
			dropped = append(dropped, data.Ticker)
			continue
		}
		record.Ticker = data.Ticker
		records[data.Ticker] = record
		tickers = append(tickers, data.Ticker)
	}

	group := models.NewPeerGroup(subject, tickers)
	for _, ticker := range group.Peers {
		group = group.WithRecord(ticker, records[ticker])
	}
	return group, dropped
}

// Run analyses subject against an assembled peer group. It performs no I/O
// and returns the same result for the same inputs.
func Run(subject models.CompanyData, group models.PeerGroup, cfg Config) (models.AnalysisResult, error) {
	if err := cfg.Validate(); err != nil {
		return models.AnalysisResult{}, err
	}

	record, err := ratios.Compute(subject.Periods, subject.Market, cfg.Ratios)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to compute ratios for %s: %w", subject.Ticker, err)
	}
	record.Ticker = group.Subject

	ranked, err := peers.Normalize(record, group, cfg.Peers)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	signal, err := sentiment.Aggregate(subject.Sentiment, cfg.Sentiment)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to aggregate sentiment for %s: %w", subject.Ticker, err)
	}

	score, err := scoring.Score(ranked, signal, cfg.Scoring)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	peerList := make([]string, len(group.Peers))
	copy(peerList, group.Peers)
	relative := peers.RelativeValuation(record, group, cfg.Peers)

	return models.AnalysisResult{
		Ticker:            group.Subject,
		Peers:             peerList,
		Ratios:            record,
		Ranked:            ranked,
		RelativeValuation: relative,
		Justification:     peers.JustifyValuation(record, group, relative, cfg.Peers),
		MarginTrend:       ratios.MarginTrend(subject.Periods, cfg.Ratios.MarginTrendYears),
		Sentiment:         signal,
		Score:             score,
		Evidence:          thesis.Generate(ranked, score.Categories, cfg.Thesis),
		Monitor:           thesis.MetricsToMonitor(subject.Industry, subject.Sector, record, cfg.Thesis),
	}, nil
}

// CacheKey identifies a result by subject, peer set and as-of date.
func CacheKey(group models.PeerGroup, asOf string) string {
	return "analysis:" + group.Key() + "@" + asOf
}
