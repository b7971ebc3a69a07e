package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/peers"
	"github.com/ternarybob/equitas/internal/services/scoring"
)

// Options controls data gathering and caching around the pipeline.
type Options struct {
	Concurrency int           // parallel peer fetches
	MaxPeers    int           // peers beyond this are ignored
	CacheTTL    time.Duration // 0 disables cache writes
}

// Request describes one analysis.
type Request struct {
	Ticker  string
	Peers   []string // overrides the peer mapping when non-empty
	Refresh bool     // bypass cached results
}

// Service gathers company data, runs the pipeline and caches reports.
type Service struct {
	collector interfaces.DataCollector
	cache     interfaces.AnalysisCache
	mapping   peers.Mapping
	config    Config
	options   Options
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService creates a new analysis service. cache may be nil.
func NewService(collector interfaces.DataCollector, cache interfaces.AnalysisCache, mapping peers.Mapping, config Config, options Options, logger arbor.ILogger) *Service {
	if options.Concurrency <= 0 {
		options.Concurrency = 1
	}
	return &Service{
		collector: collector,
		cache:     cache,
		mapping:   mapping,
		config:    config,
		options:   options,
		logger:    logger,
		now:       time.Now,
	}
}

// PeersFor returns the peer tickers used for ticker.
func (s *Service) PeersFor(ticker string, override []string) []string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	candidates := override
	if len(candidates) == 0 {
		candidates = s.mapping.Lookup(ticker)
	}
	group := models.NewPeerGroup(ticker, candidates)
	if s.options.MaxPeers > 0 && len(group.Peers) > s.options.MaxPeers {
		return group.Peers[:s.options.MaxPeers]
	}
	return group.Peers
}

// Analyze produces the report for req.Ticker.
func (s *Service) Analyze(ctx context.Context, req Request) (*models.AnalysisReport, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, models.NewInvalidInput("ticker", "empty ticker")
	}
	peerTickers := s.PeersFor(ticker, req.Peers)

	s.logger.Info().
		Str("ticker", ticker).
		Strs("peers", peerTickers).
		Msg("Starting analysis")

	subject, err := s.collector.Collect(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to collect data for %s: %w", ticker, err)
	}
	subject.Ticker = ticker

	asOf := ""
	if !subject.Market.AsOf.IsZero() {
		asOf = subject.Market.AsOf.Format("2006-01-02")
	}
	key := CacheKey(models.NewPeerGroup(ticker, peerTickers), asOf)

	if cached := s.cached(ctx, key, req.Refresh); cached != nil {
		return cached, nil
	}

	peerData, failed := s.collectPeers(ctx, peerTickers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	group, invalid := BuildPeerGroup(ticker, peerData, s.config.Ratios)
	for _, p := range invalid {
		s.logger.Warn().Str("ticker", ticker).Str("peer", p).Msg("Peer data cannot be scored, dropping peer")
	}

	result, err := Run(subject, group, s.config)
	if err != nil {
		return nil, err
	}

	dropped := append(failed, invalid...)
	report := &models.AnalysisReport{
		RunID:       uuid.New().String(),
		GeneratedAt: s.now().UTC(),
		AsOf:        asOf,
		CompanyName: subject.Name,
		Sector:      subject.Sector,
		Dropped:     dropped,
		Result:      result,
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("run_id", report.RunID).
		Int("peers", len(group.Peers)).
		Int("dropped", len(dropped)).
		Msg(scoring.Reasoning(result.Score))

	if s.cache != nil && s.options.CacheTTL > 0 {
		if err := s.cache.Put(ctx, key, *report, s.options.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache analysis report")
		}
	}

	return report, nil
}

func (s *Service) cached(ctx context.Context, key string, refresh bool) *models.AnalysisReport {
	if s.cache == nil || refresh {
		return nil
	}
	report, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read analysis cache")
		}
		return nil
	}
	report.Cached = true
	s.logger.Debug().Str("key", key).Str("run_id", report.RunID).Msg("Serving cached analysis")
	return report
}

// collectPeers fetches peers concurrently. Results keep the order of tickers;
// failed peers are returned separately.
func (s *Service) collectPeers(ctx context.Context, tickers []string) ([]models.CompanyData, []string) {
	results := make([]models.CompanyData, len(tickers))
	errs := make([]error, len(tickers))
	var wg sync.WaitGroup

	sem := make(chan struct{}, s.options.Concurrency)

	for i, ticker := range tickers {
		wg.Add(1)
		go func(idx int, peer string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			data, err := s.collector.Collect(ctx, peer)
			if err != nil {
				errs[idx] = err
				return
			}
			data.Ticker = peer
			results[idx] = data
		}(i, ticker)
	}

	wg.Wait()

	collected := make([]models.CompanyData, 0, len(tickers))
	var failed []string
	for i, ticker := range tickers {
		if errs[i] != nil {
			s.logger.Warn().Err(errs[i]).Str("peer", ticker).Msg("Failed to collect peer data, dropping peer")
			failed = append(failed, ticker)
			continue
		}
		collected = append(collected, results[i])
	}
	return collected, failed
}
