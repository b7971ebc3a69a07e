// Package scheduler re-runs analyses of a watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/analysis"
)

// Analyzer produces an analysis report
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*models.AnalysisReport, error)
}

// RunSummary describes one pass over the watchlist
type RunSummary struct {
	Started  time.Time
	Finished time.Time
	Reports  []*models.AnalysisReport
	Failed   map[string]error
	Purged   int
	Skipped  bool // a previous pass was still running
}

// Service implements the watchlist scheduler
type Service struct {
	analyzer     Analyzer
	cache        interfaces.AnalysisCache // optional, purged before each pass
	tickers      []string
	cron         *cron.Cron
	logger       arbor.ILogger
	onReport     func(*models.AnalysisReport)
	mu           sync.Mutex // protects isProcessing, running and lastRun
	isProcessing bool
	running      bool
	lastRun      *RunSummary
}

// NewService creates a new scheduler for tickers
func NewService(analyzer Analyzer, cache interfaces.AnalysisCache, tickers []string, logger arbor.ILogger) *Service {
	return &Service{
		analyzer: analyzer,
		cache:    cache,
		tickers:  tickers,
		cron:     cron.New(),
		logger:   logger,
	}
}

// OnReport registers a callback invoked for every produced report
func (s *Service) OnReport(fn func(*models.AnalysisReport)) {
	s.onReport = fn
}

// Start schedules the watchlist pass
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(s.tickers) == 0 {
		return fmt.Errorf("watchlist is empty")
	}
	if err := common.ValidateSchedule(schedule); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduledTask); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Strs("tickers", s.tickers).
		Msg("Scheduler started")
	return nil
}

// Stop stops the schedule and waits for a running pass to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the schedule is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the summary of the most recent pass, nil before the first
func (s *Service) LastRun() *RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// NextRun returns the next scheduled time, zero when not scheduled
func (s *Service) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Service) runScheduledTask() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in scheduled analysis")
		}
	}()

	summary := s.RunOnce(context.Background())
	if summary.Skipped {
		return
	}
	s.logger.Info().
		Int("reports", len(summary.Reports)).
		Int("failed", len(summary.Failed)).
		Str("duration", summary.Finished.Sub(summary.Started).String()).
		Msg("Scheduled analysis complete")
}

// RunOnce analyses every ticker of the watchlist. Overlapping passes are skipped.
func (s *Service) RunOnce(ctx context.Context) RunSummary {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Previous analysis pass still running, skipping this cycle")
		return RunSummary{Skipped: true}
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	summary := RunSummary{
		Started: time.Now(),
		Reports: make([]*models.AnalysisReport, 0, len(s.tickers)),
		Failed:  make(map[string]error),
	}

	if s.cache != nil {
		purged, err := s.cache.Purge(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to purge analysis cache")
		}
		summary.Purged = purged
	}

	for _, ticker := range s.tickers {
		if err := ctx.Err(); err != nil {
			summary.Failed[ticker] = err
			continue
		}
		report, err := s.analyzer.Analyze(ctx, analysis.Request{Ticker: ticker})
		if err != nil {
			s.logger.Error().Err(err).Str("ticker", ticker).Msg("Scheduled analysis failed")
			summary.Failed[ticker] = err
			continue
		}
		summary.Reports = append(summary.Reports, report)
		if s.onReport != nil {
			s.onReport(report)
		}
	}

	summary.Finished = time.Now()

	s.mu.Lock()
	s.lastRun = &summary
	s.mu.Unlock()
	return summary
}
