package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/interfaces"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch [tickers...]",
	Short: "Re-analyze a watchlist on a schedule",
	Long:  `Runs the analysis for every watchlist ticker on the configured cron schedule and writes one report file per ticker. Tickers given as arguments replace the configured watchlist.`,
	RunE:  runWatch,
}

var (
	watchSchedule  string
	watchOutputDir string
	watchFormat    string
	watchOnce      bool
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron schedule (overrides config)")
	watchCmd.Flags().StringVar(&watchOutputDir, "output-dir", "reports", "Directory for report files")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "markdown", "Report format (markdown, html, json)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Run a single pass and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	tickers := config.Watch.Tickers
	if len(args) > 0 {
		tickers = args
	}
	tickers, err := common.NormalizeTickers(tickers)
	if err != nil {
		return err
	}
	schedule := config.Watch.Schedule
	if watchSchedule != "" {
		schedule = watchSchedule
	}

	common.PrintBanner()

	if err := os.MkdirAll(watchOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	app, err := newApplication(config, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var cache interfaces.AnalysisCache
	if app.storage != nil {
		cache = app.storage.AnalysisCache()
	}

	svc := scheduler.NewService(app.analysis, cache, tickers, logger)
	svc.OnReport(func(r *models.AnalysisReport) {
		if err := writeReport(app, r); err != nil {
			logger.Error().Err(err).Str("ticker", r.Result.Ticker).Msg("Failed to write report")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchOnce {
		summary := svc.RunOnce(ctx)
		if len(summary.Failed) > 0 {
			return fmt.Errorf("%d of %d tickers failed", len(summary.Failed), len(tickers))
		}
		return nil
	}

	if err := svc.Start(schedule); err != nil {
		return err
	}
	logger.Info().
		Str("next_run", svc.NextRun().Format("2006-01-02 15:04")).
		Msg("Watching - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")
	return svc.Stop()
}

func writeReport(app *application, r *models.AnalysisReport) error {
	out, err := renderReport(app.report, r, watchFormat)
	if err != nil {
		return err
	}

	name := strings.ReplaceAll(r.Result.Ticker, ":", "_")
	if r.AsOf != "" {
		name += "-" + r.AsOf
	}
	path := filepath.Join(watchOutputDir, name+fileExtension(watchFormat))
	if err := os.WriteFile(path, out, 0644); err != nil {
		return err
	}

	logger.Info().
		Str("ticker", r.Result.Ticker).
		Str("path", path).
		Msg("Report written")
	return nil
}
