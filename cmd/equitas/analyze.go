package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/services/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Analyze and score a company against its peers",
	Long:  `Fetches fundamentals and prices for the ticker and its peers, then prints the score, category breakdown and bull/bear evidence.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzePeers   []string
	analyzeRefresh bool
	analyzeFormat  string
	analyzeOutput  string
)

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzePeers, "peers", nil, "Peer tickers (overrides the peer mapping)")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "Ignore cached results")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "markdown", "Output format (markdown, html, json)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ticker, err := common.ValidateTicker(args[0])
	if err != nil {
		return err
	}
	peerTickers, err := common.NormalizeTickers(analyzePeers)
	if err != nil {
		return err
	}

	app, err := newApplication(config, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := app.analysis.Analyze(ctx, analysis.Request{
		Ticker:  ticker,
		Peers:   peerTickers,
		Refresh: analyzeRefresh,
	})
	if err != nil {
		return err
	}

	out, err := renderReport(app.report, report, analyzeFormat)
	if err != nil {
		return err
	}

	if analyzeOutput == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(analyzeOutput, out, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info().Str("path", analyzeOutput).Msg("Report written")
	return nil
}
