package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/analysis"
	"github.com/ternarybob/equitas/internal/services/report"
)

func TestDefaultConfigMatchesStageDefaults(t *testing.T) {
	config := common.NewDefaultConfig()

	converted := analysisConfig(config)
	assert.Equal(t, analysis.DefaultConfig(), converted)
	require.NoError(t, converted.Validate())

	options := analysisOptions(config)
	assert.Equal(t, 4, options.Concurrency)
	assert.Equal(t, 24*time.Hour, options.CacheTTL)

	collector := collectorConfig(config)
	assert.Equal(t, "US", collector.Exchange)
	assert.Equal(t, 400, collector.PriceHistoryDays)
}

func TestAnalysisConfigRejectsUnknownCategory(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Analysis.Scoring.Weights["momentum"] = config.Analysis.Scoring.Weights["momentum_sentiment"]
	delete(config.Analysis.Scoring.Weights, "momentum_sentiment")

	assert.Error(t, analysisConfig(config).Validate())
}

func TestCacheDisabledMeansNoTTL(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Cache.Enabled = false
	assert.Zero(t, analysisOptions(config).CacheTTL)
}

func TestNewApplicationRequiresAPIKey(t *testing.T) {
	config := common.NewDefaultConfig()
	config.EODHD.APIKey = ""

	_, err := newApplication(config, arbor.NewLogger())
	assert.Error(t, err)
}

func TestRenderReport(t *testing.T) {
	svc := report.NewService(arbor.NewLogger())
	r := &models.AnalysisReport{
		RunID: "run-1",
		Result: models.AnalysisResult{
			Ticker: "ACME",
			Score:  models.InvestmentScore{Total: 5.0, Recommendation: models.RecommendationHold},
		},
	}

	md, err := renderReport(svc, r, "markdown")
	require.NoError(t, err)
	assert.Contains(t, string(md), "# ACME")

	html, err := renderReport(svc, r, "html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")

	data, err := renderReport(svc, r, "json")
	require.NoError(t, err)
	var decoded models.AnalysisReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)

	_, err = renderReport(svc, r, "pdf")
	assert.Error(t, err)

	assert.Equal(t, ".md", fileExtension("markdown"))
	assert.Equal(t, ".html", fileExtension("html"))
	assert.Equal(t, ".json", fileExtension("json"))
}
