package thesis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitas/internal/models"
)

func ranked(name models.RatioName, value, percentile float64, peers ...float64) models.RankedRatio {
	spec, _ := models.LookupRatio(name)
	median := models.None()
	if len(peers) > 0 {
		median = models.Some(peers[len(peers)/2])
	}
	return models.RankedRatio{
		Name:         name,
		Category:     spec.Category,
		Direction:    spec.Direction,
		SubjectValue: models.Some(value),
		PeerValues:   peers,
		PeerMedian:   median,
		Percentile:   models.Some(percentile),
		Basis:        models.BasisPeers,
		Available:    true,
	}
}

func scored(categories ...models.Category) []models.CategoryScore {
	out := make([]models.CategoryScore, 0, len(categories))
	for _, c := range categories {
		out = append(out, models.CategoryScore{
			Category:      c,
			Score:         6,
			Contributions: []models.Contribution{{Name: "x", Score: 6, Weight: 1}},
		})
	}
	return out
}

func allCategories() []models.CategoryScore {
	return scored(models.Categories...)
}

func TestGenerateSplitsBullAndBear(t *testing.T) {
	input := map[models.RatioName]models.RankedRatio{
		models.RatioPE:              ranked(models.RatioPE, 12, 90, 14, 18, 22),
		models.RatioGrossMargin:     ranked(models.RatioGrossMargin, 0.62, 75, 0.4, 0.5, 0.7),
		models.RatioDebtToEquity:    ranked(models.RatioDebtToEquity, 2.4, 10, 0.5, 0.8, 1.1),
		models.RatioRevenueGrowth:   ranked(models.RatioRevenueGrowth, 0.03, 25, 0.05, 0.08, 0.12),
		models.RatioAssetTurnover:   ranked(models.RatioAssetTurnover, 0.9, 50, 0.7, 0.9, 1.1),
		models.RatioOperatingMargin: ranked(models.RatioOperatingMargin, 0.2, 74.9, 0.1, 0.2, 0.3),
	}

	evidence := Generate(input, allCategories(), DefaultConfig())

	require.Len(t, evidence.Bull, 2)
	assert.Equal(t, models.RatioPE, evidence.Bull[0].Ratio)
	assert.Equal(t, models.RatioGrossMargin, evidence.Bull[1].Ratio)
	assert.InDelta(t, 40.0, evidence.Bull[0].Magnitude, 1e-9)

	require.Len(t, evidence.Bear, 2)
	assert.Equal(t, models.RatioDebtToEquity, evidence.Bear[0].Ratio)
	assert.Equal(t, models.RatioRevenueGrowth, evidence.Bear[1].Ratio)
}

func TestGenerateStatements(t *testing.T) {
	input := map[models.RatioName]models.RankedRatio{
		models.RatioPE:            ranked(models.RatioPE, 12, 90, 14, 18, 22),
		models.RatioRevenueGrowth: ranked(models.RatioRevenueGrowth, 0.031, 20, 0.05, 0.08, 0.12),
	}

	evidence := Generate(input, allCategories(), DefaultConfig())

	require.Len(t, evidence.Bull, 1)
	assert.Equal(t, "Strong P/E ratio: 12.0x (percentile 90 vs 3 peers, median 18.0x).", evidence.Bull[0].Statement)
	require.Len(t, evidence.Bear, 1)
	assert.Equal(t, "Weak Revenue growth: 3.1% (percentile 20 vs 3 peers, median 8.0%).", evidence.Bear[0].Statement)
}

func TestGenerateBenchmarkStatement(t *testing.T) {
	current := ranked(models.RatioCurrent, 2.5, 100)
	current.Basis = models.BasisBenchmark
	current.LowConfidence = true

	evidence := Generate(map[models.RatioName]models.RankedRatio{models.RatioCurrent: current}, allCategories(), DefaultConfig())

	require.Len(t, evidence.Bull, 1)
	assert.Equal(t, "Strong Current ratio: 2.5x (percentile 100 against benchmark).", evidence.Bull[0].Statement)
}

func TestGenerateCapsAndOrdersByMagnitude(t *testing.T) {
	input := map[models.RatioName]models.RankedRatio{}
	percentiles := []float64{80, 95, 76, 100, 88, 91, 99}
	names := []models.RatioName{
		models.RatioPE, models.RatioPEG, models.RatioPriceToBook, models.RatioPriceToSales,
		models.RatioEVToEBITDA, models.RatioROE, models.RatioROA,
	}
	for i, name := range names {
		input[name] = ranked(name, 1, percentiles[i], 1, 2)
	}

	evidence := Generate(input, allCategories(), DefaultConfig())

	require.Len(t, evidence.Bull, 5)
	got := make([]float64, len(evidence.Bull))
	for i, p := range evidence.Bull {
		got[i] = p.Percentile
	}
	assert.Equal(t, []float64{100, 99, 95, 91, 88}, got)
	assert.Empty(t, evidence.Bear)
}

func TestGenerateNegativeMaxPointsYieldsNoPoints(t *testing.T) {
	input := map[models.RatioName]models.RankedRatio{
		models.RatioPE:           ranked(models.RatioPE, 12, 90, 14, 18, 22),
		models.RatioDebtToEquity: ranked(models.RatioDebtToEquity, 2.4, 10, 0.5, 0.8, 1.1),
	}
	cfg := DefaultConfig()
	cfg.MaxPoints = -1

	var evidence models.Evidence
	require.NotPanics(t, func() { evidence = Generate(input, allCategories(), cfg) })
	assert.Empty(t, evidence.Bull)
	assert.Empty(t, evidence.Bear)
	assert.Error(t, cfg.Validate())
}

func TestGenerateBreaksTiesByName(t *testing.T) {
	input := map[models.RatioName]models.RankedRatio{
		models.RatioROE:         ranked(models.RatioROE, 0.3, 10, 0.1),
		models.RatioGrossMargin: ranked(models.RatioGrossMargin, 0.3, 90, 0.1),
		models.RatioNetMargin:   ranked(models.RatioNetMargin, 0.3, 90, 0.1),
		models.RatioFCFMargin:   ranked(models.RatioFCFMargin, 0.3, 90, 0.1),
	}

	for i := 0; i < 5; i++ {
		evidence := Generate(input, allCategories(), DefaultConfig())
		require.Len(t, evidence.Bull, 3)
		assert.Equal(t, models.RatioFCFMargin, evidence.Bull[0].Ratio, fmt.Sprintf("run %d", i))
		assert.Equal(t, models.RatioGrossMargin, evidence.Bull[1].Ratio)
		assert.Equal(t, models.RatioNetMargin, evidence.Bull[2].Ratio)
	}
}

func TestGenerateSkipsUnscorableAndEmptyCategories(t *testing.T) {
	unavailable := ranked(models.RatioPE, 0, 0)
	unavailable.Available = false
	unavailable.Percentile = models.None()

	input := map[models.RatioName]models.RankedRatio{
		models.RatioPE:   unavailable,
		models.RatioROIC: ranked(models.RatioROIC, 0.3, 95, 0.1),
	}
	categories := scored(models.CategoryValuation)
	categories = append(categories, models.CategoryScore{Category: models.CategoryQualityMoat, Score: 5, LowConfidence: true})

	evidence := Generate(input, categories, DefaultConfig())
	assert.Empty(t, evidence.Bull)
	assert.Empty(t, evidence.Bear)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "15.2x", FormatValue(15.23, models.UnitMultiple))
	assert.Equal(t, "15.2%", FormatValue(0.152, models.UnitPercent))
	assert.Equal(t, "61 days", FormatValue(60.83, models.UnitDays))
	assert.Equal(t, "3.09", FormatValue(3.0912, models.UnitScore))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{BullPercentile: 50, BearPercentile: 25, MaxPoints: 5}.Validate())
	assert.Error(t, Config{BullPercentile: 75, BearPercentile: 60, MaxPoints: 5}.Validate())
	assert.Error(t, Config{BullPercentile: 75, BearPercentile: 25, MaxPoints: -1}.Validate())
}
