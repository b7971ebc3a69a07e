package sentiment

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitas/internal/models"
)

func flatPrices(n int, close float64) []models.PricePoint {
	prices := make([]models.PricePoint, n)
	for i := range prices {
		prices[i] = models.PricePoint{Date: "d", Close: close}
	}
	return prices
}

func surprise(quarter string, actual, estimate float64) models.EarningsSurprise {
	return models.EarningsSurprise{
		Quarter:     quarter,
		EPSActual:   models.Some(actual),
		EPSEstimate: models.Some(estimate),
	}
}

func TestAnalystComponent(t *testing.T) {
	tests := []struct {
		name    string
		ratings models.AnalystRatings
		want    float64
		mean    float64
	}{
		{"all strong buy", models.AnalystRatings{StrongBuy: 12}, 10, 1},
		{"all strong sell", models.AnalystRatings{StrongSell: 3}, 0, 5},
		{"all hold", models.AnalystRatings{Hold: 7}, 5, 3},
		{"mixed", models.AnalystRatings{StrongBuy: 2, Hold: 2}, 7.5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := tt.ratings
			signal, err := Aggregate(models.SentimentInputs{Analyst: &ratings}, DefaultConfig())
			require.NoError(t, err)

			score, ok := signal.Component(models.ComponentAnalyst).Get()
			require.True(t, ok)
			assert.InDelta(t, tt.want, score, 1e-9)
			mean, _ := signal.MeanAnalystRating.Get()
			assert.InDelta(t, tt.mean, mean, 1e-9)
			assert.Equal(t, ratings.Total(), signal.AnalystCount)
		})
	}
}

func TestAnalystComponentWithoutRatings(t *testing.T) {
	signal, err := Aggregate(models.SentimentInputs{Analyst: &models.AnalystRatings{}}, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, signal.Component(models.ComponentAnalyst).Available())
	assert.False(t, signal.Value.Available())
}

func TestEarningsComponentCountsTrailingQuarters(t *testing.T) {
	history := []models.EarningsSurprise{
		surprise("2023Q4", 1.0, 0.5), // outside the trailing window
		surprise("2024Q1", 1.05, 1.0),
		surprise("2024Q2", 1.005, 1.0),
		{Quarter: "2024Q3", EPSActual: models.Some(1.2), EPSEstimate: models.None()},
		surprise("2024Q4", 0.97, 1.0),
		surprise("2025Q1", 1.02, 1.0),
	}

	signal, err := Aggregate(models.SentimentInputs{Earnings: history}, DefaultConfig())
	require.NoError(t, err)

	score, ok := signal.Component(models.ComponentEarnings).Get()
	require.True(t, ok)
	// Counted: 2025Q1 (beat), 2024Q4 (miss), 2024Q2 (within threshold), 2024Q1 (beat).
	assert.Equal(t, 4, signal.QuartersCounted)
	assert.Equal(t, 2, signal.Beats)
	assert.InDelta(t, 5.0, score, 1e-9)
	assert.Equal(t, models.TrendImproving, signal.EarningsTrend)
}

func TestEarningsComponentZeroEstimate(t *testing.T) {
	history := []models.EarningsSurprise{
		surprise("2024Q3", 0.1, 0),
		surprise("2024Q4", -0.1, 0),
	}

	signal, err := Aggregate(models.SentimentInputs{Earnings: history}, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, signal.QuartersCounted)
	assert.Equal(t, 1, signal.Beats)
	assert.Equal(t, models.TrendUnknown, signal.EarningsTrend)
}

func TestEarningsTrend(t *testing.T) {
	assert.Equal(t, models.TrendUnknown, earningsTrend([]float64{3}, 1))
	assert.Equal(t, models.TrendImproving, earningsTrend([]float64{5, 2}, 1))
	assert.Equal(t, models.TrendDeclining, earningsTrend([]float64{-4, 2}, 1))
	assert.Equal(t, models.TrendStable, earningsTrend([]float64{2.5, 2}, 1))
}

func TestMomentumMidpoint(t *testing.T) {
	signal, err := Aggregate(models.SentimentInputs{Prices: flatPrices(250, 100)}, DefaultConfig())
	require.NoError(t, err)

	score, ok := signal.Component(models.ComponentMomentum).Get()
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
	assert.Equal(t, models.CrossUnknown, signal.Cross)
}

func TestMomentumSaturatesAboveBand(t *testing.T) {
	prices := append(flatPrices(199, 100), models.PricePoint{Date: "last", Close: 200})

	signal, err := Aggregate(models.SentimentInputs{Prices: prices}, DefaultConfig())
	require.NoError(t, err)

	score, _ := signal.Component(models.ComponentMomentum).Get()
	assert.InDelta(t, 10.0, score, 1e-9)
	assert.Equal(t, models.CrossGolden, signal.Cross)
}

func TestMomentumDampedBetweenAverages(t *testing.T) {
	prices := append(flatPrices(150, 80), flatPrices(49, 120)...)
	prices = append(prices, models.PricePoint{Date: "last", Close: 110})

	signal, err := Aggregate(models.SentimentInputs{Prices: prices}, DefaultConfig())
	require.NoError(t, err)

	maShort, _ := signal.MAShort.Get()
	maLong, _ := signal.MALong.Get()
	assert.InDelta(t, 119.8, maShort, 1e-9)
	assert.InDelta(t, 89.95, maLong, 1e-9)

	// Price is above the long average but below the short one.
	score, _ := signal.Component(models.ComponentMomentum).Get()
	assert.InDelta(t, 8.75, score, 1e-9)
}

func TestMomentumNeedsLongWindow(t *testing.T) {
	signal, err := Aggregate(models.SentimentInputs{Prices: flatPrices(120, 50)}, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, signal.Component(models.ComponentMomentum).Available())
	assert.True(t, signal.MAShort.Available())
	assert.False(t, signal.MALong.Available())
	assert.Equal(t, models.CrossUnknown, signal.Cross)
}

func TestAggregateRenormalizesWeights(t *testing.T) {
	inputs := models.SentimentInputs{
		Analyst: &models.AnalystRatings{StrongBuy: 2, Hold: 2},
		Earnings: []models.EarningsSurprise{
			surprise("Q1", 1.1, 1.0),
			surprise("Q2", 0.9, 1.0),
		},
	}

	signal, err := Aggregate(inputs, DefaultConfig())
	require.NoError(t, err)

	value, ok := signal.Value.Get()
	require.True(t, ok)
	assert.InDelta(t, (0.4*7.5+0.3*5)/0.7, value, 1e-9)
	assert.InDelta(t, 0.4/0.7, signal.Weights[models.ComponentAnalyst], 1e-9)
	assert.InDelta(t, 0.3/0.7, signal.Weights[models.ComponentEarnings], 1e-9)
	_, hasMomentum := signal.Weights[models.ComponentMomentum]
	assert.False(t, hasMomentum)
}

func TestAggregateAllComponents(t *testing.T) {
	inputs := models.SentimentInputs{
		Analyst:  &models.AnalystRatings{StrongBuy: 12},
		Earnings: []models.EarningsSurprise{surprise("Q1", 1.1, 1.0)},
		Prices:   flatPrices(200, 100),
	}

	signal, err := Aggregate(inputs, DefaultConfig())
	require.NoError(t, err)

	value, _ := signal.Value.Get()
	assert.InDelta(t, 0.4*10+0.3*10+0.3*5, value, 1e-9)
}

func TestAggregateWithoutInputs(t *testing.T) {
	signal, err := Aggregate(models.SentimentInputs{}, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, signal.Value.Available())
	assert.Empty(t, signal.Weights)
	for _, c := range models.SentimentComponents {
		assert.False(t, signal.Component(c).Available(), string(c))
	}
}

func TestAggregateRejectsNonFiniteInputs(t *testing.T) {
	prices := flatPrices(10, 100)
	prices[4].Close = math.NaN()

	_, err := Aggregate(models.SentimentInputs{Prices: prices}, DefaultConfig())
	var invalid *models.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "sentiment.prices", invalid.Field)

	earnings := []models.EarningsSurprise{{Quarter: "Q1", EPSActual: models.Some(math.Inf(1)), EPSEstimate: models.Some(1)}}
	_, err = Aggregate(models.SentimentInputs{Earnings: earnings}, DefaultConfig())
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "sentiment.earnings", invalid.Field)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ShortWindow = 200
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.AnalystWeight, cfg.EarningsWeight, cfg.MomentumWeight = 0, 0, 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MomentumBand = 0
	assert.Error(t, cfg.Validate())
}
