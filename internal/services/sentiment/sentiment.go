// Package sentiment combines analyst ratings, earnings surprises and price
// momentum into a single 0-10 signal. Functions are stateless and perform
// no I/O.
package sentiment

import (
	"math"

	"github.com/ternarybob/equitas/internal/models"
)

// Config holds the sentiment tunables.
type Config struct {
	AnalystWeight  float64
	EarningsWeight float64
	MomentumWeight float64

	// EarningsQuarters is the number of trailing quarters counted.
	EarningsQuarters int
	// BeatThresholdPct is the surprise in percent above which a quarter is a beat.
	BeatThresholdPct float64

	ShortWindow int
	LongWindow  int
	// MomentumBand is the distance from the long average that saturates the score.
	MomentumBand float64
	// OffSideFactor damps momentum when price sits between the two averages.
	OffSideFactor float64

	// InsiderLookbackDays is the window of insider trades summarised.
	InsiderLookbackDays int
}

// DefaultConfig returns the standard sentiment configuration.
func DefaultConfig() Config {
	return Config{
		AnalystWeight:    0.4,
		EarningsWeight:   0.3,
		MomentumWeight:   0.3,
		EarningsQuarters: 4,
		BeatThresholdPct: 1.0,
		ShortWindow:      50,
		LongWindow:       200,
		MomentumBand:     0.20,
		OffSideFactor:    0.75,

		InsiderLookbackDays: 90,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.AnalystWeight < 0 || c.EarningsWeight < 0 || c.MomentumWeight < 0 {
		return models.NewInvalidInput("sentiment.weights", "weights must be non-negative")
	}
	if c.AnalystWeight+c.EarningsWeight+c.MomentumWeight <= 0 {
		return models.NewInvalidInput("sentiment.weights", "at least one weight must be positive")
	}
	if c.EarningsQuarters < 1 {
		return models.NewInvalidInput("sentiment.earnings_quarters", "must be at least 1, got %d", c.EarningsQuarters)
	}
	if c.ShortWindow < 1 || c.LongWindow <= c.ShortWindow {
		return models.NewInvalidInput("sentiment.windows", "need 0 < short (%d) < long (%d)", c.ShortWindow, c.LongWindow)
	}
	if c.MomentumBand <= 0 {
		return models.NewInvalidInput("sentiment.momentum_band", "must be positive, got %g", c.MomentumBand)
	}
	if c.OffSideFactor < 0 || c.OffSideFactor > 1 {
		return models.NewInvalidInput("sentiment.off_side_factor", "must be within [0,1], got %g", c.OffSideFactor)
	}
	if c.InsiderLookbackDays < 1 {
		return models.NewInvalidInput("sentiment.insider_lookback_days", "must be at least 1, got %d", c.InsiderLookbackDays)
	}
	return nil
}

func (c Config) weight(component models.SentimentComponent) float64 {
	switch component {
	case models.ComponentAnalyst:
		return c.AnalystWeight
	case models.ComponentEarnings:
		return c.EarningsWeight
	case models.ComponentMomentum:
		return c.MomentumWeight
	}
	return 0
}

// Aggregate computes the sentiment signal. Missing sub-signals are left out
// and the remaining weights renormalized; with none present the signal is
// unavailable.
func Aggregate(inputs models.SentimentInputs, cfg Config) (models.SentimentSignal, error) {
	if err := cfg.Validate(); err != nil {
		return models.SentimentSignal{}, err
	}
	if err := validateInputs(inputs); err != nil {
		return models.SentimentSignal{}, err
	}

	signal := models.SentimentSignal{
		Value:             models.None(),
		Components:        make(map[models.SentimentComponent]models.Value, len(models.SentimentComponents)),
		Weights:           make(map[models.SentimentComponent]float64, len(models.SentimentComponents)),
		MeanAnalystRating: models.None(),
		EarningsTrend:     models.TrendUnknown,
		Price:             models.None(),
		MAShort:           models.None(),
		MALong:            models.None(),
		Cross:             models.CrossUnknown,
		InstitutionsPct:   models.None(),
		InsidersPct:       models.None(),
	}

	signal.Components[models.ComponentAnalyst] = analystScore(inputs.Analyst, &signal)
	signal.Components[models.ComponentEarnings] = earningsScore(inputs.Earnings, cfg, &signal)
	signal.Components[models.ComponentMomentum] = momentumScore(inputs.Prices, cfg, &signal)

	signal.Insider = insiderActivity(inputs.Insiders, inputs.Prices, cfg)
	if o := inputs.Ownership; o != nil {
		signal.InstitutionsPct = o.InstitutionsPct
		signal.InsidersPct = o.InsidersPct
	}

	total, sum := 0.0, 0.0
	for _, c := range models.SentimentComponents {
		v, ok := signal.Components[c].Get()
		w := cfg.weight(c)
		if !ok || w == 0 {
			continue
		}
		total += w
		sum += w * v
	}
	if total == 0 {
		return signal, nil
	}
	for _, c := range models.SentimentComponents {
		if signal.Components[c].Available() && cfg.weight(c) > 0 {
			signal.Weights[c] = cfg.weight(c) / total
		}
	}
	signal.Value = models.Some(models.ClampFloat64(sum/total, 0, 10))
	return signal, nil
}

func validateInputs(inputs models.SentimentInputs) error {
	if a := inputs.Analyst; a != nil {
		if a.StrongBuy < 0 || a.Buy < 0 || a.Hold < 0 || a.Sell < 0 || a.StrongSell < 0 {
			return models.NewInvalidInput("sentiment.analyst", "rating counts must be non-negative")
		}
	}
	for i, e := range inputs.Earnings {
		if e.EPSActual.IsNonFinite() || e.EPSEstimate.IsNonFinite() {
			return models.NewInvalidInput("sentiment.earnings", "quarter %d (%s) has a non-finite EPS value", i, e.Quarter)
		}
	}
	for i, t := range inputs.Insiders {
		if math.IsNaN(t.Shares) || math.IsInf(t.Shares, 0) || t.Shares < 0 {
			return models.NewInvalidInput("sentiment.insiders", "trade %d (%s) has an invalid share count", i, t.Date)
		}
	}
	for i, p := range inputs.Prices {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return models.NewInvalidInput("sentiment.prices", "close %d (%s) is not finite", i, p.Date)
		}
	}
	return nil
}

// analystScore maps the mean rating (1 strong buy ... 5 strong sell) onto
// 10 ... 0.
func analystScore(ratings *models.AnalystRatings, signal *models.SentimentSignal) models.Value {
	if ratings == nil || ratings.Total() == 0 {
		return models.None()
	}
	n := ratings.Total()
	weighted := 1*ratings.StrongBuy + 2*ratings.Buy + 3*ratings.Hold + 4*ratings.Sell + 5*ratings.StrongSell
	mean := float64(weighted) / float64(n)

	signal.MeanAnalystRating = models.Some(mean)
	signal.AnalystCount = n
	return models.Some(models.ClampFloat64(10-(mean-1)*2.5, 0, 10))
}

// earningsScore is the share of beats over the trailing quarters that
// report both actual and estimate.
func earningsScore(history []models.EarningsSurprise, cfg Config, signal *models.SentimentSignal) models.Value {
	beats, counted := 0, 0
	var surprises []float64 // newest first

	for i := len(history) - 1; i >= 0 && counted < cfg.EarningsQuarters; i-- {
		actual, ok1 := history[i].EPSActual.Get()
		estimate, ok2 := history[i].EPSEstimate.Get()
		if !ok1 || !ok2 {
			continue
		}
		counted++

		surprise, ok := history[i].SurprisePct().Get()
		if ok {
			surprises = append(surprises, surprise)
		}
		switch {
		case estimate == 0 && actual > 0:
			beats++
		case ok && surprise > cfg.BeatThresholdPct:
			beats++
		}
	}

	signal.Beats = beats
	signal.QuartersCounted = counted
	signal.EarningsTrend = earningsTrend(surprises, cfg.BeatThresholdPct)

	if counted == 0 {
		return models.None()
	}
	return models.Some(float64(beats) / float64(counted) * 10)
}

// earningsTrend compares the latest surprise with the one before it.
func earningsTrend(newestFirst []float64, tolerance float64) models.EarningsTrend {
	if len(newestFirst) < 2 {
		return models.TrendUnknown
	}
	diff := newestFirst[0] - newestFirst[1]
	switch {
	case diff > tolerance:
		return models.TrendImproving
	case diff < -tolerance:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// momentumScore scores the latest close against the long moving average.
// Exactly 5 when price equals the long average; saturates at 0 or 10 once
// price is MomentumBand away from it.
func momentumScore(prices []models.PricePoint, cfg Config, signal *models.SentimentSignal) models.Value {
	if len(prices) == 0 {
		return models.None()
	}
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	price := closes[len(closes)-1]
	signal.Price = models.Some(price)

	maShort, shortOK := sma(closes, cfg.ShortWindow)
	if shortOK {
		signal.MAShort = models.Some(maShort)
	}
	maLong, longOK := sma(closes, cfg.LongWindow)
	if !longOK {
		return models.None()
	}
	signal.MALong = models.Some(maLong)
	signal.Cross = crossState(maShort, maLong)

	if maLong <= 0 {
		return models.None()
	}

	r := price/maLong - 1
	k := 1.0
	if sideOf(price, maShort) != sideOf(price, maLong) {
		k = cfg.OffSideFactor
	}
	return models.Some(models.ClampFloat64(5+5*models.ClampFloat64(r/cfg.MomentumBand, -1, 1)*k, 0, 10))
}

func crossState(maShort, maLong float64) models.CrossState {
	switch {
	case maShort > maLong:
		return models.CrossGolden
	case maShort < maLong:
		return models.CrossDeath
	default:
		return models.CrossUnknown
	}
}

// sideOf returns -1 when price is below the average, +1 otherwise.
func sideOf(price, average float64) int {
	if price < average {
		return -1
	}
	return 1
}

// sma returns the simple moving average of the last n values.
func sma(values []float64, n int) (float64, bool) {
	if n <= 0 || len(values) < n {
		return 0, false
	}
	sum := 0.0
	for i := len(values) - n; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(n), true
}
