// Package ratios derives financial ratios from raw statement data.
// All functions are stateless and perform no I/O.
package ratios

import (
	"fmt"

	"github.com/ternarybob/equitas/internal/models"
)

// Config holds the tunables of ratio derivation.
type Config struct {
	CAGRMaxYears     int     // longest span used for compound growth
	DefaultTaxRate   float64 // used when the effective rate is undefined
	MaxTaxRate       float64 // effective rate is clamped to [0, MaxTaxRate]
	DaysPerYear      float64 // scale for working-capital day counts
	MarginTrendYears int     // years of margin history reported
}

// DefaultConfig returns the standard ratio configuration.
func DefaultConfig() Config {
	return Config{
		CAGRMaxYears:     3,
		DefaultTaxRate:   0.21,
		MaxTaxRate:       0.5,
		DaysPerYear:      365,
		MarginTrendYears: 4,
	}
}

// Validate checks the config for values that would make ratios meaningless.
func (c Config) Validate() error {
	if c.CAGRMaxYears < 1 {
		return models.NewInvalidInput("ratios.cagr_max_years", "must be at least 1, got %d", c.CAGRMaxYears)
	}
	if c.DefaultTaxRate < 0 || c.DefaultTaxRate > 1 {
		return models.NewInvalidInput("ratios.default_tax_rate", "must be within [0,1], got %g", c.DefaultTaxRate)
	}
	if c.MaxTaxRate < 0 || c.MaxTaxRate > 1 {
		return models.NewInvalidInput("ratios.max_tax_rate", "must be within [0,1], got %g", c.MaxTaxRate)
	}
	if c.DaysPerYear <= 0 {
		return models.NewInvalidInput("ratios.days_per_year", "must be positive, got %g", c.DaysPerYear)
	}
	if c.MarginTrendYears < 1 {
		return models.NewInvalidInput("ratios.margin_trend_years", "must be at least 1, got %d", c.MarginTrendYears)
	}
	return nil
}

// Compute derives every ratio of the ratio table from periods, ordered
// oldest to newest, and the current market snapshot.
//
// A ratio whose inputs are missing, or whose denominator is zero or of the
// wrong sign, is unavailable. Only structurally invalid input is an error:
// an empty sequence, out-of-order periods or non-finite raw values.
func Compute(periods []models.FinancialPeriod, snapshot models.MarketSnapshot, cfg Config) (models.RatioRecord, error) {
	if err := cfg.Validate(); err != nil {
		return models.RatioRecord{}, err
	}
	if err := ValidatePeriods(periods, snapshot); err != nil {
		return models.RatioRecord{}, err
	}

	latest := periods[len(periods)-1]
	var prior *models.FinancialPeriod
	if len(periods) >= 2 {
		prior = &periods[len(periods)-2]
	}
	mcap := marketCap(latest, snapshot)

	values := map[models.RatioName]models.Value{
		models.RatioPE:            peRatio(latest, snapshot, mcap),
		models.RatioPEG:           pegRatio(latest, prior, snapshot, mcap),
		models.RatioPriceToBook:   models.DivPositive(mcap, latest.TotalEquity),
		models.RatioPriceToSales:  models.DivPositive(mcap, latest.Revenue),
		models.RatioEVToEBITDA:    evMultiple(latest, mcap, latest.EBITDA),
		models.RatioEVToRevenue:   evMultiple(latest, mcap, latest.Revenue),
		models.RatioPriceToFCF:    models.DivPositive(mcap, freeCashFlow(latest)),
		models.RatioEarningsYield: models.DivPositive(latest.NetIncome, mcap),
		models.RatioFCFYield:      models.DivPositive(freeCashFlow(latest), mcap),

		models.RatioRevenueGrowth:   growthOf(prior, latest, func(p models.FinancialPeriod) models.Value { return p.Revenue }),
		models.RatioEPSGrowth:       growthOf(prior, latest, epsOf),
		models.RatioNetIncomeGrowth: growthOf(prior, latest, func(p models.FinancialPeriod) models.Value { return p.NetIncome }),
		models.RatioFCFGrowth:       growthOf(prior, latest, freeCashFlow),
		models.RatioRevenueCAGR:     cagrOf(periods, cfg.CAGRMaxYears, func(p models.FinancialPeriod) models.Value { return p.Revenue }),
		models.RatioEPSCAGR:         cagrOf(periods, cfg.CAGRMaxYears, epsOf),

		models.RatioGrossMargin:     models.DivPositive(grossProfit(latest), latest.Revenue),
		models.RatioOperatingMargin: models.DivPositive(latest.OperatingIncome, latest.Revenue),
		models.RatioNetMargin:       models.DivPositive(latest.NetIncome, latest.Revenue),
		models.RatioFCFMargin:       models.DivPositive(freeCashFlow(latest), latest.Revenue),
		models.RatioROE:             models.DivPositive(latest.NetIncome, latest.TotalEquity),
		models.RatioROA:             models.DivPositive(latest.NetIncome, latest.TotalAssets),

		models.RatioCurrent:          models.DivPositive(latest.CurrentAssets, latest.CurrentLiabilities),
		models.RatioQuick:            quickRatio(latest),
		models.RatioDebtToEquity:     models.DivPositive(latest.TotalDebt, latest.TotalEquity),
		models.RatioDebtToAssets:     models.DivPositive(latest.TotalDebt, latest.TotalAssets),
		models.RatioInterestCoverage: interestCoverage(latest),
		models.RatioDebtToEBITDA:     models.DivPositive(latest.TotalDebt, latest.EBITDA),
		models.RatioAltmanZ:          altmanZ(latest, mcap),

		models.RatioROIC:                roic(latest, cfg),
		models.RatioAssetTurnover:       models.DivPositive(latest.Revenue, latest.TotalAssets),
		models.RatioCashConversion:      models.DivPositive(latest.OperatingCashFlow, latest.NetIncome),
		models.RatioCashConversionCycle: cashConversionCycle(latest, cfg.DaysPerYear),
	}

	return models.RatioRecord{
		Periods: len(periods),
		Values:  values,
	}, nil
}

// ValidatePeriods rejects input that cannot be scored safely.
func ValidatePeriods(periods []models.FinancialPeriod, snapshot models.MarketSnapshot) error {
	if len(periods) == 0 {
		return models.NewInvalidInput("periods", "empty period sequence")
	}

	for i, p := range periods {
		for field, v := range p.LineItems() {
			if v.IsNonFinite() {
				return models.NewInvalidInput(fmt.Sprintf("periods[%d].%s", i, field), "non-finite value")
			}
		}
		if i == 0 {
			continue
		}
		prev := periods[i-1]
		if p.FiscalYear == 0 || prev.FiscalYear == 0 {
			continue
		}
		if periodKey(p) <= periodKey(prev) {
			return models.NewInvalidInput(fmt.Sprintf("periods[%d].fiscal_year", i),
				"%s does not follow %s; periods must be ordered oldest to newest", p.Label(), prev.Label())
		}
	}

	if snapshot.Price.IsNonFinite() {
		return models.NewInvalidInput("market.price", "non-finite value")
	}
	if snapshot.MarketCap.IsNonFinite() {
		return models.NewInvalidInput("market.market_cap", "non-finite value")
	}
	return nil
}

func periodKey(p models.FinancialPeriod) int {
	return p.FiscalYear*10 + p.FiscalQuarter
}
