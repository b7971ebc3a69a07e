package ratios

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitas/internal/models"
)

func basePeriod(year int) models.FinancialPeriod {
	s := models.Some
	return models.FinancialPeriod{
		FiscalYear:         year,
		Revenue:            s(1000),
		CostOfRevenue:      s(600),
		GrossProfit:        s(400),
		OperatingIncome:    s(200),
		EBIT:               s(200),
		EBITDA:             s(250),
		NetIncome:          s(150),
		IncomeTax:          s(40),
		PretaxIncome:       s(190),
		InterestExpense:    s(20),
		DilutedEPS:         s(1.5),
		OperatingCashFlow:  s(180),
		CapitalExpenditure: s(-30),
		TotalAssets:        s(2000),
		TotalLiabilities:   s(1000),
		TotalEquity:        s(1000),
		TotalDebt:          s(500),
		Cash:               s(100),
		CurrentAssets:      s(600),
		CurrentLiabilities: s(300),
		Inventory:          s(100),
		Receivables:        s(150),
		Payables:           s(90),
		RetainedEarnings:   s(400),
		SharesOutstanding:  s(100),
	}
}

func priorPeriod(year int) models.FinancialPeriod {
	p := basePeriod(year)
	p.Revenue = models.Some(800)
	p.NetIncome = models.Some(120)
	p.DilutedEPS = models.Some(1.2)
	p.OperatingCashFlow = models.Some(150)
	return p
}

func snapshot() models.MarketSnapshot {
	return models.MarketSnapshot{Price: models.Some(30), MarketCap: models.Some(3000)}
}

func assertRatio(t *testing.T, record models.RatioRecord, name models.RatioName, want float64) {
	t.Helper()
	got, ok := record.Get(name).Get()
	require.True(t, ok, "%s should be available", name)
	assert.InDelta(t, want, got, 1e-4, "%s", name)
}

func TestComputeLatestPeriodRatios(t *testing.T) {
	record, err := Compute([]models.FinancialPeriod{priorPeriod(2023), basePeriod(2024)}, snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, record.Periods)
	assert.Len(t, record.Values, len(models.RatioSpecs()))

	tests := []struct {
		name models.RatioName
		want float64
	}{
		{models.RatioPE, 20},
		{models.RatioPEG, 0.8},
		{models.RatioPriceToBook, 3},
		{models.RatioPriceToSales, 3},
		{models.RatioEVToEBITDA, 13.6},
		{models.RatioEVToRevenue, 3.4},
		{models.RatioPriceToFCF, 20},
		{models.RatioEarningsYield, 0.05},
		{models.RatioFCFYield, 0.05},
		{models.RatioRevenueGrowth, 0.25},
		{models.RatioEPSGrowth, 0.25},
		{models.RatioNetIncomeGrowth, 0.25},
		{models.RatioFCFGrowth, 0.25},
		{models.RatioRevenueCAGR, 0.25},
		{models.RatioGrossMargin, 0.4},
		{models.RatioOperatingMargin, 0.2},
		{models.RatioNetMargin, 0.15},
		{models.RatioFCFMargin, 0.15},
		{models.RatioROE, 0.15},
		{models.RatioROA, 0.075},
		{models.RatioCurrent, 2},
		{models.RatioQuick, 500.0 / 300.0},
		{models.RatioDebtToEquity, 0.5},
		{models.RatioDebtToAssets, 0.25},
		{models.RatioInterestCoverage, 10},
		{models.RatioDebtToEBITDA, 2},
		{models.RatioAltmanZ, 3.09},
		{models.RatioROIC, 200 * (1 - 40.0/190.0) / 1400},
		{models.RatioAssetTurnover, 0.5},
		{models.RatioCashConversion, 1.2},
		{models.RatioCashConversionCycle, 54.75 + 100.0/600.0*365 - 54.75},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assertRatio(t, record, tt.name, tt.want)
		})
	}
}

func TestComputeSinglePeriodLeavesGrowthUnavailable(t *testing.T) {
	record, err := Compute([]models.FinancialPeriod{basePeriod(2024)}, snapshot(), DefaultConfig())
	require.NoError(t, err)

	for _, name := range models.RatiosInCategory(models.CategoryGrowth) {
		assert.False(t, record.Get(name).Available(), "%s should be unavailable with one period", name)
	}
	assert.False(t, record.Get(models.RatioPEG).Available(), "PEG needs EPS growth")

	for _, name := range []models.RatioName{
		models.RatioPE, models.RatioCurrent, models.RatioROE, models.RatioGrossMargin, models.RatioAltmanZ,
	} {
		assert.True(t, record.Get(name).Available(), "%s should be computable from one period", name)
	}
}

func TestComputeZeroOrNegativeDenominators(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(p *models.FinancialPeriod)
		unavailable []models.RatioName
	}{
		{
			name: "negative earnings",
			mutate: func(p *models.FinancialPeriod) {
				p.NetIncome = models.Some(-50)
				p.DilutedEPS = models.Some(-0.5)
			},
			unavailable: []models.RatioName{models.RatioPE, models.RatioCashConversion},
		},
		{
			name:   "zero equity",
			mutate: func(p *models.FinancialPeriod) { p.TotalEquity = models.Some(0) },
			unavailable: []models.RatioName{
				models.RatioPriceToBook, models.RatioROE, models.RatioDebtToEquity,
			},
		},
		{
			name:   "negative equity",
			mutate: func(p *models.FinancialPeriod) { p.TotalEquity = models.Some(-200) },
			unavailable: []models.RatioName{
				models.RatioPriceToBook, models.RatioROE, models.RatioDebtToEquity,
			},
		},
		{
			name:   "zero revenue",
			mutate: func(p *models.FinancialPeriod) { p.Revenue = models.Some(0) },
			unavailable: []models.RatioName{
				models.RatioPriceToSales, models.RatioEVToRevenue, models.RatioGrossMargin,
				models.RatioOperatingMargin, models.RatioNetMargin, models.RatioFCFMargin,
				models.RatioAssetTurnover, models.RatioCashConversionCycle,
			},
		},
		{
			name:        "zero current liabilities",
			mutate:      func(p *models.FinancialPeriod) { p.CurrentLiabilities = models.Some(0) },
			unavailable: []models.RatioName{models.RatioCurrent, models.RatioQuick},
		},
		{
			name:        "negative EBITDA",
			mutate:      func(p *models.FinancialPeriod) { p.EBITDA = models.Some(-10) },
			unavailable: []models.RatioName{models.RatioEVToEBITDA, models.RatioDebtToEBITDA},
		},
		{
			name:        "zero interest expense",
			mutate:      func(p *models.FinancialPeriod) { p.InterestExpense = models.Some(0) },
			unavailable: []models.RatioName{models.RatioInterestCoverage},
		},
		{
			name:   "zero total assets",
			mutate: func(p *models.FinancialPeriod) { p.TotalAssets = models.Some(0) },
			unavailable: []models.RatioName{
				models.RatioROA, models.RatioDebtToAssets, models.RatioAltmanZ, models.RatioAssetTurnover,
			},
		},
		{
			name:        "missing inventory",
			mutate:      func(p *models.FinancialPeriod) { p.Inventory = models.None() },
			unavailable: []models.RatioName{models.RatioQuick, models.RatioCashConversionCycle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latest := basePeriod(2024)
			tt.mutate(&latest)

			record, err := Compute([]models.FinancialPeriod{priorPeriod(2023), latest}, snapshot(), DefaultConfig())
			require.NoError(t, err)

			for _, name := range tt.unavailable {
				assert.False(t, record.Get(name).Available(), "%s should be unavailable", name)
			}
			for name, v := range record.Values {
				if f, ok := v.Get(); ok {
					assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "%s is not finite", name)
				}
			}
		})
	}
}

func TestComputeGrowthNeedsPositiveBase(t *testing.T) {
	prior := priorPeriod(2023)
	prior.NetIncome = models.Some(-40)
	prior.DilutedEPS = models.Some(-0.4)

	record, err := Compute([]models.FinancialPeriod{prior, basePeriod(2024)}, snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, record.Get(models.RatioNetIncomeGrowth).Available())
	assert.False(t, record.Get(models.RatioEPSGrowth).Available())
	assert.False(t, record.Get(models.RatioPEG).Available())
	assert.True(t, record.Get(models.RatioRevenueGrowth).Available(), "revenue growth is independent of earnings")
}

func TestComputeCAGRUsesCappedSpan(t *testing.T) {
	revenues := []float64{500, 1000, 1100, 1210, 1331}
	periods := make([]models.FinancialPeriod, len(revenues))
	for i, rev := range revenues {
		periods[i] = basePeriod(2020 + i)
		periods[i].Revenue = models.Some(rev)
	}

	record, err := Compute(periods, snapshot(), DefaultConfig())
	require.NoError(t, err)

	// 2021 -> 2024 is the longest span within three years.
	assertRatio(t, record, models.RatioRevenueCAGR, 0.1)
	assertRatio(t, record, models.RatioRevenueGrowth, 0.1)

	cfg := DefaultConfig()
	cfg.CAGRMaxYears = 4
	record, err = Compute(periods, snapshot(), cfg)
	require.NoError(t, err)
	assertRatio(t, record, models.RatioRevenueCAGR, math.Pow(1331.0/500.0, 0.25)-1)
}

func TestComputeFallsBackToPriceTimesShares(t *testing.T) {
	snap := models.MarketSnapshot{Price: models.Some(30)}
	record, err := Compute([]models.FinancialPeriod{basePeriod(2024)}, snap, DefaultConfig())
	require.NoError(t, err)

	assertRatio(t, record, models.RatioPE, 20)

	record, err = Compute([]models.FinancialPeriod{basePeriod(2024)}, models.MarketSnapshot{}, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, record.Get(models.RatioPE).Available())
	assert.False(t, record.Get(models.RatioFCFYield).Available())
	assert.True(t, record.Get(models.RatioCurrent).Available())
}

func TestComputeInvalidInput(t *testing.T) {
	nanPeriod := basePeriod(2024)
	nanPeriod.Revenue = models.Some(math.NaN())

	infSnapshot := snapshot()
	infSnapshot.Price = models.Some(math.Inf(1))

	tests := []struct {
		name      string
		periods   []models.FinancialPeriod
		snapshot  models.MarketSnapshot
		wantField string
	}{
		{"empty sequence", nil, snapshot(), "periods"},
		{"non-finite line item", []models.FinancialPeriod{priorPeriod(2023), nanPeriod}, snapshot(), "periods[1].revenue"},
		{"out of order", []models.FinancialPeriod{basePeriod(2024), priorPeriod(2023)}, snapshot(), "periods[1].fiscal_year"},
		{"duplicate period", []models.FinancialPeriod{basePeriod(2024), basePeriod(2024)}, snapshot(), "periods[1].fiscal_year"},
		{"non-finite price", []models.FinancialPeriod{basePeriod(2024)}, infSnapshot, "market.price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.periods, tt.snapshot, DefaultConfig())
			require.Error(t, err)

			var invalid *models.InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantField, invalid.Field)
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	periods := []models.FinancialPeriod{priorPeriod(2023), basePeriod(2024)}
	first, err := Compute(periods, snapshot(), DefaultConfig())
	require.NoError(t, err)
	second, err := Compute(periods, snapshot(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEffectiveTaxRate(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name   string
		tax    models.Value
		pretax models.Value
		want   float64
	}{
		{"normal rate", models.Some(25), models.Some(100), 0.25},
		{"clamped high", models.Some(80), models.Some(100), 0.5},
		{"tax credit clamps to zero", models.Some(-10), models.Some(100), 0},
		{"pre-tax loss uses default", models.Some(5), models.Some(-100), 0.21},
		{"missing tax uses default", models.None(), models.Some(100), 0.21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.FinancialPeriod{IncomeTax: tt.tax, PretaxIncome: tt.pretax}
			assert.InDelta(t, tt.want, EffectiveTaxRate(p, cfg), 1e-9)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.CAGRMaxYears = 0
	_, err := Compute([]models.FinancialPeriod{basePeriod(2024)}, snapshot(), cfg)
	var invalid *models.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "ratios.cagr_max_years", invalid.Field)
}

func TestMarginTrend(t *testing.T) {
	periods := []models.FinancialPeriod{basePeriod(2020), basePeriod(2021), priorPeriod(2022), basePeriod(2023), basePeriod(2024)}
	periods[4].NetIncome = models.Some(-50)
	periods[3].Revenue = models.Some(0)

	trend := MarginTrend(periods, DefaultConfig().MarginTrendYears)
	require.Len(t, trend, 4)
	assert.Equal(t, 2021, trend[0].FiscalYear)
	assert.Equal(t, 2024, trend[3].FiscalYear)

	gross, ok := trend[0].GrossMargin.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.4, gross, 1e-9)

	net, _ := trend[1].NetMargin.Get()
	assert.InDelta(t, 0.15, net, 1e-9, "120 / 800")

	assert.False(t, trend[2].GrossMargin.Available(), "zero revenue")
	assert.False(t, trend[2].NetMargin.Available())

	net, ok = trend[3].NetMargin.Get()
	require.True(t, ok)
	assert.InDelta(t, -0.05, net, 1e-9, "losses give a negative margin")

	assert.Len(t, MarginTrend(periods[:2], 4), 2)
	assert.Empty(t, MarginTrend(nil, 4))
}
