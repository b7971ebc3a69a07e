package ratios

import (
	"math"

	"github.com/ternarybob/equitas/internal/models"
)

// lineItem selects one raw value from a period.
type lineItem func(p models.FinancialPeriod) models.Value

// marketCap prefers the snapshot's capitalisation and falls back to
// price times the latest share count.
func marketCap(latest models.FinancialPeriod, snapshot models.MarketSnapshot) models.Value {
	if mc, ok := snapshot.MarketCap.Get(); ok && mc > 0 {
		return snapshot.MarketCap
	}
	return positive(product(snapshot.Price, latest.SharesOutstanding))
}

func peRatio(latest models.FinancialPeriod, snapshot models.MarketSnapshot, mcap models.Value) models.Value {
	if pe := models.DivPositive(mcap, latest.NetIncome); pe.Available() {
		return pe
	}
	return models.DivPositive(snapshot.Price, latest.DilutedEPS)
}

// pegRatio is P/E over EPS growth expressed in percent. Undefined for
// negative earnings or shrinking EPS.
func pegRatio(latest models.FinancialPeriod, prior *models.FinancialPeriod, snapshot models.MarketSnapshot, mcap models.Value) models.Value {
	pe := peRatio(latest, snapshot, mcap)
	g, ok := growthOf(prior, latest, epsOf).Get()
	if !ok || g <= 0 {
		return models.None()
	}
	return models.Div(pe, models.Some(g*100))
}

func enterpriseValue(latest models.FinancialPeriod, mcap models.Value) models.Value {
	mc, ok1 := mcap.Get()
	debt, ok2 := latest.TotalDebt.Get()
	cash, ok3 := latest.Cash.Get()
	if !ok1 || !ok2 || !ok3 {
		return models.None()
	}
	return models.Finite(mc + debt - cash)
}

func evMultiple(latest models.FinancialPeriod, mcap, den models.Value) models.Value {
	ev := positive(enterpriseValue(latest, mcap))
	return models.DivPositive(ev, den)
}

// freeCashFlow is operating cash flow less capital expenditure. Providers
// report capex with either sign, so its magnitude is used.
func freeCashFlow(p models.FinancialPeriod) models.Value {
	ocf, ok1 := p.OperatingCashFlow.Get()
	capex, ok2 := p.CapitalExpenditure.Get()
	if !ok1 || !ok2 {
		return models.None()
	}
	return models.Finite(ocf - math.Abs(capex))
}

func epsOf(p models.FinancialPeriod) models.Value {
	if p.DilutedEPS.Available() {
		return p.DilutedEPS
	}
	return models.DivPositive(p.NetIncome, p.SharesOutstanding)
}

func grossProfit(p models.FinancialPeriod) models.Value {
	if p.GrossProfit.Available() {
		return p.GrossProfit
	}
	rev, ok1 := p.Revenue.Get()
	cogs, ok2 := p.CostOfRevenue.Get()
	if !ok1 || !ok2 {
		return models.None()
	}
	return models.Finite(rev - cogs)
}

func costOfRevenue(p models.FinancialPeriod) models.Value {
	if p.CostOfRevenue.Available() {
		return p.CostOfRevenue
	}
	rev, ok1 := p.Revenue.Get()
	gp, ok2 := p.GrossProfit.Get()
	if !ok1 || !ok2 {
		return models.None()
	}
	return models.Finite(rev - gp)
}

func ebitOf(p models.FinancialPeriod) models.Value {
	if p.EBIT.Available() {
		return p.EBIT
	}
	return p.OperatingIncome
}

// growthOf is the year-over-year change of item relative to a positive base.
func growthOf(prior *models.FinancialPeriod, latest models.FinancialPeriod, item lineItem) models.Value {
	if prior == nil {
		return models.None()
	}
	base, ok1 := item(*prior).Get()
	cur, ok2 := item(latest).Get()
	if !ok1 || !ok2 || base <= 0 {
		return models.None()
	}
	return models.Finite((cur - base) / base)
}

// cagrOf is the compound annual growth of item over the available span,
// capped at maxYears. Both endpoints must be positive.
func cagrOf(periods []models.FinancialPeriod, maxYears int, item lineItem) models.Value {
	n := len(periods)
	if n < 2 {
		return models.None()
	}
	last := periods[n-1]
	firstIdx := n - 2
	for i := 0; i < n-1; i++ {
		if yearsBetween(periods[i], last, n-1-i) <= float64(maxYears) {
			firstIdx = i
			break
		}
	}
	first := periods[firstIdx]
	years := yearsBetween(first, last, n-1-firstIdx)
	if years <= 0 {
		return models.None()
	}
	start, ok1 := item(first).Get()
	end, ok2 := item(last).Get()
	if !ok1 || !ok2 || start <= 0 || end <= 0 {
		return models.None()
	}
	return models.Finite(CAGR(start, end, years))
}

// yearsBetween measures the span between two periods in years. Without
// fiscal years it falls back to the index distance, which is only meaningful
// for annual periods.
func yearsBetween(from, to models.FinancialPeriod, indexDistance int) float64 {
	if from.FiscalYear > 0 && to.FiscalYear > 0 {
		years := float64(to.FiscalYear - from.FiscalYear)
		years += float64(to.FiscalQuarter-from.FiscalQuarter) / 4
		return years
	}
	return float64(indexDistance)
}

func quickRatio(p models.FinancialPeriod) models.Value {
	ca, ok1 := p.CurrentAssets.Get()
	inv, ok2 := p.Inventory.Get()
	if !ok1 || !ok2 {
		return models.None()
	}
	return models.DivPositive(models.Finite(ca-inv), p.CurrentLiabilities)
}

// interestCoverage uses the magnitude of interest expense since providers
// disagree on its sign.
func interestCoverage(p models.FinancialPeriod) models.Value {
	interest, ok := p.InterestExpense.Get()
	if !ok {
		return models.None()
	}
	return models.DivPositive(ebitOf(p), models.Some(math.Abs(interest)))
}

// altmanZ is the original public-manufacturer Z-score:
// 1.2 WC/TA + 1.4 RE/TA + 3.3 EBIT/TA + 0.6 MVE/TL + 1.0 Sales/TA.
func altmanZ(p models.FinancialPeriod, mcap models.Value) models.Value {
	ta, ok := p.TotalAssets.Get()
	if !ok || ta <= 0 {
		return models.None()
	}
	tl, ok := p.TotalLiabilities.Get()
	if !ok || tl <= 0 {
		return models.None()
	}
	ca, ok1 := p.CurrentAssets.Get()
	cl, ok2 := p.CurrentLiabilities.Get()
	re, ok3 := p.RetainedEarnings.Get()
	ebit, ok4 := ebitOf(p).Get()
	mve, ok5 := mcap.Get()
	sales, ok6 := p.Revenue.Get()
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return models.None()
	}
	z := 1.2*(ca-cl)/ta +
		1.4*re/ta +
		3.3*ebit/ta +
		0.6*mve/tl +
		1.0*sales/ta
	return models.Finite(z)
}

// roic is NOPAT over invested capital (debt + equity - cash).
func roic(p models.FinancialPeriod, cfg Config) models.Value {
	ebit, ok := ebitOf(p).Get()
	if !ok {
		return models.None()
	}
	debt, ok1 := p.TotalDebt.Get()
	equity, ok2 := p.TotalEquity.Get()
	cash, ok3 := p.Cash.Get()
	if !ok1 || !ok2 || !ok3 {
		return models.None()
	}
	invested := debt + equity - cash
	if invested <= 0 {
		return models.None()
	}
	nopat := ebit * (1 - EffectiveTaxRate(p, cfg))
	return models.Finite(nopat / invested)
}

// EffectiveTaxRate is income tax over pre-tax income clamped to
// [0, MaxTaxRate], or the default rate when undefined.
func EffectiveTaxRate(p models.FinancialPeriod, cfg Config) float64 {
	rate, ok := models.DivPositive(p.IncomeTax, p.PretaxIncome).Get()
	if !ok {
		return cfg.DefaultTaxRate
	}
	return models.ClampFloat64(rate, 0, cfg.MaxTaxRate)
}

// cashConversionCycle is DSO + DIO - DPO in days.
func cashConversionCycle(p models.FinancialPeriod, daysPerYear float64) models.Value {
	cogs := costOfRevenue(p)
	dso, ok1 := models.DivPositive(p.Receivables, p.Revenue).Get()
	dio, ok2 := models.DivPositive(p.Inventory, cogs).Get()
	dpo, ok3 := models.DivPositive(p.Payables, cogs).Get()
	if !ok1 || !ok2 || !ok3 {
		return models.None()
	}
	return models.Finite((dso + dio - dpo) * daysPerYear)
}

func product(a, b models.Value) models.Value {
	x, ok1 := a.Get()
	y, ok2 := b.Get()
	if !ok1 || !ok2 {
		return models.None()
	}
	return models.Finite(x * y)
}

func positive(v models.Value) models.Value {
	if x, ok := v.Get(); !ok || x <= 0 {
		return models.None()
	}
	return v
}
