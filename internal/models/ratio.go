package models

import "sort"

// RatioName identifies a ratio in the closed ratio table.
type RatioName string

const (
	// Valuation
	RatioPE            RatioName = "pe_ratio"
	RatioPEG           RatioName = "peg_ratio"
	RatioPriceToBook   RatioName = "price_to_book"
	RatioPriceToSales  RatioName = "price_to_sales"
	RatioEVToEBITDA    RatioName = "ev_to_ebitda"
	RatioEVToRevenue   RatioName = "ev_to_revenue"
	RatioPriceToFCF    RatioName = "price_to_fcf"
	RatioEarningsYield RatioName = "earnings_yield"
	RatioFCFYield      RatioName = "fcf_yield"

	// Growth
	RatioRevenueGrowth   RatioName = "revenue_growth_yoy"
	RatioEPSGrowth       RatioName = "eps_growth_yoy"
	RatioNetIncomeGrowth RatioName = "net_income_growth_yoy"
	RatioFCFGrowth       RatioName = "fcf_growth_yoy"
	RatioRevenueCAGR     RatioName = "revenue_cagr"
	RatioEPSCAGR         RatioName = "eps_cagr"

	// Profitability
	RatioGrossMargin     RatioName = "gross_margin"
	RatioOperatingMargin RatioName = "operating_margin"
	RatioNetMargin       RatioName = "net_margin"
	RatioFCFMargin       RatioName = "fcf_margin"
	RatioROE             RatioName = "roe"
	RatioROA             RatioName = "roa"

	// Financial health
	RatioCurrent          RatioName = "current_ratio"
	RatioQuick            RatioName = "quick_ratio"
	RatioDebtToEquity     RatioName = "debt_to_equity"
	RatioDebtToAssets     RatioName = "debt_to_assets"
	RatioInterestCoverage RatioName = "interest_coverage"
	RatioDebtToEBITDA     RatioName = "debt_to_ebitda"
	RatioAltmanZ          RatioName = "altman_z"

	// Quality / moat
	RatioROIC                RatioName = "roic"
	RatioAssetTurnover       RatioName = "asset_turnover"
	RatioCashConversion      RatioName = "cash_conversion"
	RatioCashConversionCycle RatioName = "cash_conversion_cycle"
)

// Category is one of the six scoring categories.
type Category string

const (
	CategoryValuation         Category = "valuation"
	CategoryGrowth            Category = "growth"
	CategoryProfitability     Category = "profitability"
	CategoryFinancialHealth   Category = "financial_health"
	CategoryMomentumSentiment Category = "momentum_sentiment"
	CategoryQualityMoat       Category = "quality_moat"
)

// Categories lists the scoring categories in report order.
var Categories = []Category{
	CategoryValuation,
	CategoryGrowth,
	CategoryProfitability,
	CategoryFinancialHealth,
	CategoryMomentumSentiment,
	CategoryQualityMoat,
}

// Label returns the display name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryValuation:
		return "Valuation"
	case CategoryGrowth:
		return "Growth"
	case CategoryProfitability:
		return "Profitability"
	case CategoryFinancialHealth:
		return "Financial Health"
	case CategoryMomentumSentiment:
		return "Momentum/Sentiment"
	case CategoryQualityMoat:
		return "Quality/Moat"
	default:
		return string(c)
	}
}

// Direction says which way a ratio is favorable.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// Unit controls how a ratio value is rendered.
type Unit string

const (
	UnitMultiple Unit = "multiple" // 15.2x
	UnitPercent  Unit = "percent"  // stored as a fraction, 0.152 -> 15.2%
	UnitDays     Unit = "days"
	UnitScore    Unit = "score"
)

// Benchmark anchors an absolute scale for ratios that can be judged without
// peers. Poor maps to percentile 0 and Good to 100.
type Benchmark struct {
	Poor float64 `json:"poor"`
	Good float64 `json:"good"`
}

// RatioSpec is one row of the static ratio table.
type RatioSpec struct {
	Name      RatioName  `json:"name"`
	Label     string     `json:"label"`
	Category  Category   `json:"category"`
	Direction Direction  `json:"direction"`
	Unit      Unit       `json:"unit"`
	Weight    float64    `json:"weight"` // weight within the category
	Benchmark *Benchmark `json:"benchmark,omitempty"`
}

// Absolute reports whether the ratio is always scored on its benchmark.
// Balance-sheet health is judged on fixed thresholds, never on peers.
func (s RatioSpec) Absolute() bool {
	return s.Category == CategoryFinancialHealth && s.Benchmark != nil
}

var ratioTable = []RatioSpec{
	{RatioPE, "P/E ratio", CategoryValuation, LowerIsBetter, UnitMultiple, 1.5, nil},
	{RatioPEG, "PEG ratio", CategoryValuation, LowerIsBetter, UnitMultiple, 1.0, nil},
	{RatioPriceToBook, "Price/book", CategoryValuation, LowerIsBetter, UnitMultiple, 1.0, nil},
	{RatioPriceToSales, "Price/sales", CategoryValuation, LowerIsBetter, UnitMultiple, 1.0, nil},
	{RatioEVToEBITDA, "EV/EBITDA", CategoryValuation, LowerIsBetter, UnitMultiple, 1.5, nil},
	{RatioEVToRevenue, "EV/revenue", CategoryValuation, LowerIsBetter, UnitMultiple, 0.5, nil},
	{RatioPriceToFCF, "Price/FCF", CategoryValuation, LowerIsBetter, UnitMultiple, 1.0, nil},
	{RatioEarningsYield, "Earnings yield", CategoryValuation, HigherIsBetter, UnitPercent, 0.5, nil},
	{RatioFCFYield, "FCF yield", CategoryValuation, HigherIsBetter, UnitPercent, 1.0, nil},

	{RatioRevenueGrowth, "Revenue growth", CategoryGrowth, HigherIsBetter, UnitPercent, 1.5, nil},
	{RatioEPSGrowth, "EPS growth", CategoryGrowth, HigherIsBetter, UnitPercent, 1.0, nil},
	{RatioNetIncomeGrowth, "Net income growth", CategoryGrowth, HigherIsBetter, UnitPercent, 0.5, nil},
	{RatioFCFGrowth, "FCF growth", CategoryGrowth, HigherIsBetter, UnitPercent, 0.5, nil},
	{RatioRevenueCAGR, "Revenue CAGR", CategoryGrowth, HigherIsBetter, UnitPercent, 1.0, nil},
	{RatioEPSCAGR, "EPS CAGR", CategoryGrowth, HigherIsBetter, UnitPercent, 1.0, nil},

	{RatioGrossMargin, "Gross margin", CategoryProfitability, HigherIsBetter, UnitPercent, 1.0, nil},
	{RatioOperatingMargin, "Operating margin", CategoryProfitability, HigherIsBetter, UnitPercent, 1.5, nil},
	{RatioNetMargin, "Net margin", CategoryProfitability, HigherIsBetter, UnitPercent, 1.0, nil},
	{RatioFCFMargin, "FCF margin", CategoryProfitability, HigherIsBetter, UnitPercent, 1.0, nil},
	{RatioROE, "Return on equity", CategoryProfitability, HigherIsBetter, UnitPercent, 1.5, nil},
	{RatioROA, "Return on assets", CategoryProfitability, HigherIsBetter, UnitPercent, 1.0, nil},

	{RatioCurrent, "Current ratio", CategoryFinancialHealth, HigherIsBetter, UnitMultiple, 1.0, &Benchmark{Poor: 0.8, Good: 2.0}},
	{RatioQuick, "Quick ratio", CategoryFinancialHealth, HigherIsBetter, UnitMultiple, 1.0, &Benchmark{Poor: 0.5, Good: 1.5}},
	{RatioDebtToEquity, "Debt/equity", CategoryFinancialHealth, LowerIsBetter, UnitMultiple, 1.5, &Benchmark{Poor: 2.0, Good: 0.3}},
	{RatioDebtToAssets, "Debt/assets", CategoryFinancialHealth, LowerIsBetter, UnitPercent, 0.5, &Benchmark{Poor: 0.6, Good: 0.1}},
	{RatioInterestCoverage, "Interest coverage", CategoryFinancialHealth, HigherIsBetter, UnitMultiple, 1.0, &Benchmark{Poor: 1.5, Good: 10.0}},
	{RatioDebtToEBITDA, "Debt/EBITDA", CategoryFinancialHealth, LowerIsBetter, UnitMultiple, 1.0, &Benchmark{Poor: 4.0, Good: 1.0}},
	{RatioAltmanZ, "Altman Z-score", CategoryFinancialHealth, HigherIsBetter, UnitScore, 1.0, &Benchmark{Poor: 1.8, Good: 3.0}},

	{RatioROIC, "ROIC", CategoryQualityMoat, HigherIsBetter, UnitPercent, 1.5, &Benchmark{Poor: 0.05, Good: 0.20}},
	{RatioAssetTurnover, "Asset turnover", CategoryQualityMoat, HigherIsBetter, UnitMultiple, 0.5, nil},
	{RatioCashConversion, "Cash conversion", CategoryQualityMoat, HigherIsBetter, UnitMultiple, 1.0, &Benchmark{Poor: 0.5, Good: 1.2}},
	{RatioCashConversionCycle, "Cash conversion cycle", CategoryQualityMoat, LowerIsBetter, UnitDays, 0.5, nil},
}

var ratioIndex = func() map[RatioName]RatioSpec {
	index := make(map[RatioName]RatioSpec, len(ratioTable))
	for _, spec := range ratioTable {
		index[spec.Name] = spec
	}
	return index
}()

// RatioSpecs returns a copy of the ratio table in table order.
func RatioSpecs() []RatioSpec {
	specs := make([]RatioSpec, len(ratioTable))
	copy(specs, ratioTable)
	return specs
}

// LookupRatio returns the table row for name.
func LookupRatio(name RatioName) (RatioSpec, bool) {
	spec, ok := ratioIndex[name]
	return spec, ok
}

// RatiosInCategory returns the ratio names of one category in table order.
func RatiosInCategory(category Category) []RatioName {
	var names []RatioName
	for _, spec := range ratioTable {
		if spec.Category == category {
			names = append(names, spec.Name)
		}
	}
	return names
}

// RatioRecord maps every ratio in the table to its value for one company.
type RatioRecord struct {
	Ticker  string              `json:"ticker"`
	Periods int                 `json:"periods"`
	Values  map[RatioName]Value `json:"values"`
}

// Get returns the value of name, unavailable when the record lacks it.
func (r RatioRecord) Get(name RatioName) Value {
	if r.Values == nil {
		return None()
	}
	return r.Values[name]
}

// Names returns the ratio names held by the record in sorted order.
func (r RatioRecord) Names() []RatioName {
	names := make([]RatioName, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// AvailableCount returns the number of present values.
func (r RatioRecord) AvailableCount() int {
	n := 0
	for _, v := range r.Values {
		if v.Available() {
			n++
		}
	}
	return n
}
