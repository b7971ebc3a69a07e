package models

import (
	"fmt"
	"math"
	"time"
)

// MarketSnapshot is the market state of a company at report time.
type MarketSnapshot struct {
	Price     Value     `json:"price"`
	MarketCap Value     `json:"market_cap"`
	AsOf      time.Time `json:"as_of"`
}

// FinancialPeriod holds one fiscal period's raw statement line items.
// Periods are immutable once built by the collector.
type FinancialPeriod struct {
	FiscalYear    int            `json:"fiscal_year"`
	FiscalQuarter int            `json:"fiscal_quarter,omitempty"` // 0 for annual periods
	EndDate       string         `json:"end_date"`
	Market        MarketSnapshot `json:"market"`

	// Income statement
	Revenue         Value `json:"revenue"`
	CostOfRevenue   Value `json:"cost_of_revenue"`
	GrossProfit     Value `json:"gross_profit"`
	OperatingIncome Value `json:"operating_income"`
	EBIT            Value `json:"ebit"`
	EBITDA          Value `json:"ebitda"`
	NetIncome       Value `json:"net_income"`
	IncomeTax       Value `json:"income_tax"`
	PretaxIncome    Value `json:"pretax_income"`
	InterestExpense Value `json:"interest_expense"`
	DilutedEPS      Value `json:"diluted_eps"`

	// Cash flow
	OperatingCashFlow  Value `json:"operating_cash_flow"`
	CapitalExpenditure Value `json:"capital_expenditure"`

	// Balance sheet
	TotalAssets        Value `json:"total_assets"`
	TotalLiabilities   Value `json:"total_liabilities"`
	TotalEquity        Value `json:"total_equity"`
	TotalDebt          Value `json:"total_debt"`
	Cash               Value `json:"cash"`
	CurrentAssets      Value `json:"current_assets"`
	CurrentLiabilities Value `json:"current_liabilities"`
	Inventory          Value `json:"inventory"`
	Receivables        Value `json:"receivables"`
	Payables           Value `json:"payables"`
	RetainedEarnings   Value `json:"retained_earnings"`
	SharesOutstanding  Value `json:"shares_outstanding"`
}

// Label identifies the period, e.g. "FY2024" or "FY2024Q3".
func (p FinancialPeriod) Label() string {
	if p.FiscalQuarter > 0 {
		return fmt.Sprintf("FY%dQ%d", p.FiscalYear, p.FiscalQuarter)
	}
	return fmt.Sprintf("FY%d", p.FiscalYear)
}

// LineItems returns the raw line items keyed by their JSON field name.
func (p FinancialPeriod) LineItems() map[string]Value {
	return map[string]Value{
		"revenue":             p.Revenue,
		"cost_of_revenue":     p.CostOfRevenue,
		"gross_profit":        p.GrossProfit,
		"operating_income":    p.OperatingIncome,
		"ebit":                p.EBIT,
		"ebitda":              p.EBITDA,
		"net_income":          p.NetIncome,
		"income_tax":          p.IncomeTax,
		"pretax_income":       p.PretaxIncome,
		"interest_expense":    p.InterestExpense,
		"diluted_eps":         p.DilutedEPS,
		"operating_cash_flow": p.OperatingCashFlow,
		"capital_expenditure": p.CapitalExpenditure,
		"total_assets":        p.TotalAssets,
		"total_liabilities":   p.TotalLiabilities,
		"total_equity":        p.TotalEquity,
		"total_debt":          p.TotalDebt,
		"cash":                p.Cash,
		"current_assets":      p.CurrentAssets,
		"current_liabilities": p.CurrentLiabilities,
		"inventory":           p.Inventory,
		"receivables":         p.Receivables,
		"payables":            p.Payables,
		"retained_earnings":   p.RetainedEarnings,
		"shares_outstanding":  p.SharesOutstanding,
		"market.price":        p.Market.Price,
		"market.market_cap":   p.Market.MarketCap,
	}
}

// AnalystRatings is the distribution of current analyst recommendations.
type AnalystRatings struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

// Total returns the number of ratings.
func (a AnalystRatings) Total() int {
	return a.StrongBuy + a.Buy + a.Hold + a.Sell + a.StrongSell
}

// EarningsSurprise is one reported quarter against its consensus estimate.
type EarningsSurprise struct {
	Quarter     string `json:"quarter"`
	EPSActual   Value  `json:"eps_actual"`
	EPSEstimate Value  `json:"eps_estimate"`
}

// SurprisePct returns (actual - estimate) / |estimate| * 100.
func (e EarningsSurprise) SurprisePct() Value {
	actual, ok1 := e.EPSActual.Get()
	estimate, ok2 := e.EPSEstimate.Get()
	if !ok1 || !ok2 || estimate == 0 {
		return None()
	}
	return Finite((actual - estimate) / math.Abs(estimate) * 100)
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// TradeSide is the direction of an insider trade.
type TradeSide string

const (
	TradeBuy   TradeSide = "buy"
	TradeSell  TradeSide = "sell"
	TradeOther TradeSide = "other" // grants, exercises, gifts
)

// InsiderTransaction is one reported insider trade.
type InsiderTransaction struct {
	Date   string    `json:"date"` // YYYY-MM-DD
	Owner  string    `json:"owner"`
	Side   TradeSide `json:"side"`
	Shares float64   `json:"shares"`
	Price  Value     `json:"price"`
}

// Ownership holds the percentage of shares held by institutions and insiders.
type Ownership struct {
	InstitutionsPct Value `json:"institutions_pct"`
	InsidersPct     Value `json:"insiders_pct"`
}

// SentimentInputs are the raw inputs of the sentiment signal.
type SentimentInputs struct {
	Analyst   *AnalystRatings      `json:"analyst,omitempty"`
	Earnings  []EarningsSurprise   `json:"earnings,omitempty"` // oldest to newest
	Prices    []PricePoint         `json:"prices,omitempty"`   // oldest to newest
	Insiders  []InsiderTransaction `json:"insiders,omitempty"` // oldest to newest
	Ownership *Ownership           `json:"ownership,omitempty"`
}

// CompanyData is everything the collector gathers for one ticker.
type CompanyData struct {
	Ticker    string            `json:"ticker"`
	Name      string            `json:"name"`
	Sector    string            `json:"sector"`
	Industry  string            `json:"industry"`
	Currency  string            `json:"currency"`
	Periods   []FinancialPeriod `json:"periods"` // oldest to newest
	Market    MarketSnapshot    `json:"market"`
	Sentiment SentimentInputs   `json:"sentiment"`
}
