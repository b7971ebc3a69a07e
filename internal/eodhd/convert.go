package eodhd

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/equitas/internal/models"
)

// ConvertOptions limits how much history is carried into the analysis.
type ConvertOptions struct {
	// MaxPeriods is the number of most recent fiscal years kept.
	MaxPeriods int
	// MaxQuarters is the number of most recent earnings quarters kept.
	MaxQuarters int
}

// DefaultConvertOptions returns the standard limits.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		MaxPeriods:  5,
		MaxQuarters: 8,
	}
}

// ToCompanyData converts a fundamentals payload and ascending daily prices
// into analysis input. Missing line items stay unavailable.
func ToCompanyData(ticker string, f *FundamentalsResponse, prices EODResponse, opts ConvertOptions) models.CompanyData {
	data := models.CompanyData{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Market: models.MarketSnapshot{
			Price:     models.None(),
			MarketCap: models.None(),
		},
	}
	if f == nil {
		f = &FundamentalsResponse{}
	}

	if g := f.General; g != nil {
		data.Name = g.Name
		data.Sector = firstNonEmpty(g.Sector, g.GicSector)
		data.Industry = firstNonEmpty(g.Industry, g.GicIndustry)
		data.Currency = g.CurrencyCode
	}
	if h := f.Highlights; h != nil && h.MarketCapitalization > 0 {
		data.Market.MarketCap = models.Finite(h.MarketCapitalization)
	}

	data.Periods = periods(f, opts.MaxPeriods)
	if len(data.Periods) > 0 && f.SharesStats != nil && f.SharesStats.SharesOutstanding > 0 {
		latest := &data.Periods[len(data.Periods)-1]
		if !latest.SharesOutstanding.Available() {
			latest.SharesOutstanding = models.Finite(f.SharesStats.SharesOutstanding)
		}
	}

	data.Sentiment.Prices = pricePoints(prices)
	if n := len(data.Sentiment.Prices); n > 0 {
		data.Market.Price = models.Some(data.Sentiment.Prices[n-1].Close)
		data.Market.AsOf = asOf(prices)
	}

	if r := f.AnalystRatings; r != nil {
		ratings := models.AnalystRatings{
			StrongBuy:  r.StrongBuy,
			Buy:        r.Buy,
			Hold:       r.Hold,
			Sell:       r.Sell,
			StrongSell: r.StrongSell,
		}
		if ratings.Total() > 0 {
			data.Sentiment.Analyst = &ratings
		}
	}
	if f.Earnings != nil {
		data.Sentiment.Earnings = surprises(f.Earnings.History, opts.MaxQuarters)
	}
	data.Sentiment.Insiders = insiderTrades(f.InsiderTransactions)
	if s := f.SharesStats; s != nil && (s.PercentInstitutions.Valid || s.PercentInsiders.Valid) {
		data.Sentiment.Ownership = &models.Ownership{
			InstitutionsPct: flexValue(s.PercentInstitutions),
			InsidersPct:     flexValue(s.PercentInsiders),
		}
	}

	for i := range data.Periods {
		data.Periods[i].Market = data.Market
	}
	return data
}

// periods builds the yearly periods present in any of the three statements,
// oldest first.
func periods(f *FundamentalsResponse, maxPeriods int) []models.FinancialPeriod {
	if f.Financials == nil {
		return nil
	}
	income := yearly(f.Financials.IncomeStatement)
	balance := yearly(f.Financials.BalanceSheet)
	cash := yearly(f.Financials.CashFlow)

	seen := map[string]bool{}
	var dates []string
	for _, statement := range []map[string]map[string]interface{}{income, balance, cash} {
		for date := range statement {
			if !seen[date] && len(date) >= 4 {
				seen[date] = true
				dates = append(dates, date)
			}
		}
	}
	sort.Strings(dates)
	if maxPeriods > 0 && len(dates) > maxPeriods {
		dates = dates[len(dates)-maxPeriods:]
	}

	annualEPS := map[int]models.Value{}
	if f.Earnings != nil {
		for _, e := range f.Earnings.Annual {
			if year, ok := yearOf(e.Date); ok && e.EPSActual != nil {
				annualEPS[year] = models.Finite(*e.EPSActual)
			}
		}
	}

	out := make([]models.FinancialPeriod, 0, len(dates))
	for _, date := range dates {
		year, _ := yearOf(date)
		is, bs, cf := income[date], balance[date], cash[date]

		p := models.FinancialPeriod{
			FiscalYear: year,
			EndDate:    date,

			Revenue:         number(is, "totalRevenue"),
			CostOfRevenue:   number(is, "costOfRevenue"),
			GrossProfit:     number(is, "grossProfit"),
			OperatingIncome: number(is, "operatingIncome"),
			EBIT:            number(is, "ebit"),
			EBITDA:          number(is, "ebitda"),
			NetIncome:       number(is, "netIncome", "netIncomeApplicableToCommonShares"),
			IncomeTax:       number(is, "incomeTaxExpense"),
			PretaxIncome:    number(is, "incomeBeforeTax"),
			InterestExpense: number(is, "interestExpense"),
			DilutedEPS:      annualEPS[year],

			OperatingCashFlow:  number(cf, "totalCashFromOperatingActivities"),
			CapitalExpenditure: number(cf, "capitalExpenditures"),

			TotalAssets:        number(bs, "totalAssets"),
			TotalLiabilities:   number(bs, "totalLiab"),
			TotalEquity:        number(bs, "totalStockholderEquity"),
			TotalDebt:          totalDebt(bs),
			Cash:               number(bs, "cash", "cashAndEquivalents", "cashAndShortTermInvestments"),
			CurrentAssets:      number(bs, "totalCurrentAssets"),
			CurrentLiabilities: number(bs, "totalCurrentLiabilities"),
			Inventory:          number(bs, "inventory"),
			Receivables:        number(bs, "netReceivables"),
			Payables:           number(bs, "accountsPayable"),
			RetainedEarnings:   number(bs, "retainedEarnings"),
			SharesOutstanding:  number(bs, "commonStockSharesOutstanding"),
		}
		// A fiscal year-end change can leave two statements in one year.
		if n := len(out); n > 0 && out[n-1].FiscalYear == year {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func yearly(s *FinancialStatement) map[string]map[string]interface{} {
	if s == nil {
		return nil
	}
	return s.Yearly
}

func totalDebt(row map[string]interface{}) models.Value {
	if v := number(row, "shortLongTermDebtTotal"); v.Available() {
		return v
	}
	short, okShort := number(row, "shortTermDebt").Get()
	long, okLong := number(row, "longTermDebt", "longTermDebtTotal").Get()
	switch {
	case okShort && okLong:
		return models.Some(short + long)
	case okLong:
		return models.Some(long)
	case okShort:
		return models.Some(short)
	}
	return models.None()
}

// number returns the first parseable value among keys. The API sends
// numbers as JSON numbers or strings and uses null or "None" for gaps.
func number(row map[string]interface{}, keys ...string) models.Value {
	if row == nil {
		return models.None()
	}
	for _, key := range keys {
		switch val := row[key].(type) {
		case float64:
			return models.Finite(val)
		case int:
			return models.Some(float64(val))
		case int64:
			return models.Some(float64(val))
		case string:
			val = strings.TrimSpace(val)
			if val == "" || val == "None" || val == "null" {
				continue
			}
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return models.Finite(f)
			}
		}
	}
	return models.None()
}

func surprises(history EarningsHistory, maxQuarters int) []models.EarningsSurprise {
	out := make([]models.EarningsSurprise, 0, len(history))
	for _, e := range history {
		if e.EPSActual == nil {
			continue // not yet reported
		}
		s := models.EarningsSurprise{
			Quarter:     e.Date,
			EPSActual:   models.Finite(*e.EPSActual),
			EPSEstimate: models.None(),
		}
		if e.EPSEstimate != nil {
			s.EPSEstimate = models.Finite(*e.EPSEstimate)
		}
		out = append(out, s)
	}
	if maxQuarters > 0 && len(out) > maxQuarters {
		out = out[len(out)-maxQuarters:]
	}
	return out
}

// insiderTrades keeps open-market purchases (code P) and sales (code S) as
// buys and sells; every other filing type is carried as TradeOther.
func insiderTrades(in InsiderTransactions) []models.InsiderTransaction {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.InsiderTransaction, 0, len(in))
	for _, t := range in {
		trade := models.InsiderTransaction{
			Date:  firstNonEmpty(t.TransactionDate, t.Date),
			Owner: t.OwnerName,
			Side:  models.TradeOther,
			Price: flexValue(t.TransactionPrice),
		}
		switch strings.ToUpper(strings.TrimSpace(t.TransactionCode)) {
		case "P":
			trade.Side = models.TradeBuy
		case "S":
			trade.Side = models.TradeSell
		}
		if t.TransactionAmount.Valid {
			trade.Shares = math.Abs(t.TransactionAmount.Value)
		}
		out = append(out, trade)
	}
	return out
}

func flexValue(f FlexFloat) models.Value {
	if !f.Valid {
		return models.None()
	}
	return models.Finite(f.Value)
}

func pricePoints(prices EODResponse) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(prices))
	for _, p := range prices {
		if p.Close <= 0 {
			continue
		}
		out = append(out, models.PricePoint{Date: p.DateStr, Close: p.Close})
	}
	return out
}

func yearOf(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	return year, err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// asOf returns the session date of the latest close.
func asOf(prices EODResponse) time.Time {
	if len(prices) == 0 {
		return time.Time{}
	}
	return prices[len(prices)-1].Date
}
