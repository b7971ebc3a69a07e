package eodhd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// EODData represents end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse represents the response from the EOD endpoint.
type EODResponse []EODData

// FundamentalsResponse represents the sections of the fundamentals endpoint
// used by the analysis.
type FundamentalsResponse struct {
	General        *GeneralInfo    `json:"General"`
	Highlights     *Highlights     `json:"Highlights"`
	SharesStats    *SharesStats    `json:"SharesStats"`
	AnalystRatings *AnalystRatings `json:"AnalystRatings"`
	Earnings       *Earnings       `json:"Earnings"`
	Financials     *Financials     `json:"Financials"`

	InsiderTransactions InsiderTransactions `json:"InsiderTransactions"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code          string `json:"Code"`
	Type          string `json:"Type"`
	Name          string `json:"Name"`
	Exchange      string `json:"Exchange"`
	CurrencyCode  string `json:"CurrencyCode"`
	CountryName   string `json:"CountryName"`
	FiscalYearEnd string `json:"FiscalYearEnd"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	GicSector     string `json:"GicSector"`
	GicIndustry   string `json:"GicIndustry"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization float64 `json:"MarketCapitalization"`
	EBITDA               float64 `json:"EBITDA"`
	EarningsShare        float64 `json:"EarningsShare"`
	DilutedEpsTTM        float64 `json:"DilutedEpsTTM"`
	MostRecentQuarter    string  `json:"MostRecentQuarter"`
}

// SharesStats contains share count statistics.
type SharesStats struct {
	SharesOutstanding   float64   `json:"SharesOutstanding"`
	SharesFloat         float64   `json:"SharesFloat"`
	PercentInsiders     FlexFloat `json:"PercentInsiders"`
	PercentInstitutions FlexFloat `json:"PercentInstitutions"`
}

// FlexFloat is a number the API sends as a JSON number, a numeric string
// or null.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal number: %w", err)
	}
	v := number(map[string]interface{}{"v": raw}, "v")
	f.Value, f.Valid = v.Get()
	return nil
}

// InsiderTransaction is one Form 4 filing summary.
type InsiderTransaction struct {
	Date              string    `json:"date"`
	OwnerName         string    `json:"ownerName"`
	TransactionDate   string    `json:"transactionDate"`
	TransactionCode   string    `json:"transactionCode"` // P purchase, S sale
	TransactionAmount FlexFloat `json:"transactionAmount"`
	TransactionPrice  FlexFloat `json:"transactionPrice"`
	AcquiredDisposed  string    `json:"transactionAcquiredDisposed"`
}

// InsiderTransactions is ordered oldest to newest by transaction date.
type InsiderTransactions []InsiderTransaction

// UnmarshalJSON accepts the API's index-keyed object as well as an array.
func (t *InsiderTransactions) UnmarshalJSON(data []byte) error {
	entries, err := decodeDated[InsiderTransaction](data, func(e InsiderTransaction) string {
		if e.TransactionDate != "" {
			return e.TransactionDate
		}
		return e.Date
	})
	if err != nil {
		return fmt.Errorf("failed to unmarshal insider transactions: %w", err)
	}
	*t = entries
	return nil
}

// AnalystRatings contains analyst ratings data.
type AnalystRatings struct {
	Rating      float64 `json:"Rating"`
	TargetPrice float64 `json:"TargetPrice"`
	StrongBuy   int     `json:"StrongBuy"`
	Buy         int     `json:"Buy"`
	Hold        int     `json:"Hold"`
	Sell        int     `json:"Sell"`
	StrongSell  int     `json:"StrongSell"`
}

// Earnings contains earnings data.
type Earnings struct {
	History EarningsHistory `json:"History"`
	Annual  EarningsAnnual  `json:"Annual"`
}

// EarningsHistoryEntry represents a single reported or upcoming quarter.
// Upcoming quarters carry no actual.
type EarningsHistoryEntry struct {
	ReportDate      string   `json:"reportDate"`
	Date            string   `json:"date"`
	Currency        string   `json:"currency"`
	EPSActual       *float64 `json:"epsActual"`
	EPSEstimate     *float64 `json:"epsEstimate"`
	EPSDifference   *float64 `json:"epsDifference"`
	SurprisePercent *float64 `json:"surprisePercent"`
}

// EarningsHistory is ordered oldest to newest by period date.
type EarningsHistory []EarningsHistoryEntry

// UnmarshalJSON accepts the API's date-keyed object as well as an array.
func (h *EarningsHistory) UnmarshalJSON(data []byte) error {
	entries, err := decodeDated[EarningsHistoryEntry](data, func(e EarningsHistoryEntry) string { return e.Date })
	if err != nil {
		return fmt.Errorf("failed to unmarshal earnings history: %w", err)
	}
	*h = entries
	return nil
}

// EarningsAnnualEntry represents annual earnings.
type EarningsAnnualEntry struct {
	Date      string   `json:"date"`
	EPSActual *float64 `json:"epsActual"`
}

// EarningsAnnual is ordered oldest to newest by date.
type EarningsAnnual []EarningsAnnualEntry

// UnmarshalJSON accepts the API's date-keyed object as well as an array.
func (a *EarningsAnnual) UnmarshalJSON(data []byte) error {
	entries, err := decodeDated[EarningsAnnualEntry](data, func(e EarningsAnnualEntry) string { return e.Date })
	if err != nil {
		return fmt.Errorf("failed to unmarshal annual earnings: %w", err)
	}
	*a = entries
	return nil
}

// decodeDated decodes either an array or a date-keyed object of entries and
// sorts them by date. Empty objects and null decode to nil.
func decodeDated[T any](data []byte, dateOf func(T) string) ([]T, error) {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		var keyed map[string]T
		if jsonErr := json.Unmarshal(data, &keyed); jsonErr != nil {
			return nil, err
		}
		list = make([]T, 0, len(keyed))
		for _, entry := range keyed {
			list = append(list, entry)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return dateOf(list[i]) < dateOf(list[j])
	})
	return list, nil
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data.
// Line item values arrive as strings, numbers or null.
type FinancialStatement struct {
	Currency  string                            `json:"currency_symbol"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}
