package ratios

import "github.com/ternarybob/equitas/internal/models"

// MarginTrend returns gross, operating and net margins for the most recent
// years periods, oldest first. periods must be ordered oldest to newest.
func MarginTrend(periods []models.FinancialPeriod, years int) []models.MarginPoint {
	if years > 0 && len(periods) > years {
		periods = periods[len(periods)-years:]
	}
	out := make([]models.MarginPoint, 0, len(periods))
	for _, p := range periods {
		out = append(out, models.MarginPoint{
			FiscalYear:      p.FiscalYear,
			GrossMargin:     models.DivPositive(grossProfit(p), p.Revenue),
			OperatingMargin: models.DivPositive(p.OperatingIncome, p.Revenue),
			NetMargin:       models.DivPositive(p.NetIncome, p.Revenue),
		})
	}
	return out
}
