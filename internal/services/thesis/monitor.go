package thesis

import (
	"strings"

	"github.com/ternarybob/equitas/internal/models"
)

var baseMonitors = []string{
	"Quarterly revenue growth and guidance",
	"Operating margin trends",
	"Free cash flow generation",
}

var industryMonitors = []struct {
	keywords []string
	metrics  []string
}{
	{[]string{"semiconductor"}, []string{"Data center and AI segment growth", "Gross margin trends by segment"}},
	{[]string{"software", "tech"}, []string{"Customer acquisition and retention rates", "R&D spending as % of revenue"}},
	{[]string{"retail"}, []string{"Same-store sales growth", "Inventory turnover"}},
	{[]string{"bank", "financial", "insurance"}, []string{"Net interest margin", "Loan loss provisions"}},
}

// MetricsToMonitor lists what to track after the analysis: standing items,
// industry specific items, and follow-ups when the P/E or leverage is
// stretched. The list is capped at cfg.MaxMonitored.
func MetricsToMonitor(industry, sector string, record models.RatioRecord, cfg Config) []string {
	metrics := append([]string{}, baseMonitors...)

	text := strings.ToLower(industry + " " + sector)
	for _, group := range industryMonitors {
		if containsAny(text, group.keywords) {
			metrics = append(metrics, group.metrics...)
			break
		}
	}

	if pe, ok := record.Get(models.RatioPE).Get(); ok && pe > cfg.MonitorPEAbove {
		metrics = append(metrics, "Earnings growth to justify premium valuation")
	}
	if de, ok := record.Get(models.RatioDebtToEquity).Get(); ok && de > cfg.MonitorDebtToEquityAbove {
		metrics = append(metrics, "Debt reduction progress and interest expense")
	}

	limit := cfg.MaxMonitored
	if limit < 0 {
		limit = 0
	}
	if len(metrics) > limit {
		metrics = metrics[:limit]
	}
	return metrics
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
