package thesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/equitas/internal/models"
)

func ratioRecord(values map[models.RatioName]float64) models.RatioRecord {
	r := models.RatioRecord{Ticker: "SUBJ", Periods: 2, Values: map[models.RatioName]models.Value{}}
	for name, v := range values {
		r.Values[name] = models.Some(v)
	}
	return r
}

func TestMetricsToMonitor(t *testing.T) {
	tests := []struct {
		name     string
		industry string
		sector   string
		ratios   map[models.RatioName]float64
		want     []string
	}{
		{
			name:     "software at a modest multiple",
			industry: "Software - Application",
			sector:   "Technology",
			ratios:   map[models.RatioName]float64{models.RatioPE: 22, models.RatioDebtToEquity: 0.3},
			want: []string{
				"Quarterly revenue growth and guidance",
				"Operating margin trends",
				"Free cash flow generation",
				"Customer acquisition and retention rates",
				"R&D spending as % of revenue",
			},
		},
		{
			name:     "semiconductor wins over the technology sector",
			industry: "Semiconductors",
			sector:   "Technology",
			ratios:   map[models.RatioName]float64{models.RatioPE: 45},
			want: []string{
				"Quarterly revenue growth and guidance",
				"Operating margin trends",
				"Free cash flow generation",
				"Data center and AI segment growth",
				"Gross margin trends by segment",
				"Earnings growth to justify premium valuation",
			},
		},
		{
			name:     "leveraged utility",
			industry: "Utilities - Regulated Electric",
			sector:   "Utilities",
			ratios:   map[models.RatioName]float64{models.RatioPE: 18, models.RatioDebtToEquity: 1.6},
			want: []string{
				"Quarterly revenue growth and guidance",
				"Operating margin trends",
				"Free cash flow generation",
				"Debt reduction progress and interest expense",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MetricsToMonitor(tt.industry, tt.sector, ratioRecord(tt.ratios), DefaultConfig())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetricsToMonitorCap(t *testing.T) {
	record := ratioRecord(map[models.RatioName]float64{models.RatioPE: 60, models.RatioDebtToEquity: 2})

	all := MetricsToMonitor("Banks - Regional", "Financial Services", record, DefaultConfig())
	assert.Len(t, all, 7)
	assert.Equal(t, "Net interest margin", all[3])

	cfg := DefaultConfig()
	cfg.MaxMonitored = 4
	assert.Len(t, MetricsToMonitor("Banks - Regional", "Financial Services", record, cfg), 4)

	cfg.MaxMonitored = -2
	assert.Empty(t, MetricsToMonitor("", "", record, cfg))
}
