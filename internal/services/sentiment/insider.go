package sentiment

import (
	"time"

	"github.com/ternarybob/equitas/internal/models"
)

const dateLayout = "2006-01-02"

// insiderActivity counts open-market insider trades inside the lookback
// window. The window ends at the latest close, or at the newest trade when
// there are no prices. Trades with unparseable dates are ignored.
func insiderActivity(trades []models.InsiderTransaction, prices []models.PricePoint, cfg Config) models.InsiderActivity {
	activity := models.InsiderActivity{Sentiment: models.InsiderUnknown}
	if len(trades) == 0 {
		return activity
	}

	var end time.Time
	if n := len(prices); n > 0 {
		end, _ = time.Parse(dateLayout, prices[n-1].Date)
	}
	if end.IsZero() {
		for _, t := range trades {
			if d, err := time.Parse(dateLayout, t.Date); err == nil && d.After(end) {
				end = d
			}
		}
	}
	if end.IsZero() {
		return activity
	}
	start := end.AddDate(0, 0, -cfg.InsiderLookbackDays)

	for _, t := range trades {
		d, err := time.Parse(dateLayout, t.Date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		activity.Transactions++
		switch t.Side {
		case models.TradeBuy:
			activity.Buys++
			activity.NetShares += t.Shares
		case models.TradeSell:
			activity.Sells++
			activity.NetShares -= t.Shares
		}
	}
	if activity.Transactions > 0 {
		activity.Sentiment = insiderSentiment(activity.Buys, activity.Sells)
	}
	return activity
}

func insiderSentiment(buys, sells int) models.InsiderSentiment {
	switch {
	case buys > 2*sells:
		return models.InsiderStronglyBullish
	case buys > sells:
		return models.InsiderBullish
	case sells > 2*buys:
		return models.InsiderStronglyBearish
	case sells > buys:
		return models.InsiderBearish
	default:
		return models.InsiderNeutral
	}
}
