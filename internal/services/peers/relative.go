package peers

import (
	"sort"

	"github.com/ternarybob/equitas/internal/models"
)

// valuationMultiples are compared against the peer median.
var valuationMultiples = []models.RatioName{
	models.RatioPE,
	models.RatioPriceToBook,
	models.RatioPriceToSales,
	models.RatioEVToEBITDA,
}

// RelativeValuation compares the subject's valuation multiples with the
// peer medians. Only positive multiples take part.
func RelativeValuation(subject models.RatioRecord, group models.PeerGroup, cfg Config) models.RelativeValuation {
	result := models.RelativeValuation{
		Multiples:     []models.MultipleComparison{},
		AvgPremiumPct: models.None(),
	}

	sum := 0.0
	for _, name := range valuationMultiples {
		s, ok := subject.Get(name).Get()
		if !ok || s <= 0 {
			continue
		}
		values := positiveOnly(peerValues(name, group))
		median, ok := Median(values).Get()
		if !ok || median <= 0 {
			continue
		}
		premium := (s/median - 1) * 100
		result.Multiples = append(result.Multiples, models.MultipleComparison{
			Name:           name,
			SubjectValue:   s,
			PeerMedian:     median,
			PremiumPct:     premium,
			Assessment:     Assess(premium, cfg),
			PeerValueCount: len(values),
		})
		sum += premium
	}

	if len(result.Multiples) > 0 {
		avg := sum / float64(len(result.Multiples))
		result.AvgPremiumPct = models.Some(avg)
		result.Assessment = Assess(avg, cfg)
	}
	return result
}

// Assess maps a premium (positive) or discount (negative) to its band.
func Assess(premiumPct float64, cfg Config) models.ValuationAssessment {
	switch {
	case premiumPct < cfg.SignificantDiscountPct:
		return models.AssessmentSignificantDiscount
	case premiumPct < cfg.DiscountPct:
		return models.AssessmentDiscount
	case premiumPct <= cfg.PremiumPct:
		return models.AssessmentInLine
	case premiumPct <= cfg.SignificantPremiumPct:
		return models.AssessmentPremium
	default:
		return models.AssessmentSignificantPremium
	}
}

func positiveOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
