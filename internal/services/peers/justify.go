package peers

import (
	"math"

	"github.com/ternarybob/equitas/internal/models"
)

// justificationRatios are weighed against the peer average when judging a
// premium or discount.
var justificationRatios = []models.RatioName{
	models.RatioRevenueGrowth,
	models.RatioEPSGrowth,
	models.RatioNetMargin,
	models.RatioROE,
	models.RatioROA,
}

// JustifyValuation checks whether growth and profitability explain the
// subject's premium or discount to peers. A ratio supports the valuation
// when it beats the peer average by more than cfg.JustificationBandPct and
// counts against it when it trails by as much.
func JustifyValuation(subject models.RatioRecord, group models.PeerGroup, rv models.RelativeValuation, cfg Config) models.ValuationJustification {
	result := models.ValuationJustification{
		Supporting: []models.JustificationFactor{},
		Against:    []models.JustificationFactor{},
	}

	for _, name := range justificationRatios {
		s, ok := subject.Get(name).Get()
		if !ok {
			continue
		}
		avg, ok := Mean(peerValues(name, group)).Get()
		if !ok || avg == 0 {
			continue
		}
		factor := models.JustificationFactor{
			Name:         name,
			SubjectValue: s,
			PeerAverage:  avg,
			DiffPct:      (s - avg) / math.Abs(avg) * 100,
		}
		switch {
		case factor.DiffPct > cfg.JustificationBandPct:
			result.Supporting = append(result.Supporting, factor)
		case factor.DiffPct < -cfg.JustificationBandPct:
			result.Against = append(result.Against, factor)
		}
	}

	result.Conclusion = conclude(rv, len(result.Supporting), len(result.Against), cfg)
	return result
}

func conclude(rv models.RelativeValuation, supporting, against int, cfg Config) models.JustificationConclusion {
	premium, ok := rv.AvgPremiumPct.Get()
	switch {
	case !ok:
		return models.JustificationNoData
	case premium > cfg.PremiumPct:
		switch {
		case supporting > against:
			return models.PremiumJustified
		case against > supporting:
			return models.PremiumUnjustified
		}
		return models.PremiumMixed
	case premium < cfg.DiscountPct:
		switch {
		case against > supporting:
			return models.DiscountJustified
		case supporting > against:
			return models.DiscountUnjustified
		}
		return models.DiscountMixed
	}
	return models.ValuationInLine
}
