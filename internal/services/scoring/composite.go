// Package scoring turns ranked ratios and the sentiment signal into six
// category scores, a weighted total and a recommendation label.
// Functions are stateless and perform no I/O.
package scoring

import (
	"fmt"
	"math"

	"github.com/ternarybob/equitas/internal/models"
)

// Category weights
const (
	WeightValuation         = 0.25
	WeightGrowth            = 0.20
	WeightProfitability     = 0.20
	WeightFinancialHealth   = 0.15
	WeightMomentumSentiment = 0.10
	WeightQualityMoat       = 0.10
)

// Label thresholds
const (
	ThresholdStrongBuy = 8.0
	ThresholdBuy       = 6.5
	ThresholdHold      = 5.0
	ThresholdSell      = 3.5
)

// NeutralScore is assigned to a category with no available inputs.
const NeutralScore = 5.0

const weightTolerance = 1e-9

// Config holds the category weights and label thresholds.
type Config struct {
	Weights map[models.Category]float64

	StrongBuy float64
	Buy       float64
	Hold      float64
	Sell      float64
}

// DefaultConfig returns the standard weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: map[models.Category]float64{
			models.CategoryValuation:         WeightValuation,
			models.CategoryGrowth:            WeightGrowth,
			models.CategoryProfitability:     WeightProfitability,
			models.CategoryFinancialHealth:   WeightFinancialHealth,
			models.CategoryMomentumSentiment: WeightMomentumSentiment,
			models.CategoryQualityMoat:       WeightQualityMoat,
		},
		StrongBuy: ThresholdStrongBuy,
		Buy:       ThresholdBuy,
		Hold:      ThresholdHold,
		Sell:      ThresholdSell,
	}
}

// Validate checks every category has a non-negative weight, the weights sum
// to 1 and the thresholds descend.
func (c Config) Validate() error {
	sum := 0.0
	for _, category := range models.Categories {
		w, ok := c.Weights[category]
		if !ok {
			return models.NewInvalidInput("scoring.weights."+string(category), "missing weight")
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return models.NewInvalidInput("scoring.weights."+string(category), "must be a non-negative number, got %g", w)
		}
		sum += w
	}
	if len(c.Weights) != len(models.Categories) {
		return models.NewInvalidInput("scoring.weights", "unknown category in weights")
	}
	if math.Abs(sum-1) > weightTolerance {
		return models.NewInvalidInput("scoring.weights", "must sum to 1.0, got %g", sum)
	}
	if !(c.StrongBuy > c.Buy && c.Buy > c.Hold && c.Hold > c.Sell) {
		return models.NewInvalidInput("scoring.thresholds", "thresholds must descend from strong buy to sell")
	}
	return nil
}

// Score computes the category scores and the weighted total.
//
// A category score is the weight-normalized mean of its available members'
// percentiles divided by 10. Momentum/sentiment members are the sentiment
// sub-signals, already on the 0-10 scale. A category without available
// members scores NeutralScore and is flagged low confidence.
func Score(ranked map[models.RatioName]models.RankedRatio, signal models.SentimentSignal, cfg Config) (models.InvestmentScore, error) {
	if err := cfg.Validate(); err != nil {
		return models.InvestmentScore{}, err
	}

	result := models.InvestmentScore{
		Categories: make([]models.CategoryScore, 0, len(models.Categories)),
	}

	sum := 0.0
	for _, category := range models.Categories {
		var cs models.CategoryScore
		if category == models.CategoryMomentumSentiment {
			cs = sentimentCategory(signal)
		} else {
			cs = ratioCategory(category, ranked)
		}
		cs.Weight = cfg.Weights[category]
		cs.Weighted = cs.Weight * cs.Score
		sum += cs.Weighted
		result.Categories = append(result.Categories, cs)
	}

	result.Total = Round1(models.ClampFloat64(sum, 0, 10))
	result.Recommendation = Recommend(result.Total, cfg)
	return result, nil
}

func ratioCategory(category models.Category, ranked map[models.RatioName]models.RankedRatio) models.CategoryScore {
	var contributions []models.Contribution
	lowConfidence := 0
	for _, name := range models.RatiosInCategory(category) {
		r, ok := ranked[name]
		if !ok || !r.Scorable() {
			continue
		}
		spec, _ := models.LookupRatio(name)
		p, _ := r.Percentile.Get()
		contributions = append(contributions, models.Contribution{
			Name:   string(name),
			Input:  p,
			Score:  p / 10,
			Weight: spec.Weight,
		})
		if r.LowConfidence {
			lowConfidence++
		}
	}

	cs := combine(category, contributions)
	// Most of the inputs rest on thin peer data.
	if len(contributions) > 0 && lowConfidence*2 > len(contributions) {
		cs.LowConfidence = true
	}
	return cs
}

func sentimentCategory(signal models.SentimentSignal) models.CategoryScore {
	var contributions []models.Contribution
	for _, component := range models.SentimentComponents {
		v, ok := signal.Component(component).Get()
		w := signal.Weights[component]
		if !ok || w <= 0 {
			continue
		}
		contributions = append(contributions, models.Contribution{
			Name:   string(component),
			Input:  v,
			Score:  v,
			Weight: w,
		})
	}
	return combine(models.CategoryMomentumSentiment, contributions)
}

// combine normalizes the contribution weights and averages their scores.
func combine(category models.Category, contributions []models.Contribution) models.CategoryScore {
	total := 0.0
	for _, c := range contributions {
		total += c.Weight
	}
	if len(contributions) == 0 || total <= 0 {
		return models.CategoryScore{
			Category:      category,
			Score:         NeutralScore,
			Contributions: []models.Contribution{},
			LowConfidence: true,
		}
	}

	score := 0.0
	for i := range contributions {
		contributions[i].Weight /= total
		score += contributions[i].Weight * contributions[i].Score
	}
	return models.CategoryScore{
		Category:      category,
		Score:         models.ClampFloat64(score, 0, 10),
		Contributions: contributions,
	}
}

// Recommend assigns the label for a total score.
func Recommend(total float64, cfg Config) models.Recommendation {
	if total >= cfg.StrongBuy {
		return models.RecommendationStrongBuy
	}
	if total >= cfg.Buy {
		return models.RecommendationBuy
	}
	if total >= cfg.Hold {
		return models.RecommendationHold
	}
	if total >= cfg.Sell {
		return models.RecommendationSell
	}
	return models.RecommendationStrongSell
}

// Reasoning summarizes the score on one line.
func Reasoning(score models.InvestmentScore) string {
	s := fmt.Sprintf("Total=%.1f (%s):", score.Total, score.Recommendation)
	for _, cs := range score.Categories {
		s += fmt.Sprintf(" %s=%.2f", cs.Category.Label(), cs.Score)
	}
	return s
}
