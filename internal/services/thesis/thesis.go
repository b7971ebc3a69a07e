// Package thesis selects the strongest and weakest ranked ratios as bull
// and bear evidence. Functions are stateless and perform no I/O.
package thesis

import (
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/equitas/internal/models"
)

// Config holds the evidence selection tunables.
type Config struct {
	// BullPercentile is the lowest percentile that counts as a strength.
	BullPercentile float64
	// BearPercentile is the highest percentile that counts as a weakness.
	BearPercentile float64
	// MaxPoints caps each side.
	MaxPoints int

	// Metrics to monitor: follow-ups are added above these levels.
	MonitorPEAbove           float64
	MonitorDebtToEquityAbove float64
	MaxMonitored             int
}

// DefaultConfig returns the standard evidence configuration.
func DefaultConfig() Config {
	return Config{
		BullPercentile: 75,
		BearPercentile: 25,
		MaxPoints:      5,

		MonitorPEAbove:           30,
		MonitorDebtToEquityAbove: 0.8,
		MaxMonitored:             7,
	}
}

// Validate checks the cutoffs sit on either side of the median.
func (c Config) Validate() error {
	if c.BullPercentile <= 50 || c.BullPercentile > 100 {
		return models.NewInvalidInput("thesis.bull_percentile", "must be within (50,100], got %g", c.BullPercentile)
	}
	if c.BearPercentile < 0 || c.BearPercentile >= 50 {
		return models.NewInvalidInput("thesis.bear_percentile", "must be within [0,50), got %g", c.BearPercentile)
	}
	if c.MaxPoints < 0 {
		return models.NewInvalidInput("thesis.max_points", "must be non-negative, got %d", c.MaxPoints)
	}
	if c.MaxMonitored < 0 {
		return models.NewInvalidInput("thesis.max_monitored", "must be non-negative, got %d", c.MaxMonitored)
	}
	return nil
}

// Generate picks bull points (percentile >= BullPercentile) and bear points
// (percentile <= BearPercentile), strongest deviation from the median
// first. Ratios in categories without available inputs are skipped.
func Generate(ranked map[models.RatioName]models.RankedRatio, categories []models.CategoryScore, cfg Config) models.Evidence {
	empty := make(map[models.Category]bool, len(categories))
	for _, cs := range categories {
		if len(cs.Contributions) == 0 {
			empty[cs.Category] = true
		}
	}

	evidence := models.Evidence{
		Bull: []models.EvidencePoint{},
		Bear: []models.EvidencePoint{},
	}
	for _, r := range ranked {
		if !r.Scorable() || empty[r.Category] {
			continue
		}
		spec, ok := models.LookupRatio(r.Name)
		if !ok {
			continue
		}
		p, _ := r.Percentile.Get()
		switch {
		case p >= cfg.BullPercentile:
			evidence.Bull = append(evidence.Bull, point(spec, r, p, "Strong"))
		case p <= cfg.BearPercentile:
			evidence.Bear = append(evidence.Bear, point(spec, r, p, "Weak"))
		}
	}

	evidence.Bull = strongest(evidence.Bull, cfg.MaxPoints)
	evidence.Bear = strongest(evidence.Bear, cfg.MaxPoints)
	return evidence
}

func point(spec models.RatioSpec, r models.RankedRatio, percentile float64, prefix string) models.EvidencePoint {
	value, _ := r.SubjectValue.Get()
	return models.EvidencePoint{
		Statement:    fmt.Sprintf("%s %s: %s (%s).", prefix, spec.Label, FormatValue(value, spec.Unit), standing(spec, r, percentile)),
		Ratio:        spec.Name,
		Category:     spec.Category,
		SubjectValue: value,
		Percentile:   percentile,
		Magnitude:    math.Abs(percentile - 50),
	}
}

func standing(spec models.RatioSpec, r models.RankedRatio, percentile float64) string {
	if r.Basis == models.BasisBenchmark {
		return fmt.Sprintf("percentile %.0f against benchmark", percentile)
	}
	s := fmt.Sprintf("percentile %.0f vs %d peers", percentile, len(r.PeerValues))
	if median, ok := r.PeerMedian.Get(); ok {
		s += ", median " + FormatValue(median, spec.Unit)
	}
	return s
}

func strongest(points []models.EvidencePoint, limit int) []models.EvidencePoint {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Magnitude != points[j].Magnitude {
			return points[i].Magnitude > points[j].Magnitude
		}
		return points[i].Ratio < points[j].Ratio
	})
	if limit < 0 {
		limit = 0
	}
	if len(points) > limit {
		points = points[:limit]
	}
	return points
}

// FormatValue renders a ratio value in its unit.
func FormatValue(v float64, unit models.Unit) string {
	switch unit {
	case models.UnitPercent:
		return fmt.Sprintf("%.1f%%", v*100)
	case models.UnitMultiple:
		return fmt.Sprintf("%.1fx", v)
	case models.UnitDays:
		return fmt.Sprintf("%.0f days", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
