// Package peers ranks a company's ratios against its peer group.
// Ranking functions are stateless and perform no I/O.
package peers

import (
	"math"
	"sort"

	"github.com/ternarybob/equitas/internal/models"
)

// Config holds the peer ranking tunables.
type Config struct {
	// MinPeers is the smallest peer distribution ranked with full confidence.
	MinPeers int
	// Premium/discount band edges in percent for relative valuation.
	SignificantDiscountPct float64
	DiscountPct            float64
	PremiumPct             float64
	SignificantPremiumPct  float64
	// JustificationBandPct is how far from the peer average, in percent, a
	// growth or profitability ratio must sit to count for or against the
	// valuation.
	JustificationBandPct float64
}

// DefaultConfig returns the standard peer configuration.
func DefaultConfig() Config {
	return Config{
		MinPeers:               2,
		SignificantDiscountPct: -30,
		DiscountPct:            -10,
		PremiumPct:             10,
		SignificantPremiumPct:  30,
		JustificationBandPct:   20,
	}
}

// Validate checks the band edges are ordered.
func (c Config) Validate() error {
	if c.MinPeers < 1 {
		return models.NewInvalidInput("peers.min_peers", "must be at least 1, got %d", c.MinPeers)
	}
	if !(c.SignificantDiscountPct <= c.DiscountPct && c.DiscountPct <= c.PremiumPct && c.PremiumPct <= c.SignificantPremiumPct) {
		return models.NewInvalidInput("peers.bands", "band edges must be ascending")
	}
	if c.JustificationBandPct <= 0 {
		return models.NewInvalidInput("peers.justification_band_pct", "must be positive, got %g", c.JustificationBandPct)
	}
	return nil
}

// Normalize ranks every ratio of the subject record against the peer group.
// Financial health ratios are the exception: they are placed on their
// absolute benchmark and the peer distribution is kept for display only.
//
// The percentile counts peers the subject strictly beats plus half the
// peers it ties, over the number of available peer values. For
// lower-is-better ratios "beats" means "is lower than", so a higher
// percentile is always more favorable.
func Normalize(subject models.RatioRecord, group models.PeerGroup, cfg Config) (map[models.RatioName]models.RankedRatio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ranked := make(map[models.RatioName]models.RankedRatio, len(subject.Values))
	for _, name := range subject.Names() {
		spec, ok := models.LookupRatio(name)
		if !ok {
			continue
		}
		ranked[name] = rankOne(spec, subject.Get(name), peerValues(name, group), cfg)
	}
	return ranked, nil
}

func rankOne(spec models.RatioSpec, subject models.Value, values []float64, cfg Config) models.RankedRatio {
	r := models.RankedRatio{
		Name:         spec.Name,
		Category:     spec.Category,
		Direction:    spec.Direction,
		SubjectValue: subject,
		PeerValues:   values,
		PeerMedian:   Median(values),
		Percentile:   models.None(),
		Basis:        models.BasisNone,
	}

	x, ok := subject.Get()
	if !ok {
		return r
	}
	r.Available = true

	switch {
	case spec.Absolute():
		r.Percentile = models.Some(BenchmarkPercentile(x, *spec.Benchmark))
		r.Basis = models.BasisBenchmark
	case len(values) > 0:
		r.Percentile = models.Some(PercentileRank(x, values, spec.Direction))
		r.Basis = models.BasisPeers
		r.LowConfidence = len(values) < cfg.MinPeers
	case spec.Benchmark != nil:
		r.Percentile = models.Some(BenchmarkPercentile(x, *spec.Benchmark))
		r.Basis = models.BasisBenchmark
		r.LowConfidence = true
	default:
		r.LowConfidence = true
	}
	return r
}

// peerValues collects the available values of name across the peer group
// in ascending order, so the result does not depend on fetch order.
func peerValues(name models.RatioName, group models.PeerGroup) []float64 {
	values := make([]float64, 0, len(group.Peers))
	for _, ticker := range group.Peers {
		record, ok := group.Records[ticker]
		if !ok {
			continue
		}
		if v, ok := record.Get(name).Get(); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	return values
}

// PercentileRank returns the subject's percentile in [0,100] within values,
// oriented by direction. Ties count half.
func PercentileRank(subject float64, values []float64, direction models.Direction) float64 {
	if len(values) == 0 {
		return 50
	}
	beaten, tied := 0, 0
	for _, v := range values {
		switch {
		case v == subject:
			tied++
		case direction == models.LowerIsBetter && subject < v:
			beaten++
		case direction != models.LowerIsBetter && subject > v:
			beaten++
		}
	}
	return (float64(beaten) + 0.5*float64(tied)) / float64(len(values)) * 100
}

// BenchmarkPercentile maps x linearly from the benchmark's poor anchor (0)
// to its good anchor (100). Works for both directions since Good < Poor for
// lower-is-better ratios.
func BenchmarkPercentile(x float64, b models.Benchmark) float64 {
	if b.Good == b.Poor {
		return 50
	}
	t := (x - b.Poor) / (b.Good - b.Poor)
	return models.ClampFloat64(t, 0, 1) * 100
}

// Mean of values, unavailable when empty.
func Mean(values []float64) models.Value {
	if len(values) == 0 {
		return models.None()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return models.Some(sum / float64(len(values)))
}

// Median of an ascending slice.
func Median(sorted []float64) models.Value {
	n := len(sorted)
	if n == 0 {
		return models.None()
	}
	if n%2 == 1 {
		return models.Some(sorted[n/2])
	}
	return models.Some((sorted[n/2-1] + sorted[n/2]) / 2)
}

