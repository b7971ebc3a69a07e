// Package report renders analysis reports as markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/thesis"
)

// Service renders reports
type Service struct {
	logger arbor.ILogger
	md     goldmark.Markdown
}

// NewService creates a new report service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// ToHTML converts the markdown rendering of report to an HTML fragment
func (s *Service) ToHTML(report models.AnalysisReport) ([]byte, error) {
	markdown := Markdown(report)

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		s.logger.Error().Err(err).Str("ticker", report.Result.Ticker).Msg("Failed to render report HTML")
		return nil, fmt.Errorf("failed to render report HTML: %w", err)
	}

	s.logger.Debug().
		Str("ticker", report.Result.Ticker).
		Int("markdown_len", len(markdown)).
		Int("html_len", buf.Len()).
		Msg("Rendered report HTML")
	return buf.Bytes(), nil
}

// Markdown renders report as a markdown document
func Markdown(report models.AnalysisReport) string {
	r := report.Result
	var b strings.Builder

	title := r.Ticker
	if report.CompanyName != "" {
		title = fmt.Sprintf("%s (%s)", report.CompanyName, r.Ticker)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	meta := []string{}
	if report.AsOf != "" {
		meta = append(meta, "As of "+report.AsOf)
	}
	if report.Sector != "" {
		meta = append(meta, "Sector: "+report.Sector)
	}
	if len(r.Peers) > 0 {
		meta = append(meta, "Peers: "+strings.Join(r.Peers, ", "))
	} else {
		meta = append(meta, "Peers: none")
	}
	if report.Cached {
		meta = append(meta, "cached")
	}
	b.WriteString(strings.Join(meta, " | ") + "\n\n")
	if len(report.Dropped) > 0 {
		fmt.Fprintf(&b, "_Peers without usable data: %s_\n\n", strings.Join(report.Dropped, ", "))
	}

	writeScore(&b, r.Score)
	writeEvidence(&b, "Bull case", r.Evidence.Bull)
	writeEvidence(&b, "Bear case", r.Evidence.Bear)
	writeRelative(&b, r.RelativeValuation)
	writeJustification(&b, r.Justification)
	writeSentiment(&b, r.Sentiment)
	writeMargins(&b, r.MarginTrend)
	writeRatios(&b, r.Ranked)
	writeMonitor(&b, r.Monitor)

	if report.RunID != "" {
		fmt.Fprintf(&b, "\n_Run %s_\n", report.RunID)
	}
	return b.String()
}

func writeScore(b *strings.Builder, score models.InvestmentScore) {
	fmt.Fprintf(b, "## Score: %.1f / 10, %s\n\n", score.Total, score.Recommendation)
	b.WriteString("| Category | Score | Weight | Weighted | Inputs |\n")
	b.WriteString("|---|---:|---:|---:|---|\n")
	for _, cs := range score.Categories {
		inputs := fmt.Sprintf("%d", len(cs.Contributions))
		if cs.LowConfidence {
			inputs += " (low confidence)"
		}
		fmt.Fprintf(b, "| %s | %.2f | %.0f%% | %.2f | %s |\n",
			cs.Category.Label(), cs.Score, cs.Weight*100, cs.Weighted, inputs)
	}
	b.WriteString("\n")
}

func writeEvidence(b *strings.Builder, heading string, points []models.EvidencePoint) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if len(points) == 0 {
		b.WriteString("_No ratio stands out._\n\n")
		return
	}
	for _, p := range points {
		fmt.Fprintf(b, "- %s\n", p.Statement)
	}
	b.WriteString("\n")
}

func writeRelative(b *strings.Builder, rv models.RelativeValuation) {
	b.WriteString("## Relative valuation\n\n")
	if len(rv.Multiples) == 0 {
		b.WriteString("_Not enough peer data._\n\n")
		return
	}
	b.WriteString("| Multiple | Subject | Peer median | Premium | Assessment |\n")
	b.WriteString("|---|---:|---:|---:|---|\n")
	for _, m := range rv.Multiples {
		fmt.Fprintf(b, "| %s | %.1fx | %.1fx | %+.1f%% | %s |\n",
			ratioLabel(m.Name), m.SubjectValue, m.PeerMedian, m.PremiumPct, m.Assessment)
	}
	if avg, ok := rv.AvgPremiumPct.Get(); ok {
		fmt.Fprintf(b, "\nAverage %+.1f%%: %s.\n", avg, rv.Assessment)
	}
	b.WriteString("\n")
}

func writeJustification(b *strings.Builder, j models.ValuationJustification) {
	if j.Conclusion == "" || j.Conclusion == models.JustificationNoData {
		return
	}
	fmt.Fprintf(b, "Valuation %s.\n\n", j.Conclusion)
	writeFactors(b, "Supported by", j.Supporting)
	writeFactors(b, "Weighed down by", j.Against)
}

func writeFactors(b *strings.Builder, heading string, factors []models.JustificationFactor) {
	if len(factors) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n\n", heading)
	for _, f := range factors {
		spec, _ := models.LookupRatio(f.Name)
		fmt.Fprintf(b, "- %s %s vs peer average %s (%+.0f%%)\n",
			ratioLabel(f.Name), thesis.FormatValue(f.SubjectValue, spec.Unit), thesis.FormatValue(f.PeerAverage, spec.Unit), f.DiffPct)
	}
	b.WriteString("\n")
}

func writeSentiment(b *strings.Builder, s models.SentimentSignal) {
	b.WriteString("## Sentiment\n\n")
	if v, ok := s.Value.Get(); ok {
		fmt.Fprintf(b, "Signal %.1f / 10\n\n", v)
	} else {
		b.WriteString("Signal unavailable\n\n")
	}

	for _, c := range models.SentimentComponents {
		v, ok := s.Component(c).Get()
		if !ok {
			fmt.Fprintf(b, "- %s: n/a\n", c)
			continue
		}
		fmt.Fprintf(b, "- %s: %.1f (weight %.0f%%)\n", c, v, s.Weights[c]*100)
	}
	if mean, ok := s.MeanAnalystRating.Get(); ok {
		fmt.Fprintf(b, "- mean analyst rating %.2f from %d analysts\n", mean, s.AnalystCount)
	}
	if s.QuartersCounted > 0 {
		fmt.Fprintf(b, "- beat %d of %d quarters, trend %s\n", s.Beats, s.QuartersCounted, s.EarningsTrend)
	}
	if s.Cross != models.CrossUnknown {
		fmt.Fprintf(b, "- price %s, MA short %s, MA long %s, %s\n",
			s.Price, s.MAShort, s.MALong, strings.ReplaceAll(string(s.Cross), "_", " "))
	}
	if s.Insider.Transactions > 0 {
		fmt.Fprintf(b, "- insiders: %d buys, %d sells, net %+.0f shares, %s\n",
			s.Insider.Buys, s.Insider.Sells, s.Insider.NetShares, s.Insider.Sentiment)
	}
	if v, ok := s.InstitutionsPct.Get(); ok {
		fmt.Fprintf(b, "- institutional ownership %.1f%%\n", v)
	}
	if v, ok := s.InsidersPct.Get(); ok {
		fmt.Fprintf(b, "- insider ownership %.1f%%\n", v)
	}
	b.WriteString("\n")
}

func writeMargins(b *strings.Builder, trend []models.MarginPoint) {
	if len(trend) == 0 {
		return
	}
	b.WriteString("## Margin trend\n\n")
	b.WriteString("| Year | Gross | Operating | Net |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, p := range trend {
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n", p.FiscalYear,
			formatValue(p.GrossMargin, models.UnitPercent), formatValue(p.OperatingMargin, models.UnitPercent), formatValue(p.NetMargin, models.UnitPercent))
	}
	b.WriteString("\n")
}

func writeRatios(b *strings.Builder, ranked map[models.RatioName]models.RankedRatio) {
	b.WriteString("## Ratios\n\n")
	b.WriteString("| Ratio | Value | Peer median | Percentile | Basis |\n")
	b.WriteString("|---|---:|---:|---:|---|\n")
	for _, name := range models.SortedRatioNames(ranked) {
		r := ranked[name]
		spec, _ := models.LookupRatio(name)

		percentile := "n/a"
		if p, ok := r.Percentile.Get(); ok {
			percentile = fmt.Sprintf("%.0f", p)
			if r.LowConfidence {
				percentile += "*"
			}
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			spec.Label, formatValue(r.SubjectValue, spec.Unit), formatValue(r.PeerMedian, spec.Unit), percentile, r.Basis)
	}
	b.WriteString("\n\\* low confidence\n")
}

func writeMonitor(b *strings.Builder, metrics []string) {
	if len(metrics) == 0 {
		return
	}
	b.WriteString("\n## Metrics to monitor\n\n")
	for _, m := range metrics {
		fmt.Fprintf(b, "- %s\n", m)
	}
}

func formatValue(v models.Value, unit models.Unit) string {
	x, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return thesis.FormatValue(x, unit)
}

func ratioLabel(name models.RatioName) string {
	if spec, ok := models.LookupRatio(name); ok {
		return spec.Label
	}
	return string(name)
}
