package models

import (
	"sort"
	"strings"
	"time"
)

// PeerGroup is the subject plus its comparable companies. The peer list is
// deduplicated, upper-cased and never contains the subject.
type PeerGroup struct {
	Subject string                 `json:"subject"`
	Peers   []string               `json:"peers"`
	Records map[string]RatioRecord `json:"records"`
}

// NewPeerGroup builds a PeerGroup from a raw peer list.
func NewPeerGroup(subject string, peers []string) PeerGroup {
	subject = strings.ToUpper(strings.TrimSpace(subject))
	seen := map[string]bool{subject: true}
	group := PeerGroup{
		Subject: subject,
		Peers:   make([]string, 0, len(peers)),
		Records: make(map[string]RatioRecord, len(peers)),
	}
	for _, p := range peers {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		group.Peers = append(group.Peers, p)
	}
	return group
}

// WithRecord returns a copy of the group with record stored for ticker.
// Tickers outside the peer list are ignored.
func (g PeerGroup) WithRecord(ticker string, record RatioRecord) PeerGroup {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	records := make(map[string]RatioRecord, len(g.Records)+1)
	for k, v := range g.Records {
		records[k] = v
	}
	for _, p := range g.Peers {
		if p == ticker {
			records[ticker] = record
			break
		}
	}
	g.Records = records
	return g
}

// Key returns a stable identifier of the subject and its peer set.
func (g PeerGroup) Key() string {
	peers := make([]string, len(g.Peers))
	copy(peers, g.Peers)
	sort.Strings(peers)
	return g.Subject + "|" + strings.Join(peers, ",")
}

// RankBasis records what a percentile was measured against.
type RankBasis string

const (
	BasisPeers     RankBasis = "peers"
	BasisBenchmark RankBasis = "benchmark"
	BasisNone      RankBasis = "none"
)

// RankedRatio is the subject's standing for one ratio.
type RankedRatio struct {
	Name          RatioName `json:"name"`
	Category      Category  `json:"category"`
	Direction     Direction `json:"direction"`
	SubjectValue  Value     `json:"subject_value"`
	PeerValues    []float64 `json:"peer_values"` // available values, ascending
	PeerMedian    Value     `json:"peer_median"`
	Percentile    Value     `json:"percentile"` // 0-100, higher is more favorable
	Basis         RankBasis `json:"basis"`
	Available     bool      `json:"available"`
	LowConfidence bool      `json:"low_confidence"`
}

// Scorable reports whether the ratio carries a percentile usable for scoring.
func (r RankedRatio) Scorable() bool {
	return r.Available && r.Percentile.Available()
}

// SortedRatioNames returns the keys of ranked in ratio-table order.
func SortedRatioNames(ranked map[RatioName]RankedRatio) []RatioName {
	names := make([]RatioName, 0, len(ranked))
	for _, spec := range ratioTable {
		if _, ok := ranked[spec.Name]; ok {
			names = append(names, spec.Name)
		}
	}
	return names
}

// ValuationAssessment is the qualitative band of a premium/discount.
type ValuationAssessment string

const (
	AssessmentSignificantDiscount ValuationAssessment = "significant discount"
	AssessmentDiscount            ValuationAssessment = "discount"
	AssessmentInLine              ValuationAssessment = "in line"
	AssessmentPremium             ValuationAssessment = "premium"
	AssessmentSignificantPremium  ValuationAssessment = "significant premium"
)

// MultipleComparison compares one valuation multiple against the peer median.
type MultipleComparison struct {
	Name           RatioName           `json:"name"`
	SubjectValue   float64             `json:"subject_value"`
	PeerMedian     float64             `json:"peer_median"`
	PremiumPct     float64             `json:"premium_pct"`
	Assessment     ValuationAssessment `json:"assessment"`
	PeerValueCount int                 `json:"peer_value_count"`
}

// RelativeValuation summarises multiples against peers.
type RelativeValuation struct {
	Multiples     []MultipleComparison `json:"multiples"`
	AvgPremiumPct Value                `json:"avg_premium_pct"`
	Assessment    ValuationAssessment  `json:"assessment,omitempty"`
}

// JustificationConclusion states whether fundamentals support the subject's
// premium or discount to peers.
type JustificationConclusion string

const (
	PremiumJustified    JustificationConclusion = "premium justified"
	PremiumUnjustified  JustificationConclusion = "premium unjustified"
	PremiumMixed        JustificationConclusion = "premium mixed"
	DiscountJustified   JustificationConclusion = "discount justified"
	DiscountUnjustified JustificationConclusion = "discount unjustified"
	DiscountMixed       JustificationConclusion = "discount mixed"
	ValuationInLine     JustificationConclusion = "in line"
	JustificationNoData JustificationConclusion = "insufficient data"
)

// JustificationFactor compares one growth or profitability ratio with the
// peer average.
type JustificationFactor struct {
	Name         RatioName `json:"name"`
	SubjectValue float64   `json:"subject_value"`
	PeerAverage  float64   `json:"peer_average"`
	DiffPct      float64   `json:"diff_pct"` // relative to |peer average|
}

// ValuationJustification weighs the relative valuation against fundamentals.
type ValuationJustification struct {
	Supporting []JustificationFactor   `json:"supporting"`
	Against    []JustificationFactor   `json:"against"`
	Conclusion JustificationConclusion `json:"conclusion"`
}

// MarginPoint is one fiscal year of margin history.
type MarginPoint struct {
	FiscalYear      int   `json:"fiscal_year"`
	GrossMargin     Value `json:"gross_margin"`
	OperatingMargin Value `json:"operating_margin"`
	NetMargin       Value `json:"net_margin"`
}

// InsiderSentiment bands net insider trading.
type InsiderSentiment string

const (
	InsiderStronglyBullish InsiderSentiment = "strongly bullish"
	InsiderBullish         InsiderSentiment = "bullish"
	InsiderNeutral         InsiderSentiment = "neutral"
	InsiderBearish         InsiderSentiment = "bearish"
	InsiderStronglyBearish InsiderSentiment = "strongly bearish"
	InsiderUnknown         InsiderSentiment = "unknown"
)

// InsiderActivity summarises open-market insider trades in the lookback window.
type InsiderActivity struct {
	Transactions int              `json:"transactions"`
	Buys         int              `json:"buys"`
	Sells        int              `json:"sells"`
	NetShares    float64          `json:"net_shares"`
	Sentiment    InsiderSentiment `json:"sentiment"`
}

// SentimentComponent names a sentiment sub-signal.
type SentimentComponent string

const (
	ComponentAnalyst  SentimentComponent = "analyst"
	ComponentEarnings SentimentComponent = "earnings"
	ComponentMomentum SentimentComponent = "momentum"
)

// SentimentComponents lists the sub-signals in fixed order.
var SentimentComponents = []SentimentComponent{
	ComponentAnalyst,
	ComponentEarnings,
	ComponentMomentum,
}

// CrossState is the relation of the short moving average to the long one.
type CrossState string

const (
	CrossGolden  CrossState = "golden_cross"
	CrossDeath   CrossState = "death_cross"
	CrossUnknown CrossState = "unknown"
)

// EarningsTrend describes the direction of recent earnings surprises.
type EarningsTrend string

const (
	TrendImproving EarningsTrend = "improving"
	TrendDeclining EarningsTrend = "declining"
	TrendStable    EarningsTrend = "stable"
	TrendUnknown   EarningsTrend = "unknown"
)

// SentimentSignal is the aggregate sentiment in [0,10] with its parts.
type SentimentSignal struct {
	Value      Value                          `json:"value"`
	Components map[SentimentComponent]Value   `json:"components"`
	Weights    map[SentimentComponent]float64 `json:"weights"` // effective, renormalized

	MeanAnalystRating Value         `json:"mean_analyst_rating"`
	AnalystCount      int           `json:"analyst_count"`
	Beats             int           `json:"beats"`
	QuartersCounted   int           `json:"quarters_counted"`
	EarningsTrend     EarningsTrend `json:"earnings_trend"`
	Price             Value         `json:"price"`
	MAShort           Value         `json:"ma_short"`
	MALong            Value         `json:"ma_long"`
	Cross             CrossState    `json:"cross"`

	Insider         InsiderActivity `json:"insider"`
	InstitutionsPct Value           `json:"institutions_pct"`
	InsidersPct     Value           `json:"insiders_pct"`
}

// Component returns a sub-signal, unavailable when absent.
func (s SentimentSignal) Component(c SentimentComponent) Value {
	if s.Components == nil {
		return None()
	}
	return s.Components[c]
}

// Recommendation is the label derived from the total score.
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "Strong Buy"
	RecommendationBuy        Recommendation = "Buy"
	RecommendationHold       Recommendation = "Hold"
	RecommendationSell       Recommendation = "Sell"
	RecommendationStrongSell Recommendation = "Strong Sell"
)

// Contribution is one input of a category score.
type Contribution struct {
	Name   string  `json:"name"`
	Input  float64 `json:"input"`  // percentile for ratios, 0-10 for sentiment
	Score  float64 `json:"score"`  // input on the 0-10 scale
	Weight float64 `json:"weight"` // normalized within the category
}

// CategoryScore is one of the six category aggregates.
type CategoryScore struct {
	Category      Category       `json:"category"`
	Score         float64        `json:"score"`
	Weight        float64        `json:"weight"`
	Weighted      float64        `json:"weighted"`
	Contributions []Contribution `json:"contributions"`
	LowConfidence bool           `json:"low_confidence"`
}

// InvestmentScore is the weighted total and its label.
type InvestmentScore struct {
	Categories     []CategoryScore `json:"categories"`
	Total          float64         `json:"total"`
	Recommendation Recommendation  `json:"recommendation"`
}

// Category returns the score for c.
func (s InvestmentScore) Category(c Category) (CategoryScore, bool) {
	for _, cs := range s.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// EvidencePoint is one bull or bear statement.
type EvidencePoint struct {
	Statement    string    `json:"statement"`
	Ratio        RatioName `json:"ratio"`
	Category     Category  `json:"category"`
	SubjectValue float64   `json:"subject_value"`
	Percentile   float64   `json:"percentile"`
	Magnitude    float64   `json:"magnitude"`
}

// Evidence holds the ranked bull and bear points.
type Evidence struct {
	Bull []EvidencePoint `json:"bull"`
	Bear []EvidencePoint `json:"bear"`
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	Ticker            string                    `json:"ticker"`
	Peers             []string                  `json:"peers"`
	Ratios            RatioRecord               `json:"ratios"`
	Ranked            map[RatioName]RankedRatio `json:"ranked"`
	RelativeValuation RelativeValuation         `json:"relative_valuation"`
	Justification     ValuationJustification    `json:"valuation_justification"`
	MarginTrend       []MarginPoint             `json:"margin_trend"`
	Sentiment         SentimentSignal           `json:"sentiment"`
	Score             InvestmentScore           `json:"score"`
	Evidence          Evidence                  `json:"evidence"`
	Monitor           []string                  `json:"metrics_to_monitor"`
}

// AnalysisReport wraps a result with run metadata.
type AnalysisReport struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	AsOf        string         `json:"as_of"`
	CompanyName string         `json:"company_name"`
	Sector      string         `json:"sector"`
	Dropped     []string       `json:"dropped_peers,omitempty"`
	Cached      bool           `json:"cached"`
	Result      AnalysisResult `json:"result"`
}
