package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	EODHD       EODHDConfig     `toml:"eodhd"`
	Collector   CollectorConfig `toml:"collector"`
	Peers       PeersConfig     `toml:"peers"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Watch       WatchConfig     `toml:"watch"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Type   string       `toml:"type"` // only "badger"
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// CacheConfig controls reuse of earlier analysis results
type CacheConfig struct {
	Enabled  bool `toml:"enabled"`
	TTLHours int  `toml:"ttl_hours" validate:"gte=0"` // 0 disables writes
}

// EODHDConfig contains EODHD market data API configuration
type EODHDConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	Exchange       string `toml:"exchange" validate:"required,alphanum"` // default exchange for bare tickers
	RateLimit      int    `toml:"rate_limit" validate:"gte=1"`           // requests per second
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=1"`
}

// CollectorConfig controls how company data is gathered
type CollectorConfig struct {
	Concurrency      int `toml:"concurrency" validate:"gte=1,lte=32"` // parallel peer fetches
	PriceHistoryDays int `toml:"price_history_days" validate:"gte=30"`
	MaxPeriods       int `toml:"max_periods" validate:"gte=1"`
	MaxQuarters      int `toml:"max_quarters" validate:"gte=1"`
}

// PeersConfig controls peer group selection
type PeersConfig struct {
	MappingFile string `toml:"mapping_file"` // YAML file extending the built-in peer mapping
	MaxPeers    int    `toml:"max_peers" validate:"gte=1"`
}

// AnalysisConfig holds the tunables of the five analysis stages
type AnalysisConfig struct {
	Ratios    RatiosConfig    `toml:"ratios"`
	Peers     PeerRankConfig  `toml:"peers"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Thesis    ThesisConfig    `toml:"thesis"`
}

type RatiosConfig struct {
	CAGRMaxYears     int     `toml:"cagr_max_years"`
	DefaultTaxRate   float64 `toml:"default_tax_rate"`
	MaxTaxRate       float64 `toml:"max_tax_rate"`
	DaysPerYear      float64 `toml:"days_per_year"`
	MarginTrendYears int     `toml:"margin_trend_years"`
}

type PeerRankConfig struct {
	MinPeers               int     `toml:"min_peers"`
	SignificantDiscountPct float64 `toml:"significant_discount_pct"`
	DiscountPct            float64 `toml:"discount_pct"`
	PremiumPct             float64 `toml:"premium_pct"`
	SignificantPremiumPct  float64 `toml:"significant_premium_pct"`
	JustificationBandPct   float64 `toml:"justification_band_pct"` // peer-average distance that supports a premium
}

type SentimentConfig struct {
	AnalystWeight       float64 `toml:"analyst_weight"`
	EarningsWeight      float64 `toml:"earnings_weight"`
	MomentumWeight      float64 `toml:"momentum_weight"`
	EarningsQuarters    int     `toml:"earnings_quarters"`
	BeatThresholdPct    float64 `toml:"beat_threshold_pct"`
	ShortWindow         int     `toml:"short_window"`
	LongWindow          int     `toml:"long_window"`
	MomentumBand        float64 `toml:"momentum_band"`
	OffSideFactor       float64 `toml:"off_side_factor"`
	InsiderLookbackDays int     `toml:"insider_lookback_days"`
}

type ScoringConfig struct {
	Weights   map[string]float64 `toml:"weights"` // category -> weight, must sum to 1
	StrongBuy float64            `toml:"strong_buy"`
	Buy       float64            `toml:"buy"`
	Hold      float64            `toml:"hold"`
	Sell      float64            `toml:"sell"`
}

type ThesisConfig struct {
	BullPercentile           float64 `toml:"bull_percentile"`
	BearPercentile           float64 `toml:"bear_percentile"`
	MaxPoints                int     `toml:"max_points"`
	MonitorPEAbove           float64 `toml:"monitor_pe_above"`
	MonitorDebtToEquityAbove float64 `toml:"monitor_debt_to_equity_above"`
	MaxMonitored             int     `toml:"max_monitored"`
}

// WatchConfig configures scheduled re-analysis
type WatchConfig struct {
	Schedule string   `toml:"schedule"` // 5-field cron expression
	Tickers  []string `toml:"tickers"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLHours: 24,
		},
		EODHD: EODHDConfig{
			BaseURL:        "https://eodhd.com/api",
			Exchange:       "US",
			RateLimit:      10,
			TimeoutSeconds: 30,
		},
		Collector: CollectorConfig{
			Concurrency:      4,
			PriceHistoryDays: 400, // > 200 trading days
			MaxPeriods:       5,
			MaxQuarters:      8,
		},
		Peers: PeersConfig{
			MaxPeers: 10,
		},
		Analysis: AnalysisConfig{
			Ratios: RatiosConfig{
				CAGRMaxYears:     3,
				DefaultTaxRate:   0.21,
				MaxTaxRate:       0.5,
				DaysPerYear:      365,
				MarginTrendYears: 4,
			},
			Peers: PeerRankConfig{
				MinPeers:               2,
				SignificantDiscountPct: -30,
				DiscountPct:            -10,
				PremiumPct:             10,
				SignificantPremiumPct:  30,
				JustificationBandPct:   20,
			},
			Sentiment: SentimentConfig{
				AnalystWeight:       0.4,
				EarningsWeight:      0.3,
				MomentumWeight:      0.3,
				EarningsQuarters:    4,
				BeatThresholdPct:    1.0,
				ShortWindow:         50,
				LongWindow:          200,
				MomentumBand:        0.20,
				OffSideFactor:       0.75,
				InsiderLookbackDays: 90,
			},
			Scoring: ScoringConfig{
				Weights: map[string]float64{
					"valuation":          0.25,
					"growth":             0.20,
					"profitability":      0.20,
					"financial_health":   0.15,
					"momentum_sentiment": 0.10,
					"quality_moat":       0.10,
				},
				StrongBuy: 8.0,
				Buy:       6.5,
				Hold:      5.0,
				Sell:      3.5,
			},
			Thesis: ThesisConfig{
				BullPercentile:           75,
				BearPercentile:           25,
				MaxPoints:                5,
				MonitorPEAbove:           30,
				MonitorDebtToEquityAbove: 0.8,
				MaxMonitored:             7,
			},
		},
		Watch: WatchConfig{
			Schedule: "0 7 * * 1-5", // weekdays before the US open
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied by the caller afterwards.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EQUITAS_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("EQUITAS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("EQUITAS_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	// Storage configuration
	if badgerPath := os.Getenv("EQUITAS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Cache configuration
	if enabled := os.Getenv("EQUITAS_CACHE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = b
		}
	}
	if ttl := os.Getenv("EQUITAS_CACHE_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil {
			config.Cache.TTLHours = h
		}
	}

	// EODHD configuration (EODHD_API_KEY is accepted as a fallback)
	if apiKey := os.Getenv("EQUITAS_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" && config.EODHD.APIKey == "" {
		config.EODHD.APIKey = apiKey
	}
	if baseURL := os.Getenv("EQUITAS_EODHD_BASE_URL"); baseURL != "" {
		config.EODHD.BaseURL = baseURL
	}
	if exchange := os.Getenv("EQUITAS_EODHD_EXCHANGE"); exchange != "" {
		config.EODHD.Exchange = strings.ToUpper(exchange)
	}

	// Collector configuration
	if concurrency := os.Getenv("EQUITAS_COLLECTOR_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Collector.Concurrency = c
		}
	}

	// Peers configuration
	if mapping := os.Getenv("EQUITAS_PEERS_FILE"); mapping != "" {
		config.Peers.MappingFile = mapping
	}

	// Watch configuration
	if schedule := os.Getenv("EQUITAS_WATCH_SCHEDULE"); schedule != "" {
		config.Watch.Schedule = schedule
	}
	if tickers := os.Getenv("EQUITAS_WATCH_TICKERS"); tickers != "" {
		config.Watch.Tickers = splitList(tickers)
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, logLevel, badgerPath string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
}

// ValidateConfig checks struct constraints and the watch schedule
func ValidateConfig(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if config.Storage.Type != "" && config.Storage.Type != "badger" {
		return fmt.Errorf("unsupported storage type: %s (only 'badger' is supported)", config.Storage.Type)
	}
	if config.Watch.Schedule != "" {
		if err := ValidateSchedule(config.Watch.Schedule); err != nil {
			return fmt.Errorf("invalid watch schedule: %w", err)
		}
	}
	for _, ticker := range config.Watch.Tickers {
		if _, err := ValidateTicker(ticker); err != nil {
			return fmt.Errorf("invalid watch ticker: %w", err)
		}
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	if _, err := ParseSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	minuteField := strings.Fields(schedule)[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// ParseSchedule parses a standard 5-field cron expression
func ParseSchedule(schedule string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(schedule)
}

// CacheTTLHours returns the effective cache lifetime in hours, 0 when caching is off
func (c *Config) CacheTTLHours() int {
	if !c.Cache.Enabled {
		return 0
	}
	return c.Cache.TTLHours
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
