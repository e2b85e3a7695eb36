package config

import (
	"github.com/Veraticus/the-cart-must-flow/internal/arl"
	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/content"
	"github.com/Veraticus/the-cart-must-flow/internal/itemcf"
	"github.com/Veraticus/the-cart-must-flow/internal/prep"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where mining runs are stored unless database.path is set.
const DefaultDatabasePath = "~/.local/share/cart/cart.db"

// SetDefaults registers every default the commands rely on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("mining.country", "")
	v.SetDefault("mining.stock_code", true)
	v.SetDefault("mining.min_support", arl.DefaultMinSupport)
	v.SetDefault("mining.max_len", 0)
	v.SetDefault("mining.workers", 0)
	v.SetDefault("mining.metric", string(arl.MetricSupport))
	v.SetDefault("mining.min_threshold", arl.DefaultMinThreshold)
	v.SetDefault("mining.low_quantile", prep.DefaultLowQuantile)
	v.SetDefault("mining.high_quantile", prep.DefaultHighQuantile)
	v.SetDefault("mining.iqr_factor", prep.DefaultIQRFactor)

	v.SetDefault("filter.min_support", 0.0)
	v.SetDefault("filter.min_confidence", 0.0)
	v.SetDefault("filter.min_lift", 0.0)
	v.SetDefault("filter.sort", string(arl.MetricLift))
	v.SetDefault("filter.limit", 20)

	v.SetDefault("content.top", content.DefaultSimilarCount)
	v.SetDefault("itemcf.min_ratings", itemcf.DefaultMinRatings)
	v.SetDefault("itemcf.top", itemcf.DefaultRecommendationCount)
}

// DatabasePath returns the expanded database location.
func DatabasePath(v *viper.Viper) string {
	return ExpandPath(v.GetString("database.path"))
}

// MiningConfig drives the retail association rule pipeline.
type MiningConfig struct {
	Invoices     string
	Country      string
	Metric       arl.Metric
	Prep         prep.Options
	MinSupport   float64
	MinThreshold float64
	MaxLen       int
	Workers      int
	UseStockCode bool
}

// LoadMiningConfig reads the mining.* keys.
func LoadMiningConfig(v *viper.Viper) (MiningConfig, error) {
	metric, err := arl.ParseMetric(v.GetString("mining.metric"))
	if err != nil {
		return MiningConfig{}, err
	}

	cfg := MiningConfig{
		Invoices:     ExpandPath(v.GetString("mining.invoices")),
		Country:      v.GetString("mining.country"),
		Metric:       metric,
		MinSupport:   v.GetFloat64("mining.min_support"),
		MinThreshold: v.GetFloat64("mining.min_threshold"),
		MaxLen:       v.GetInt("mining.max_len"),
		Workers:      v.GetInt("mining.workers"),
		UseStockCode: v.GetBool("mining.stock_code"),
		Prep: prep.Options{
			LowQuantile:  v.GetFloat64("mining.low_quantile"),
			HighQuantile: v.GetFloat64("mining.high_quantile"),
			IQRFactor:    v.GetFloat64("mining.iqr_factor"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks the pipeline settings before any data is read.
func (c MiningConfig) Validate() error {
	if c.Invoices == "" {
		return common.InvalidConfigf("an invoices file is required")
	}
	if c.Prep.LowQuantile < 0 || c.Prep.HighQuantile > 1 || c.Prep.LowQuantile >= c.Prep.HighQuantile {
		return common.InvalidConfigf("quantiles must satisfy 0 <= low < high <= 1, got %v and %v",
			c.Prep.LowQuantile, c.Prep.HighQuantile)
	}
	if c.Prep.IQRFactor < 0 {
		return common.InvalidConfigf("iqr factor must not be negative, got %v", c.Prep.IQRFactor)
	}
	return c.Engine().Validate()
}

// KeyColumn names the invoice column items are keyed by.
func (c MiningConfig) KeyColumn() string {
	if c.UseStockCode {
		return "StockCode"
	}
	return "Description"
}

// Engine converts the settings into an arl engine configuration.
func (c MiningConfig) Engine() arl.Config {
	cfg := arl.DefaultConfig()
	cfg.Miner.MinSupport = c.MinSupport
	cfg.Miner.MaxLen = c.MaxLen
	cfg.Miner.Workers = c.Workers
	cfg.Rules.Metric = c.Metric
	cfg.Rules.MinThreshold = c.MinThreshold
	return cfg
}

// FilterConfig selects and orders rules for display.
type FilterConfig struct {
	SortBy arl.Metric
	Filter arl.RuleFilter
	Limit  int
}

// LoadFilterConfig reads the filter.* keys.
func LoadFilterConfig(v *viper.Viper) (FilterConfig, error) {
	sortBy, err := arl.ParseMetric(v.GetString("filter.sort"))
	if err != nil {
		return FilterConfig{}, err
	}
	cfg := FilterConfig{
		SortBy: sortBy,
		Limit:  v.GetInt("filter.limit"),
		Filter: arl.RuleFilter{
			MinSupport:    v.GetFloat64("filter.min_support"),
			MinConfidence: v.GetFloat64("filter.min_confidence"),
			MinLift:       v.GetFloat64("filter.min_lift"),
		},
	}
	if cfg.Limit < 0 {
		return FilterConfig{}, common.InvalidConfigf("limit must not be negative, got %d", cfg.Limit)
	}
	return cfg, nil
}

// ContentConfig drives the overview similarity recommender.
type ContentConfig struct {
	Movies string
	Top    int
}

// LoadContentConfig reads the content.* keys.
func LoadContentConfig(v *viper.Viper) (ContentConfig, error) {
	cfg := ContentConfig{
		Movies: ExpandPath(v.GetString("content.movies")),
		Top:    v.GetInt("content.top"),
	}
	if cfg.Movies == "" {
		return cfg, common.InvalidConfigf("a movies metadata file is required")
	}
	if cfg.Top <= 0 {
		return cfg, common.InvalidConfigf("top must be positive, got %d", cfg.Top)
	}
	return cfg, nil
}

// ItemCFConfig drives the rating correlation recommender.
type ItemCFConfig struct {
	Movies     string
	Ratings    string
	MinRatings int
	Top        int
}

// LoadItemCFConfig reads the itemcf.* keys.
func LoadItemCFConfig(v *viper.Viper) (ItemCFConfig, error) {
	cfg := ItemCFConfig{
		Movies:     ExpandPath(v.GetString("itemcf.movies")),
		Ratings:    ExpandPath(v.GetString("itemcf.ratings")),
		MinRatings: v.GetInt("itemcf.min_ratings"),
		Top:        v.GetInt("itemcf.top"),
	}
	switch {
	case cfg.Movies == "" || cfg.Ratings == "":
		return cfg, common.InvalidConfigf("both movies and ratings files are required")
	case cfg.MinRatings < 0:
		return cfg, common.InvalidConfigf("min ratings must not be negative, got %d", cfg.MinRatings)
	case cfg.Top <= 0:
		return cfg, common.InvalidConfigf("top must be positive, got %d", cfg.Top)
	}
	return cfg, nil
}
