package config

import (
	"golang-stock-recommender/pkg/config"
)

// Gemini holds the configuration for the extraction collaborator.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Sina holds the configuration for the stock code lookup collaborator.
type Sina struct {
	SuggestBaseURL      string `mapstructure:"suggest_base_url"`
	KlineBaseURL        string `mapstructure:"kline_base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Tencent holds the configuration for the primary kline source.
type Tencent struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Scoring holds the aggregator constants.
type Scoring struct {
	// MinSampleThreshold damps recommenders with fewer priced picks toward
	// a neutral score instead of excluding them.
	MinSampleThreshold int `mapstructure:"min_sample_threshold"`
	// ReturnClamp bounds avg_return before normalization so one extreme
	// week cannot dominate the composite score.
	ReturnClamp float64 `mapstructure:"return_clamp"`
}

// Pipeline holds orchestrator settings.
type Pipeline struct {
	LockTTL      string `mapstructure:"lock_ttl"`
	CronSpec     string `mapstructure:"cron_spec"`
	FeedCronSpec string `mapstructure:"feed_cron_spec"`
}

// Telegram holds configuration for the run-report notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Feeds holds the RSS ingestion sources for recommendation posts.
type Feeds struct {
	URLs     []string `mapstructure:"urls"`
	MaxItems int      `mapstructure:"max_items"`
}

// Config holds the full configuration for the tracker service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Storage  config.Storage  `mapstructure:"storage"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Sina     Sina            `mapstructure:"sina"`
	Tencent  Tencent         `mapstructure:"tencent"`
	Scoring  Scoring         `mapstructure:"scoring"`
	Pipeline Pipeline        `mapstructure:"pipeline"`
	Telegram Telegram        `mapstructure:"telegram"`
	Feeds    Feeds           `mapstructure:"feeds"`
}

// Load loads the tracker configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Scoring.MinSampleThreshold <= 0 {
		cfg.Scoring.MinSampleThreshold = 10
	}
	if cfg.Scoring.ReturnClamp <= 0 {
		cfg.Scoring.ReturnClamp = 0.2
	}
	return &cfg, nil
}
