package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for hokejnews.
type Config struct {
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	Mongo   MongoConfig   `mapstructure:"mongo"   yaml:"mongo"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Cron    CronConfig    `mapstructure:"cron"    yaml:"cron"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Category pairs a category name with its listing page URL. Categories are
// processed in the order they are configured.
type Category struct {
	Name       string `mapstructure:"name"        yaml:"name"`
	ListingURL string `mapstructure:"listing_url" yaml:"listing_url"`
}

// ScrapeConfig controls the scrape pipeline.
type ScrapeConfig struct {
	BaseURL              string     `mapstructure:"base_url"               yaml:"base_url"`
	Categories           []Category `mapstructure:"categories"             yaml:"categories"`
	DelaySeconds         float64    `mapstructure:"delay_seconds"          yaml:"delay_seconds"`
	TimeoutSeconds       int        `mapstructure:"timeout_seconds"        yaml:"timeout_seconds"`
	MaxArticlesPerRun    int        `mapstructure:"max_articles_per_run"   yaml:"max_articles_per_run"`
	UserAgent            string     `mapstructure:"user_agent"             yaml:"user_agent"`
	MaxAttempts          int        `mapstructure:"max_attempts"           yaml:"max_attempts"`
	MinContentLength     int        `mapstructure:"min_content_length"     yaml:"min_content_length"`
	ContentImproveMargin int        `mapstructure:"content_improve_margin" yaml:"content_improve_margin"`
	MaxBodySize          int64      `mapstructure:"max_body_size"          yaml:"max_body_size"`
}

// Delay returns the minimum inter-request politeness delay.
func (c ScrapeConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Timeout returns the per-request HTTP timeout.
func (c ScrapeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MongoConfig controls the article store.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// APIConfig controls the read-only query API.
type APIConfig struct {
	Port        int    `mapstructure:"port"         yaml:"port"`
	CORSOrigins string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// CronConfig controls the scheduled scrape loop.
type CronConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes" yaml:"interval_minutes"`
}

// Interval returns the scheduling interval, floored at one minute.
func (c CronConfig) Interval() time.Duration {
	if c.IntervalMinutes < 1 {
		return time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with the reference deployment defaults.
func DefaultConfig() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			BaseURL: "https://www.hockeyslovakia.sk",
			Categories: []Category{
				{Name: "extraliga", ListingURL: "https://www.hockeyslovakia.sk/sk/articles/extraliga"},
				{Name: "reprezentacia", ListingURL: "https://www.hockeyslovakia.sk/sk/articles/reprezentacia"},
			},
			DelaySeconds:      2.5,
			TimeoutSeconds:    20,
			MaxArticlesPerRun: 10,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			MaxAttempts:          3,
			MinContentLength:     150,
			ContentImproveMargin: 80,
			MaxBodySize:          10 * 1024 * 1024, // 10MB
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "hokejnews",
			Collection: "articles",
		},
		API: APIConfig{
			Port:        8000,
			CORSOrigins: "*",
		},
		Cron: CronConfig{
			IntervalMinutes: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
