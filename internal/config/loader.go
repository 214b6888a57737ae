package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from a .env file (if present), a yaml config
// file, and environment variables.
// Priority (highest to lowest): env vars > config file > defaults.
//
// Environment keys map onto config keys by replacing "." with "_" and
// upper-casing, so the deployment surface stays flat:
// SCRAPE_DELAY_SECONDS, SCRAPE_TIMEOUT_SECONDS, SCRAPE_MAX_ARTICLES_PER_RUN,
// SCRAPE_USER_AGENT, MONGO_URI, API_PORT, CRON_INTERVAL_MINUTES, ...
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// CORS_ORIGINS kept as an alias for api.cors_origins.
	_ = v.BindEnv("api.cors_origins", "API_CORS_ORIGINS", "CORS_ORIGINS")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("hokejnews")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers default values in viper so AutomaticEnv can bind
// every key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scrape.base_url", cfg.Scrape.BaseURL)
	v.SetDefault("scrape.categories", cfg.Scrape.Categories)
	v.SetDefault("scrape.delay_seconds", cfg.Scrape.DelaySeconds)
	v.SetDefault("scrape.timeout_seconds", cfg.Scrape.TimeoutSeconds)
	v.SetDefault("scrape.max_articles_per_run", cfg.Scrape.MaxArticlesPerRun)
	v.SetDefault("scrape.user_agent", cfg.Scrape.UserAgent)
	v.SetDefault("scrape.max_attempts", cfg.Scrape.MaxAttempts)
	v.SetDefault("scrape.min_content_length", cfg.Scrape.MinContentLength)
	v.SetDefault("scrape.content_improve_margin", cfg.Scrape.ContentImproveMargin)
	v.SetDefault("scrape.max_body_size", cfg.Scrape.MaxBodySize)

	v.SetDefault("mongo.uri", cfg.Mongo.URI)
	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.collection", cfg.Mongo.Collection)

	v.SetDefault("api.port", cfg.API.Port)
	v.SetDefault("api.cors_origins", cfg.API.CORSOrigins)

	v.SetDefault("cron.interval_minutes", cfg.Cron.IntervalMinutes)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
